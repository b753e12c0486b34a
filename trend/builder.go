package trend

import (
	"tech-trends/models"
)

// DefaultReferenceLimit caps referencePosts on a published trend.
const DefaultReferenceLimit = 10

// Builder turns an analysis plus its source posts into a Trend.
type Builder struct {
	Weights        Weights
	ReferenceLimit int
}

func NewBuilder(w Weights, referenceLimit int) *Builder {
	if referenceLimit <= 0 {
		referenceLimit = DefaultReferenceLimit
	}
	return &Builder{Weights: w, ReferenceLimit: referenceLimit}
}

// Build scores the full post set and keeps the first ReferenceLimit posts
// in the order given. The analysis fields, including Failed, are copied as is.
func (b *Builder) Build(area models.Area, analysis models.TrendAnalysis, posts []models.Post) models.Trend {
	n := len(posts)
	if n > b.ReferenceLimit {
		n = b.ReferenceLimit
	}
	refs := make([]models.Post, n)
	copy(refs, posts[:n])

	return models.Trend{
		Area:             area,
		MainAspects:      analysis.MainAspects,
		WhyImportant:     analysis.WhyImportant,
		ToolsFrameworks:  analysis.ToolsFrameworks,
		SuggestedActions: analysis.SuggestedActions,
		ReferencePosts:   refs,
		RelevanceScore:   b.Weights.Score(posts),
		Failed:           analysis.Failed,
	}
}
