package trend

import (
	"math"

	"tech-trends/config"
	"tech-trends/models"
)

// Weights are the per-signal multipliers of the relevance score.
// Shares weigh most, comments next, likes least.
type Weights struct {
	Like    float64
	Comment float64
	Share   float64
}

// DefaultWeights is the 1/2/3 weighting historical scores were computed with.
var DefaultWeights = Weights{Like: 1, Comment: 2, Share: 3}

// WeightsFromConfig falls back to DefaultWeights when the section is unset.
func WeightsFromConfig(cfg config.ScoringConfig) Weights {
	if cfg.LikeWeight == 0 && cfg.CommentWeight == 0 && cfg.ShareWeight == 0 {
		return DefaultWeights
	}
	return Weights{Like: cfg.LikeWeight, Comment: cfg.CommentWeight, Share: cfg.ShareWeight}
}

// PostScore is the weighted engagement of a single post.
func (w Weights) PostScore(p models.Post) float64 {
	e := p.Engagement
	return w.Like*float64(e.Likes) + w.Comment*float64(e.Comments) + w.Share*float64(e.Shares)
}

// Score is the mean weighted engagement of posts rounded to one decimal.
// An empty collection scores 0.
func (w Weights) Score(posts []models.Post) float64 {
	if len(posts) == 0 {
		return 0
	}
	var total float64
	for _, p := range posts {
		total += w.PostScore(p)
	}
	return math.Round(total/float64(len(posts))*10) / 10
}

// Score applies DefaultWeights.
func Score(posts []models.Post) float64 {
	return DefaultWeights.Score(posts)
}
