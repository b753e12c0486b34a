package trend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-trends/config"
	"tech-trends/models"
	"tech-trends/period"
)

func post(url string, likes, comments, shares int) models.Post {
	return models.Post{
		ID:         url,
		URL:        url,
		Author:     "author " + url,
		Content:    "content of " + url,
		Engagement: models.Engagement{Likes: likes, Comments: comments, Shares: shares},
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(nil))
	assert.Equal(t, 0.0, Score([]models.Post{}))
	assert.Equal(t, 26.0, Score([]models.Post{post("a", 10, 5, 2)}))

	// (1 + 2) / 2 = 1.5 ; (1+0+0 + 0+2+0 + 0+0+3)/3 = 2.0
	assert.Equal(t, 1.5, Score([]models.Post{post("a", 1, 0, 0), post("b", 2, 0, 0)}))
	assert.Equal(t, 2.0, Score([]models.Post{post("a", 1, 0, 0), post("b", 0, 1, 0), post("c", 0, 0, 1)}))

	// rounding to one decimal: 10/3 = 3.333...
	assert.Equal(t, 3.3, Score([]models.Post{post("a", 10, 0, 0), post("b", 0, 0, 0), post("c", 0, 0, 0)}))
}

func TestScoreMonotonic(t *testing.T) {
	bump := []func(*models.Engagement){
		func(e *models.Engagement) { e.Likes++ },
		func(e *models.Engagement) { e.Comments++ },
		func(e *models.Engagement) { e.Shares++ },
	}
	for i, inc := range bump {
		p := post("a", 3, 3, 3)
		prev := Score([]models.Post{p})
		for step := 0; step < 5; step++ {
			inc(&p.Engagement)
			cur := Score([]models.Post{p})
			assert.GreaterOrEqual(t, cur, prev, "signal %d", i)
			prev = cur
		}
	}
}

func TestWeightsFromConfig(t *testing.T) {
	assert.Equal(t, DefaultWeights, WeightsFromConfig(config.ScoringConfig{}))
	assert.Equal(t, DefaultWeights, WeightsFromConfig(config.Default().Scoring))

	w := WeightsFromConfig(config.ScoringConfig{LikeWeight: 1, CommentWeight: 1, ShareWeight: 1})
	assert.Equal(t, 6.0, w.Score([]models.Post{post("a", 1, 2, 3)}))
}

func TestMergeUnionAndIncomingWins(t *testing.T) {
	a := []models.Post{post("u1", 1, 0, 0), post("u2", 2, 0, 0)}
	b := []models.Post{post("u2", 20, 1, 1), post("u3", 3, 0, 0)}

	merged := Merge(a, b)
	require.Len(t, merged, 3)

	byURL := map[string]models.Post{}
	for _, p := range merged {
		_, dup := byURL[p.URL]
		assert.False(t, dup, "url %s appears twice", p.URL)
		byURL[p.URL] = p
	}
	assert.Equal(t, 20, byURL["u2"].Engagement.Likes)
	assert.Contains(t, byURL, "u1")
	assert.Contains(t, byURL, "u3")
}

func TestMergeIdempotent(t *testing.T) {
	a := []models.Post{post("u1", 1, 0, 0), post("u2", 2, 0, 0)}
	b := []models.Post{post("u2", 9, 9, 9), post("u4", 4, 0, 0)}

	once := Merge(a, b)
	twice := Merge(once, b)
	assert.Equal(t, once, twice)
}

func TestMergeDuplicatesInsideIncoming(t *testing.T) {
	merged := Merge(nil, []models.Post{post("x", 1, 0, 0), post("x", 5, 0, 0)})
	require.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].Engagement.Likes)
}

func TestAccumulationOverThreeRuns(t *testing.T) {
	var acc []models.Post
	for run := 1; run <= 3; run++ {
		var batch []models.Post
		if run == 1 {
			batch = append(batch, post("shared", 1, 0, 0))
			for i := 0; i < 4; i++ {
				batch = append(batch, post(fmt.Sprintf("r%d-%d", run, i), 1, 0, 0))
			}
		} else {
			for i := 0; i < 5; i++ {
				batch = append(batch, post(fmt.Sprintf("r%d-%d", run, i), 1, 0, 0))
			}
			batch = append(batch, post("shared", run*100, run, run))
		}
		acc = Merge(acc, batch)
	}

	assert.Len(t, acc, 15)
	for _, p := range acc {
		if p.URL == "shared" {
			assert.Equal(t, 300, p.Engagement.Likes)
			assert.Equal(t, 3, p.Engagement.Shares)
		}
	}
}

func TestSortByEngagementIsStable(t *testing.T) {
	posts := []models.Post{post("low", 1, 0, 0), post("tie1", 0, 0, 1), post("high", 0, 10, 0), post("tie2", 3, 0, 0)}
	sorted := DefaultWeights.SortByEngagement(posts)

	urls := make([]string, len(sorted))
	for i, p := range sorted {
		urls[i] = p.URL
	}
	assert.Equal(t, []string{"high", "tie1", "tie2", "low"}, urls)
	assert.Equal(t, "low", posts[0].URL, "input must not be reordered")
}

func TestBuildScoresFullSet(t *testing.T) {
	var posts []models.Post
	for i := 0; i < 15; i++ {
		posts = append(posts, post(fmt.Sprintf("p%02d", i), i, i, i))
	}
	analysis := models.TrendAnalysis{
		MainAspects:      []string{"a"},
		WhyImportant:     "because",
		ToolsFrameworks:  []string{"go"},
		SuggestedActions: []string{"learn"},
	}

	tr := NewBuilder(DefaultWeights, 10).Build(models.AreaBackend, analysis, posts)

	assert.Len(t, tr.ReferencePosts, 10)
	assert.Equal(t, "p00", tr.ReferencePosts[0].URL)
	assert.Equal(t, "p09", tr.ReferencePosts[9].URL)
	assert.Equal(t, Score(posts), tr.RelevanceScore)
	assert.NotEqual(t, Score(posts[:10]), tr.RelevanceScore)
	assert.Equal(t, models.AreaBackend, tr.Area)
	assert.Equal(t, analysis.MainAspects, tr.MainAspects)
	assert.False(t, tr.Failed)
}

func TestBuildCarriesFailedFlag(t *testing.T) {
	tr := NewBuilder(DefaultWeights, 0).Build(models.AreaTesting, models.TrendAnalysis{Failed: true}, []models.Post{post("a", 1, 1, 1)})
	assert.True(t, tr.Failed)
	assert.Len(t, tr.ReferencePosts, 1)
	assert.Equal(t, 6.0, tr.RelevanceScore)
}

func TestMarkdown(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "0123456789"
	}
	p := post("https://x/1", 10, 5, 2)
	p.Content = long
	tr := models.Trend{
		Area:             models.AreaDatabase,
		MainAspects:      []string{"vector search"},
		WhyImportant:     "AI workloads",
		ToolsFrameworks:  []string{"pgvector"},
		SuggestedActions: []string{"benchmark"},
		ReferencePosts:   []models.Post{p},
		RelevanceScore:   26,
	}

	md := Markdown(tr, period.Week{Year: 2025, Number: 9})

	assert.Contains(t, md, "# Database Trends - Week 9, 2025\n\n")
	assert.Contains(t, md, "## Main Aspects\n\n- vector search\n\n")
	assert.Contains(t, md, "## Why It Became Important\n\nAI workloads\n\n")
	assert.Contains(t, md, "## Tools & Frameworks\n\n- pgvector\n\n")
	assert.Contains(t, md, "## Suggested Actions for Engineers\n\n- benchmark\n\n")
	assert.Contains(t, md, "**Relevance Score:** 26\n\n")
	assert.Contains(t, md, long[:200]+"...\n\n")
	assert.Contains(t, md, "- **Engagement:** 10 likes, 5 comments, 2 shares\n")
	assert.Contains(t, md, "- **Link:** [View Post](https://x/1)\n\n")
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "26", FormatScore(26))
	assert.Equal(t, "3.3", FormatScore(3.3))
	assert.Equal(t, "0", FormatScore(0))
}
