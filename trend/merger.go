package trend

import (
	"sort"

	"tech-trends/models"
)

// Merge combines two collections keyed by URL. Existing posts are indexed
// first and incoming posts overwrite them on collision, so the latest
// collection run wins. Output keeps first-seen order of each URL.
func Merge(existing, incoming []models.Post) []models.Post {
	index := make(map[string]int, len(existing)+len(incoming))
	merged := make([]models.Post, 0, len(existing)+len(incoming))

	put := func(p models.Post) {
		if i, ok := index[p.URL]; ok {
			merged[i] = p
			return
		}
		index[p.URL] = len(merged)
		merged = append(merged, p)
	}
	for _, p := range existing {
		put(p)
	}
	for _, p := range incoming {
		put(p)
	}
	return merged
}

// SortByEngagement orders posts by weighted engagement, highest first.
// Ties keep their relative order.
func (w Weights) SortByEngagement(posts []models.Post) []models.Post {
	out := make([]models.Post, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool {
		return w.PostScore(out[i]) > w.PostScore(out[j])
	})
	return out
}
