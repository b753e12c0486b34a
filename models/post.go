package models

import (
	"time"
)

// Engagement holds the raw interaction counters of a post.
type Engagement struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

// Post is one collected social-media item.
// URL is the identity key used for deduplication across runs.
type Post struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	AuthorURL   string     `json:"authorUrl,omitempty"`
	PublishedAt time.Time  `json:"date"`
	Engagement  Engagement `json:"engagement"`
	URL         string     `json:"url"`
	Area        string     `json:"area"`
}
