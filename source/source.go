// Package source collects posts for an area from external platforms.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tech-trends/config"
	"tech-trends/models"
)

// PostSource returns recent posts for an area. An error means the source
// could not be used at all; an empty result is not an error.
type PostSource interface {
	SearchPosts(ctx context.Context, area models.Area, maxResults int) ([]models.Post, error)
}

// ErrAuthRequired is returned when the platform demands a login.
var ErrAuthRequired = errors.New("source requires authentication")

// New builds the source selected by collector.kind.
func New(cfg config.CollectorConfig) (PostSource, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "browser":
		return NewBrowserSource(cfg), nil
	case "rss":
		return NewRSSSource(cfg), nil
	default:
		return nil, fmt.Errorf("unknown collector kind: %s", cfg.Kind)
	}
}

// PostID derives a stable id from the post url.
func PostID(url string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
}

// KeywordsFor returns at most n search keywords configured for the area.
func KeywordsFor(cfg config.CollectorConfig, area models.Area, n int) []string {
	kw := cfg.Keywords[area.Slug()]
	if len(kw) == 0 {
		kw = []string{string(area)}
	}
	if n > 0 && len(kw) > n {
		kw = kw[:n]
	}
	return kw
}

// Dedupe drops repeated posts, keeping the first occurrence. Posts are keyed
// by url, or by author and content prefix when the url is missing.
func Dedupe(posts []models.Post) []models.Post {
	seen := make(map[string]struct{}, len(posts))
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		key := p.URL
		if key == "" {
			key = p.Author + "|" + truncate(p.Content, 100)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Limit caps posts at n; n <= 0 means no cap.
func Limit(posts []models.Post, n int) []models.Post {
	if n > 0 && len(posts) > n {
		return posts[:n]
	}
	return posts
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
