// Package store persists period-addressed artifacts: accumulated posts,
// trends, weekly summaries and monthly recommendations.
//
// A read of an absent artifact is a normal outcome reported through the
// found flag, never an error. Writes are upserts and may be repeated with
// identical content.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"tech-trends/models"
	"tech-trends/period"
)

type Kind string

const (
	KindPosts           Kind = "posts"
	KindTrend           Kind = "trend"
	KindTrendMarkdown   Kind = "trend_markdown"
	KindSummary         Kind = "summary"
	KindRecommendations Kind = "recommendations"
)

// Address identifies one artifact. Week is used by every kind except
// KindRecommendations, which uses Month. Area is set for per-area kinds only.
type Address struct {
	Kind  Kind
	Week  period.Week
	Month period.Month
	Area  models.Area
}

func PostsAddress(w period.Week, a models.Area) Address {
	return Address{Kind: KindPosts, Week: w, Area: a}
}

func TrendAddress(w period.Week, a models.Area) Address {
	return Address{Kind: KindTrend, Week: w, Area: a}
}

func TrendMarkdownAddress(w period.Week, a models.Area) Address {
	return Address{Kind: KindTrendMarkdown, Week: w, Area: a}
}

func SummaryAddress(w period.Week) Address {
	return Address{Kind: KindSummary, Week: w}
}

func RecommendationsAddress(m period.Month) Address {
	return Address{Kind: KindRecommendations, Month: m}
}

// Period is the directory-style period key: YYYY-Www or YYYY-MM.
func (a Address) Period() string {
	if a.Kind == KindRecommendations {
		return a.Month.String()
	}
	return a.Week.String()
}

// Key is the logical path of the artifact, unique per address.
func (a Address) Key() string {
	switch a.Kind {
	case KindPosts:
		return path.Join(a.Period(), "posts", a.Area.Slug()+".json")
	case KindTrend:
		return path.Join(a.Period(), "trends", a.Area.Slug()+".json")
	case KindTrendMarkdown:
		return path.Join(a.Period(), string(a.Area)+".md")
	case KindSummary:
		return path.Join(a.Period(), "Summary.md")
	case KindRecommendations:
		return path.Join(a.Period(), "Recommendations.md")
	}
	return ""
}

// IsData reports whether the artifact is a machine-readable JSON snapshot
// rather than a published markdown document.
func (a Address) IsData() bool {
	return a.Kind == KindPosts || a.Kind == KindTrend
}

func (a Address) Validate() error {
	switch a.Kind {
	case KindPosts, KindTrend, KindTrendMarkdown:
		if a.Area == "" {
			return fmt.Errorf("%s address requires an area", a.Kind)
		}
		fallthrough
	case KindSummary:
		if a.Week.IsZero() {
			return fmt.Errorf("%s address requires a week", a.Kind)
		}
	case KindRecommendations:
		if a.Month.IsZero() {
			return fmt.Errorf("%s address requires a month", a.Kind)
		}
	default:
		return fmt.Errorf("unknown artifact kind %q", a.Kind)
	}
	return nil
}

func (a Address) String() string {
	return string(a.Kind) + ":" + a.Key()
}

// Layout maps addresses onto repository paths: JSON snapshots live under
// DataDir, markdown documents under DocsDir.
type Layout struct {
	DataDir string
	DocsDir string
}

var DefaultLayout = Layout{DataDir: "data", DocsDir: "trends"}

func (l Layout) Path(a Address) string {
	if a.IsData() {
		return path.Join(l.DataDir, a.Key())
	}
	return path.Join(l.DocsDir, a.Key())
}

// Lister is implemented by stores that can enumerate a period's artifacts.
type Lister interface {
	ListPeriod(ctx context.Context, periodKey string) ([]string, error)
}

// DocumentStore is the persistence contract consumed by the aggregators.
type DocumentStore interface {
	// Read returns found=false with a nil error when the artifact does not exist.
	Read(ctx context.Context, addr Address) (content []byte, found bool, err error)
	// Write creates or replaces the artifact.
	Write(ctx context.Context, addr Address, content []byte) error
}

// ReadJSON decodes a JSON artifact into T.
func ReadJSON[T any](ctx context.Context, s DocumentStore, addr Address) (T, bool, error) {
	var out T
	data, found, err := s.Read(ctx, addr)
	if err != nil || !found {
		return out, found, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, true, fmt.Errorf("decode %s: %w", addr, err)
	}
	return out, true, nil
}

// WriteJSON stores v as indented JSON.
func WriteJSON(ctx context.Context, s DocumentStore, addr Address, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", addr, err)
	}
	return s.Write(ctx, addr, data)
}
