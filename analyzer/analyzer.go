// Package analyzer turns collected posts into a structured TrendAnalysis and
// generates free text for the weekly and monthly documents.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"tech-trends/models"
)

// Analyzer is the LLM collaborator used by the aggregators.
//
// Analyze never fails for ordinary content or parsing problems; it returns a
// fallback analysis with Failed set instead. It returns an error wrapping
// ErrCritical when the provider rejects the call for authentication, quota or
// rate-limit reasons.
type Analyzer interface {
	Analyze(ctx context.Context, posts []models.Post, area models.Area) (models.TrendAnalysis, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ErrCritical marks failures after which no further LLM call can succeed.
var ErrCritical = errors.New("critical analyzer error")

type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return fmt.Sprintf("%v: %v", ErrCritical, e.err) }
func (e *criticalError) Unwrap() []error { return []error{ErrCritical, e.err} }

// Critical wraps err so that IsCritical reports true while keeping err reachable.
func Critical(err error) error {
	if err == nil || errors.Is(err, ErrCritical) {
		return err
	}
	return &criticalError{err: err}
}

func IsCritical(err error) bool {
	return errors.Is(err, ErrCritical)
}

var criticalMarkers = []string{
	"api key",
	"api_key",
	"unauthorized",
	"unauthenticated",
	"permission denied",
	"authentication",
	"quota",
	"rate limit",
	"rate_limit",
	"resource_exhausted",
	"too many requests",
}

// classify wraps provider errors that indicate auth, quota or rate-limit problems.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403, 429:
			return Critical(err)
		}
	}
	msg := strings.ToLower(err.Error())
	for _, m := range criticalMarkers {
		if strings.Contains(msg, m) {
			return Critical(err)
		}
	}
	return err
}

// Fallback is the placeholder analysis used when no genuine one could be produced.
func Fallback(area models.Area, postCount int) models.TrendAnalysis {
	return models.TrendAnalysis{
		MainAspects: []string{
			fmt.Sprintf("Trends in %s based on %d posts", area, postCount),
			"Analysis incomplete - manual review recommended",
			"Check collected posts for key insights",
		},
		WhyImportant: fmt.Sprintf("Analysis failed for %s. Please review the %d collected posts manually to identify trends and their importance.", area, postCount),
		ToolsFrameworks: []string{},
		SuggestedActions: []string{
			"Review the collected posts for this area",
			"Manually identify key trends and tools",
			"Update the trend analysis based on post content",
		},
		Failed: true,
	}
}
