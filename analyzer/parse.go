package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"tech-trends/models"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
	bareJSON   = regexp.MustCompile(`(?s)(\{.*\})`)
)

type rawAnalysis struct {
	MainAspects      []string `json:"mainAspects"`
	WhyImportant     string   `json:"whyImportant"`
	ToolsFrameworks  []string `json:"toolsFrameworks"`
	SuggestedActions []string `json:"suggestedActions"`
}

// ParseAnalysis extracts a TrendAnalysis from a model response. The JSON may
// be bare, fenced in a markdown code block or embedded in surrounding prose.
func ParseAnalysis(text string) (models.TrendAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.TrendAnalysis{}, errors.New("empty response")
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		m := fencedJSON.FindStringSubmatch(text)
		if m == nil {
			m = bareJSON.FindStringSubmatch(text)
		}
		if m == nil {
			return models.TrendAnalysis{}, errors.New("could not parse JSON from response")
		}
		raw = rawAnalysis{}
		if err := json.Unmarshal([]byte(m[1]), &raw); err != nil {
			return models.TrendAnalysis{}, fmt.Errorf("could not parse JSON from response: %w", err)
		}
	}

	if len(raw.MainAspects) == 0 {
		return models.TrendAnalysis{}, errors.New("response missing required field: mainAspects")
	}
	if strings.TrimSpace(raw.WhyImportant) == "" {
		return models.TrendAnalysis{}, errors.New("response missing required field: whyImportant")
	}
	if raw.ToolsFrameworks == nil {
		raw.ToolsFrameworks = []string{}
	}
	if raw.SuggestedActions == nil {
		raw.SuggestedActions = []string{}
	}

	return models.TrendAnalysis{
		MainAspects:      raw.MainAspects,
		WhyImportant:     raw.WhyImportant,
		ToolsFrameworks:  raw.ToolsFrameworks,
		SuggestedActions: raw.SuggestedActions,
	}, nil
}
