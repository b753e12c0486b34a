package models

import (
	"regexp"
	"strings"
)

// Area is a fixed topic category. The value is the display name.
type Area string

const (
	AreaGeneralIT    Area = "General IT"
	AreaBackend      Area = "Back end"
	AreaFrontend     Area = "Front end"
	AreaAILLM        Area = "AI, LLM and Machine learning"
	AreaDatabase     Area = "Database"
	AreaDevOps       Area = "DevOps and infrastructure"
	AreaArchitecture Area = "Architecture, governance and design"
	AreaTesting      Area = "Testing and QA"
)

// AllAreas is the canonical enumeration order. Weekly ranking ties keep this order.
var AllAreas = []Area{
	AreaGeneralIT,
	AreaBackend,
	AreaFrontend,
	AreaAILLM,
	AreaDatabase,
	AreaDevOps,
	AreaArchitecture,
	AreaTesting,
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

func (a Area) String() string { return string(a) }

// Slug returns the lowercase dash-separated form used in storage paths and branch names.
func (a Area) Slug() string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(string(a)), "-")
	return strings.Trim(s, "-")
}

// ParseArea matches a display name or slug, case-insensitively.
func ParseArea(s string) (Area, bool) {
	s = strings.TrimSpace(s)
	for _, a := range AllAreas {
		if strings.EqualFold(string(a), s) || strings.EqualFold(a.Slug(), s) {
			return a, true
		}
	}
	return "", false
}
