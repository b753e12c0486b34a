package models

// TrendAnalysis is what an analyzer extracts from a set of posts.
// Failed marks a placeholder produced when no valid structured result was available.
type TrendAnalysis struct {
	MainAspects      []string `json:"mainAspects"`
	WhyImportant     string   `json:"whyImportant"`
	ToolsFrameworks  []string `json:"toolsFrameworks"`
	SuggestedActions []string `json:"suggestedActions"`
	Failed           bool     `json:"failed,omitempty"`
}

// Trend is the published aggregate for one area in one week.
type Trend struct {
	Area             Area     `json:"area"`
	MainAspects      []string `json:"mainAspects"`
	WhyImportant     string   `json:"whyImportant"`
	ToolsFrameworks  []string `json:"toolsFrameworks"`
	SuggestedActions []string `json:"suggestedActions"`
	ReferencePosts   []Post   `json:"referencePosts"`
	RelevanceScore   float64  `json:"relevanceScore"`
	Failed           bool     `json:"failed,omitempty"`
}
