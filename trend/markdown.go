package trend

import (
	"fmt"
	"strings"

	"tech-trends/models"
	"tech-trends/period"
)

const excerptLength = 200

// Markdown renders the per-area document published next to the JSON snapshots.
func Markdown(t models.Trend, week period.Week) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Trends - Week %d, %d\n\n", t.Area, week.Number, week.Year)

	b.WriteString("## Main Aspects\n\n")
	writeList(&b, t.MainAspects)

	b.WriteString("## Why It Became Important\n\n")
	fmt.Fprintf(&b, "%s\n\n", t.WhyImportant)

	b.WriteString("## Tools & Frameworks\n\n")
	writeList(&b, t.ToolsFrameworks)

	b.WriteString("## Suggested Actions for Engineers\n\n")
	writeList(&b, t.SuggestedActions)

	b.WriteString("## Reference Posts\n\n")
	fmt.Fprintf(&b, "**Relevance Score:** %s\n\n", FormatScore(t.RelevanceScore))
	for _, p := range t.ReferencePosts {
		fmt.Fprintf(&b, "### %s\n\n", p.Author)
		fmt.Fprintf(&b, "%s\n\n", Excerpt(p.Content, excerptLength))
		fmt.Fprintf(&b, "- **Engagement:** %d likes, %d comments, %d shares\n",
			p.Engagement.Likes, p.Engagement.Comments, p.Engagement.Shares)
		fmt.Fprintf(&b, "- **Link:** [View Post](%s)\n\n", p.URL)
	}

	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// Excerpt cuts s to n runes and marks the cut with "...".
func Excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// FormatScore prints a one-decimal score without a trailing ".0".
func FormatScore(score float64) string {
	s := fmt.Sprintf("%.1f", score)
	return strings.TrimSuffix(s, ".0")
}
