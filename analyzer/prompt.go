package analyzer

import (
	"fmt"
	"strings"

	"tech-trends/models"
)

// postContentLimit caps each post's content inside the analysis prompt.
const postContentLimit = 500

const instructionTemplate = `You are an expert analyst specializing in %s trends. Analyze the provided LinkedIn posts and extract:
1. Main aspects of the trends discussed
2. Why these trends became important
3. Tools and frameworks mentioned or relevant
4. Suggested actions for engineers in this area

Focus on %s.`

var areaFocus = map[models.Area]struct{ subject, focus string }{
	models.AreaGeneralIT:    {"General IT", "broad technology trends, industry shifts, and general IT innovations"},
	models.AreaBackend:      {"Backend development", "server-side technologies, APIs, microservices, backend architectures, and related frameworks"},
	models.AreaFrontend:     {"Frontend development", "frontend frameworks, UI/UX trends, JavaScript/TypeScript ecosystems, and client-side technologies"},
	models.AreaAILLM:        {"AI, LLM, and Machine Learning", "AI models, LLMs, machine learning frameworks, AI development tools, and generative AI technologies"},
	models.AreaDatabase:     {"Database", "database technologies, data engineering, SQL/NoSQL trends, data architecture, and data management solutions"},
	models.AreaDevOps:       {"DevOps and infrastructure", "CI/CD, cloud infrastructure, containerization, infrastructure as code, and DevOps tooling"},
	models.AreaArchitecture: {"Software Architecture, governance, and design", "software architecture patterns, system design, enterprise architecture, governance practices, and technical leadership"},
	models.AreaTesting:      {"Testing and QA", "testing strategies, test automation, QA practices, TDD, and quality assurance methodologies"},
}

// InstructionFor returns the system instruction of an area's analyzer.
func InstructionFor(area models.Area) string {
	f, ok := areaFocus[area]
	if !ok {
		f.subject = string(area)
		f.focus = "the technologies and practices discussed"
	}
	return fmt.Sprintf(instructionTemplate, f.subject, f.focus)
}

const SummaryInstruction = "You are an expert analyst specializing in creating executive summaries of tech trends. Create comprehensive, well-structured summaries that highlight the most important trends and their implications."

const RecommendationsInstruction = "You are an expert analyst specializing in creating actionable recommendations for managers, engineers, and product owners based on tech trend analysis. Provide structured, practical recommendations with clear impacts and references."

// AnalysisPrompt renders posts for an area's analysis request.
func AnalysisPrompt(posts []models.Post, area models.Area) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze these LinkedIn posts about %s:\n\n", area)
	for i, p := range posts {
		fmt.Fprintf(&b, "Post %d:\n", i+1)
		fmt.Fprintf(&b, "Author: %s\n", p.Author)
		fmt.Fprintf(&b, "Content: %s\n", truncateRunes(p.Content, postContentLimit))
		fmt.Fprintf(&b, "Engagement: %d likes, %d comments, %d shares\n",
			p.Engagement.Likes, p.Engagement.Comments, p.Engagement.Shares)
		fmt.Fprintf(&b, "URL: %s\n\n", p.URL)
	}
	b.WriteString(`Provide a JSON response with:
- mainAspects: array of main trend aspects (at least 3)
- whyImportant: explanation of why these trends became important (2-3 sentences)
- toolsFrameworks: array of relevant tools/frameworks mentioned
- suggestedActions: array of actionable recommendations for engineers (at least 3)`)
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
