package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"tech-trends/config"
	"tech-trends/metrics"
	"tech-trends/models"
)

// contentGenerator is the part of the genai client used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// UsageLog receives one record per LLM call.
type UsageLog interface {
	Insert(ctx context.Context, log models.AILog) error
}

// Gemini is an Analyzer backed by the Gemini API. One instance carries one
// system instruction, so each area gets its own instance.
type Gemini struct {
	models      contentGenerator
	modelName   string
	temperature float32
	instruction string
	purpose     string
	quota       *QuotaLimiter
	usage       UsageLog
}

// GeminiOption customizes a Gemini analyzer.
type GeminiOption func(*Gemini)

func WithQuota(q *QuotaLimiter) GeminiOption {
	return func(g *Gemini) { g.quota = q }
}

func WithUsageLog(u UsageLog) GeminiOption {
	return func(g *Gemini) { g.usage = u }
}

// NewGeminiClient creates the shared genai client.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*genai.Client, error) {
	if cfg.Provider != "" && cfg.Provider != "google" {
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is not set")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// NewGemini builds an analyzer with the given system instruction. purpose
// labels usage records, e.g. an area slug or "summary".
func NewGemini(client *genai.Client, cfg config.LLMConfig, instruction, purpose string, opts ...GeminiOption) *Gemini {
	return newGemini(client.Models, cfg, instruction, purpose, opts...)
}

func newGemini(gen contentGenerator, cfg config.LLMConfig, instruction, purpose string, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		models:      gen,
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		instruction: instruction,
		purpose:     purpose,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gemini) Analyze(ctx context.Context, posts []models.Post, area models.Area) (models.TrendAnalysis, error) {
	prompt := AnalysisPrompt(posts, area)
	text, err := g.generate(ctx, "analyze", string(area), prompt, true)
	if err != nil {
		if IsCritical(err) || errors.Is(err, context.Canceled) {
			return models.TrendAnalysis{}, err
		}
		config.ErrorWithFields("analysis failed, using fallback", config.Fields{
			"area":       area,
			"post_count": len(posts),
			"error":      err.Error(),
		})
		metrics.AnalyzerCallsTotal.WithLabelValues("analyze", "fallback").Inc()
		return Fallback(area, len(posts)), nil
	}

	analysis, err := ParseAnalysis(text)
	if err != nil {
		config.WarnWithFields("could not parse analysis, using fallback", config.Fields{
			"area":            area,
			"error":           err.Error(),
			"content_preview": truncateRunes(text, 500),
		})
		metrics.AnalyzerCallsTotal.WithLabelValues("analyze", "fallback").Inc()
		return Fallback(area, len(posts)), nil
	}

	config.DebugWithFields("parsed trend analysis", config.Fields{
		"area":              area,
		"main_aspects":      len(analysis.MainAspects),
		"tools_frameworks":  len(analysis.ToolsFrameworks),
		"suggested_actions": len(analysis.SuggestedActions),
	})
	return analysis, nil
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	text, err := g.generate(ctx, "generate", "", prompt, false)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}

func (g *Gemini) generate(ctx context.Context, operation, area, prompt string, jsonOutput bool) (string, error) {
	if err := g.quota.Wait(ctx); err != nil {
		metrics.AnalyzerCallsTotal.WithLabelValues(operation, "quota").Inc()
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: g.instruction}}},
		Temperature:       genai.Ptr(g.temperature),
	}
	if jsonOutput {
		cfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	result, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	elapsed := time.Since(start)
	metrics.AnalyzerCallDuration.WithLabelValues(operation).Observe(elapsed.Seconds())

	var text string
	if err == nil && result != nil {
		text = result.Text()
	}
	if err == nil && result == nil {
		err = errors.New("nil response from model")
	}
	err = classify(err)

	g.recordUsage(ctx, area, prompt, text, result, start, elapsed, err)

	switch {
	case err == nil:
		metrics.AnalyzerCallsTotal.WithLabelValues(operation, "ok").Inc()
	case IsCritical(err):
		metrics.AnalyzerCallsTotal.WithLabelValues(operation, "critical").Inc()
	default:
		metrics.AnalyzerCallsTotal.WithLabelValues(operation, "error").Inc()
	}
	return text, err
}

func (g *Gemini) recordUsage(ctx context.Context, area, prompt, text string, result *genai.GenerateContentResponse, start time.Time, elapsed time.Duration, callErr error) {
	log := models.AILog{
		Purpose:        g.purpose,
		Area:           area,
		ModelName:      g.modelName,
		DurationMs:     elapsed.Milliseconds(),
		InputPrompt:    g.instruction + "\n\n" + prompt,
		OutputResponse: text,
		RequestedAt:    start,
		CompletedAt:    start.Add(elapsed),
	}
	if callErr != nil {
		msg := callErr.Error()
		log.ErrorMessage = &msg
	}
	if result != nil {
		log.ModelVersion = result.ModelVersion
		if u := result.UsageMetadata; u != nil {
			log.InputTokens = int64(u.PromptTokenCount)
			log.OutputTokens = int64(u.CandidatesTokenCount)
			log.TotalTokens = int64(u.TotalTokenCount)
			metrics.LLMTokensTotal.WithLabelValues("input").Add(float64(u.PromptTokenCount))
			metrics.LLMTokensTotal.WithLabelValues("output").Add(float64(u.CandidatesTokenCount))
		}
	}

	if g.usage == nil {
		return
	}
	if err := g.usage.Insert(ctx, log); err != nil {
		config.Logger.Warnf("failed to record LLM usage: %v", err)
	}
}
