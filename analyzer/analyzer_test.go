package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"tech-trends/config"
	"tech-trends/models"
)

type fakeGenerator struct {
	text   string
	err    error
	calls  int
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = cfg
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
		ModelVersion: "test-version",
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 5,
			TotalTokenCount:      15,
		},
	}, nil
}

type fakeUsage struct {
	logs []models.AILog
}

func (f *fakeUsage) Insert(_ context.Context, log models.AILog) error {
	f.logs = append(f.logs, log)
	return nil
}

var samplePosts = []models.Post{
	{Author: "Ada", Content: strings.Repeat("x", 600), URL: "https://example.com/1", Engagement: models.Engagement{Likes: 3, Comments: 2, Shares: 1}},
	{Author: "Linus", Content: "Kernel news", URL: "https://example.com/2"},
}

const validResponse = `{"mainAspects":["a","b","c"],"whyImportant":"because","toolsFrameworks":["Go"],"suggestedActions":["learn"]}`

func newTestGemini(gen *fakeGenerator, opts ...GeminiOption) *Gemini {
	cfg := config.Default().LLM
	return newGemini(gen, cfg, InstructionFor(models.AreaBackend), "back-end", opts...)
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"bare", validResponse, false},
		{"fenced", "```json\n" + validResponse + "\n```", false},
		{"prose", "Here you go: " + validResponse + " enjoy", false},
		{"empty", "  ", true},
		{"no json", "sorry, I cannot help", true},
		{"missing aspects", `{"whyImportant":"x"}`, true},
		{"blank why", `{"mainAspects":["a"],"whyImportant":"  "}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysis(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, got.MainAspects)
			assert.Equal(t, "because", got.WhyImportant)
			assert.False(t, got.Failed)
		})
	}
}

func TestParseAnalysisDefaultsArrays(t *testing.T) {
	got, err := ParseAnalysis(`{"mainAspects":["a"],"whyImportant":"w"}`)
	require.NoError(t, err)
	assert.NotNil(t, got.ToolsFrameworks)
	assert.NotNil(t, got.SuggestedActions)
	assert.Empty(t, got.ToolsFrameworks)
}

func TestFallback(t *testing.T) {
	fb := Fallback(models.AreaDatabase, 7)
	assert.True(t, fb.Failed)
	assert.Contains(t, fb.MainAspects[0], "Database")
	assert.Contains(t, fb.MainAspects[0], "7 posts")
	assert.Contains(t, fb.WhyImportant, "7 collected posts")
	assert.NotNil(t, fb.ToolsFrameworks)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		critical bool
	}{
		{"401", genai.APIError{Code: 401, Message: "bad key"}, true},
		{"429", genai.APIError{Code: 429, Message: "slow down"}, true},
		{"500", genai.APIError{Code: 500, Message: "internal"}, false},
		{"quota text", errors.New("You exceeded your current quota"), true},
		{"rate limit text", errors.New("Rate limit reached"), true},
		{"api key text", errors.New("API key not valid"), true},
		{"timeout", errors.New("i/o timeout"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			assert.Equal(t, tt.critical, IsCritical(err))
			assert.Contains(t, err.Error(), tt.err.Error())
		})
	}
	assert.Nil(t, classify(nil))
}

func TestCriticalIsIdempotent(t *testing.T) {
	base := errors.New("boom")
	once := Critical(base)
	assert.Same(t, once, Critical(once))
	assert.True(t, IsCritical(once))
	assert.ErrorIs(t, once, base)
	assert.Nil(t, Critical(nil))
}

func TestGeminiAnalyze(t *testing.T) {
	gen := &fakeGenerator{text: validResponse}
	usage := &fakeUsage{}
	g := newTestGemini(gen, WithUsageLog(usage))

	got, err := g.Analyze(context.Background(), samplePosts, models.AreaBackend)
	require.NoError(t, err)
	assert.False(t, got.Failed)
	assert.Equal(t, []string{"Go"}, got.ToolsFrameworks)

	assert.Equal(t, "gemini-2.5-flash", gen.model)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.Contains(t, gen.config.SystemInstruction.Parts[0].Text, "Backend development")
	assert.Contains(t, gen.prompt, "Analyze these LinkedIn posts about Back end:")
	assert.Contains(t, gen.prompt, "Engagement: 3 likes, 2 comments, 1 shares")
	assert.NotContains(t, gen.prompt, strings.Repeat("x", 501))

	require.Len(t, usage.logs, 1)
	assert.Equal(t, "back-end", usage.logs[0].Purpose)
	assert.Equal(t, int64(15), usage.logs[0].TotalTokens)
	assert.Equal(t, "test-version", usage.logs[0].ModelVersion)
	assert.Nil(t, usage.logs[0].ErrorMessage)
}

func TestGeminiAnalyzeFallsBackOnBadContent(t *testing.T) {
	g := newTestGemini(&fakeGenerator{text: "not json at all"})

	got, err := g.Analyze(context.Background(), samplePosts, models.AreaBackend)
	require.NoError(t, err)
	assert.True(t, got.Failed)
}

func TestGeminiAnalyzeFallsBackOnTransientError(t *testing.T) {
	g := newTestGemini(&fakeGenerator{err: genai.APIError{Code: 503, Message: "overloaded"}})

	got, err := g.Analyze(context.Background(), samplePosts, models.AreaBackend)
	require.NoError(t, err)
	assert.True(t, got.Failed)
}

func TestGeminiAnalyzeCriticalError(t *testing.T) {
	usage := &fakeUsage{}
	g := newTestGemini(&fakeGenerator{err: genai.APIError{Code: 403, Message: "permission"}}, WithUsageLog(usage))

	_, err := g.Analyze(context.Background(), samplePosts, models.AreaBackend)
	require.Error(t, err)
	assert.True(t, IsCritical(err))
	require.Len(t, usage.logs, 1)
	assert.NotNil(t, usage.logs[0].ErrorMessage)
}

func TestGeminiGenerateText(t *testing.T) {
	gen := &fakeGenerator{text: "A summary."}
	g := newTestGemini(gen)

	text, err := g.GenerateText(context.Background(), "summarize")
	require.NoError(t, err)
	assert.Equal(t, "A summary.", text)
	assert.Empty(t, gen.config.ResponseMIMEType)

	_, err = newTestGemini(&fakeGenerator{text: " "}).GenerateText(context.Background(), "x")
	assert.Error(t, err)
}

func TestQuotaLimiterDailyLimitIsCritical(t *testing.T) {
	q := NewQuotaLimiter(config.LLMQuotaConfig{RequestsPerDay: 2})
	ctx := context.Background()

	require.NoError(t, q.Wait(ctx))
	require.NoError(t, q.Wait(ctx))
	err := q.Wait(ctx)
	require.Error(t, err)
	assert.True(t, IsCritical(err))
	assert.Equal(t, 2, q.UsedToday())
}

func TestQuotaLimiterResetsNextDay(t *testing.T) {
	now := time.Date(2025, 3, 5, 23, 59, 0, 0, time.UTC)
	q := NewQuotaLimiter(config.LLMQuotaConfig{RequestsPerDay: 1})
	q.now = func() time.Time { return now }

	require.NoError(t, q.Wait(context.Background()))
	assert.Error(t, q.Wait(context.Background()))

	now = now.Add(2 * time.Minute)
	assert.NoError(t, q.Wait(context.Background()))
}

func TestQuotaLimiterHonorsContext(t *testing.T) {
	q := NewQuotaLimiter(config.LLMQuotaConfig{RequestsPerMinute: 1})
	require.NoError(t, q.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Wait(ctx), context.DeadlineExceeded)
}

func TestGeminiQuotaExhaustionIsCritical(t *testing.T) {
	gen := &fakeGenerator{text: validResponse}
	g := newTestGemini(gen, WithQuota(NewQuotaLimiter(config.LLMQuotaConfig{RequestsPerDay: 1})))

	_, err := g.Analyze(context.Background(), samplePosts, models.AreaBackend)
	require.NoError(t, err)
	_, err = g.Analyze(context.Background(), samplePosts, models.AreaBackend)
	assert.True(t, IsCritical(err))
	assert.Equal(t, 1, gen.calls)
}

func TestInstructionForEveryArea(t *testing.T) {
	for _, a := range models.AllAreas {
		assert.Contains(t, InstructionFor(a), "Focus on", a)
	}
}
