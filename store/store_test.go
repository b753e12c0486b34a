package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-trends/models"
	"tech-trends/period"
)

var (
	testWeek  = period.Week{Year: 2025, Number: 5}
	testMonth = period.Month{Year: 2025, Month: 1}
)

func TestAddressKeys(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		key  string
		path string
	}{
		{"posts", PostsAddress(testWeek, models.AreaBackend), "2025-W05/posts/back-end.json", "data/2025-W05/posts/back-end.json"},
		{"trend", TrendAddress(testWeek, models.AreaAILLM), "2025-W05/trends/ai-llm-and-machine-learning.json", "data/2025-W05/trends/ai-llm-and-machine-learning.json"},
		{"trend markdown", TrendMarkdownAddress(testWeek, models.AreaDevOps), "2025-W05/DevOps and infrastructure.md", "trends/2025-W05/DevOps and infrastructure.md"},
		{"summary", SummaryAddress(testWeek), "2025-W05/Summary.md", "trends/2025-W05/Summary.md"},
		{"recommendations", RecommendationsAddress(testMonth), "2025-01/Recommendations.md", "trends/2025-01/Recommendations.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.addr.Validate())
			assert.Equal(t, tt.key, tt.addr.Key())
			assert.Equal(t, tt.path, DefaultLayout.Path(tt.addr))
		})
	}
}

func TestAddressValidate(t *testing.T) {
	assert.Error(t, Address{Kind: KindPosts, Week: testWeek}.Validate())
	assert.Error(t, Address{Kind: KindSummary}.Validate())
	assert.Error(t, Address{Kind: KindRecommendations, Week: testWeek}.Validate())
	assert.Error(t, Address{Kind: "bogus", Week: testWeek}.Validate())
}

// storeContract runs the behavior every DocumentStore must share.
func storeContract(t *testing.T, s DocumentStore) {
	t.Helper()
	ctx := context.Background()
	addr := PostsAddress(testWeek, models.AreaDatabase)

	data, found, err := s.Read(ctx, addr)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	require.NoError(t, s.Write(ctx, addr, []byte(`[1]`)))
	data, found, err = s.Read(ctx, addr)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[1]`, string(data))

	// upsert
	require.NoError(t, s.Write(ctx, addr, []byte(`[1,2]`)))
	require.NoError(t, s.Write(ctx, addr, []byte(`[1,2]`)))
	data, _, err = s.Read(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(data))

	other := PostsAddress(period.Week{Year: 2025, Number: 6}, models.AreaDatabase)
	_, found, err = s.Read(ctx, other)
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = s.Read(ctx, Address{Kind: KindTrend})
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	storeContract(t, s)
	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.Writes(), 3)
}

func TestFileStore(t *testing.T) {
	root := t.TempDir()
	storeContract(t, NewFileStore(root))

	_, err := os.Stat(filepath.Join(root, "data", "2025-W05", "posts", "database.json"))
	assert.NoError(t, err)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trends.db"))
	require.NoError(t, err)
	defer s.Close()

	storeContract(t, s)

	paths, err := s.ListPeriod(context.Background(), "2025-W05")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-W05/posts/database.json"}, paths)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	addr := TrendAddress(testWeek, models.AreaTesting)

	_, found, err := ReadJSON[models.Trend](ctx, s, addr)
	require.NoError(t, err)
	assert.False(t, found)

	in := models.Trend{Area: models.AreaTesting, MainAspects: []string{"a"}, RelevanceScore: 12.5}
	require.NoError(t, WriteJSON(ctx, s, addr, in))

	out, found, err := ReadJSON[models.Trend](ctx, s, addr)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in.Area, out.Area)
	assert.Equal(t, in.RelevanceScore, out.RelevanceScore)

	require.NoError(t, s.Write(ctx, addr, []byte("{not json")))
	_, found, err = ReadJSON[models.Trend](ctx, s, addr)
	assert.True(t, found)
	assert.Error(t, err)
}
