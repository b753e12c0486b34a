package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tech-trends/config"
	"tech-trends/models"
)

// fakeGitHub implements the handful of REST endpoints GitHubStore touches.
type fakeGitHub struct {
	mu       sync.Mutex
	def      string
	branches map[string]bool
	files    map[string]map[string]string // branch -> path -> content
	pulls    map[string]map[string]any    // head branch -> pull
	bases    []string // sha each new branch was created from
	puts     int
	patches  int
}

func newFakeGitHub() *fakeGitHub {
	return newFakeGitHubWithDefault("main")
}

func newFakeGitHubWithDefault(def string) *fakeGitHub {
	return &fakeGitHub{
		def:      def,
		branches: map[string]bool{def: true},
		files:    map[string]map[string]string{def: {}},
		pulls:    map[string]map[string]any{},
	}
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/repos/acme/trends"
	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	p := strings.TrimPrefix(r.URL.Path, prefix)

	switch {
	case p == "" && r.Method == http.MethodGet:
		writeJSON(w, map[string]any{"default_branch": f.def})

	case strings.HasPrefix(p, "/git/ref/heads/") && r.Method == http.MethodGet:
		name := strings.TrimPrefix(p, "/git/ref/heads/")
		if !f.branches[name] {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, map[string]any{"ref": "refs/heads/" + name, "object": map[string]any{"sha": "sha-" + name}})

	case p == "/git/refs" && r.Method == http.MethodPost:
		var body struct {
			Ref    string
			Object struct{ SHA string }
		}
		json.NewDecoder(r.Body).Decode(&body)
		b := strings.TrimPrefix(body.Ref, "refs/heads/")
		f.branches[b] = true
		f.files[b] = map[string]string{}
		f.bases = append(f.bases, body.Object.SHA)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{})

	case strings.HasPrefix(p, "/contents/") && r.Method == http.MethodGet:
		path := strings.TrimPrefix(p, "/contents/")
		content, ok := f.files[r.URL.Query().Get("ref")][path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, map[string]any{
			"sha":      "sha-" + path,
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})

	case strings.HasPrefix(p, "/contents/") && r.Method == http.MethodPut:
		var body struct {
			Content string
			Branch  string
		}
		json.NewDecoder(r.Body).Decode(&body)
		data, _ := base64.StdEncoding.DecodeString(body.Content)
		f.files[body.Branch][strings.TrimPrefix(p, "/contents/")] = string(data)
		f.puts++
		writeJSON(w, map[string]any{})

	case p == "/pulls" && r.Method == http.MethodGet:
		head := strings.TrimPrefix(r.URL.Query().Get("head"), "acme:")
		out := []map[string]any{}
		if pr, ok := f.pulls[head]; ok {
			out = append(out, pr)
		}
		writeJSON(w, out)

	case p == "/pulls" && r.Method == http.MethodPost:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		body["number"] = len(f.pulls) + 1
		f.pulls[body["head"].(string)] = body
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, body)

	case strings.HasPrefix(p, "/pulls/") && r.Method == http.MethodPatch:
		f.patches++
		writeJSON(w, map[string]any{})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTestGitHubStore(t *testing.T, fake *fakeGitHub) *GitHubStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewGitHubStore(config.GitHubStoreConfig{
		Owner:   "acme",
		Repo:    "trends",
		Token:   "secret",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	return s
}

func TestNewGitHubStoreRequiresRepoAndToken(t *testing.T) {
	_, err := NewGitHubStore(config.GitHubStoreConfig{Token: "x"})
	assert.Error(t, err)
	_, err = NewGitHubStore(config.GitHubStoreConfig{Owner: "a", Repo: "b"})
	assert.Error(t, err)
}

func TestGitHubStoreContract(t *testing.T) {
	storeContract(t, newTestGitHubStore(t, newFakeGitHub()))
}

func TestGitHubStoreMarkdownOpensPullRequest(t *testing.T) {
	fake := newFakeGitHub()
	s := newTestGitHubStore(t, fake)
	ctx := context.Background()

	addr := TrendMarkdownAddress(testWeek, models.AreaBackend)
	require.NoError(t, s.Write(ctx, addr, []byte("# Back end")))

	branch := "trends/2025-W05-back-end"
	assert.True(t, fake.branches[branch])
	assert.Equal(t, "# Back end", fake.files[branch]["trends/2025-W05/Back end.md"])
	require.Contains(t, fake.pulls, branch)
	assert.Equal(t, "5-Back end Trends", fake.pulls[branch]["title"])
	assert.Equal(t, "main", fake.pulls[branch]["base"])

	// identical content: no new commit, PR refreshed
	require.NoError(t, s.Write(ctx, addr, []byte("# Back end")))
	assert.Equal(t, 1, fake.puts)
	assert.Equal(t, 1, fake.patches)
	assert.Len(t, fake.pulls, 1)
}

func TestGitHubStoreReadFallsBackToDefaultBranch(t *testing.T) {
	fake := newFakeGitHub()
	fake.files["main"]["data/2025-W05/posts/back-end.json"] = `[]`
	s := newTestGitHubStore(t, fake)

	data, found, err := s.Read(context.Background(), PostsAddress(testWeek, models.AreaBackend))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[]`, string(data))
}

func TestGitHubStoreNames(t *testing.T) {
	assert.Equal(t, "trends/2025-W05-summary", BranchFor(SummaryAddress(testWeek)))
	assert.Equal(t, "trends/2025-01-recommendations", BranchFor(RecommendationsAddress(testMonth)))
	assert.Equal(t, "5 Trends Knowledge Base Summary", PullRequestTitle(SummaryAddress(testWeek)))
	assert.Equal(t, "January 2025 Recommended Actions", PullRequestTitle(RecommendationsAddress(testMonth)))
}

func TestGitHubStoreBranchesFromEscapedDefaultBranch(t *testing.T) {
	fake := newFakeGitHubWithDefault("release/2025#1")
	s := newTestGitHubStore(t, fake)
	ctx := context.Background()

	addr := SummaryAddress(testWeek)
	require.NoError(t, s.Write(ctx, addr, []byte("# 5 Trends Knowledge Base Summary")))

	assert.Equal(t, []string{"sha-release/2025#1"}, fake.bases)
	assert.Equal(t, "# 5 Trends Knowledge Base Summary", fake.files["trends/2025-W05-summary"]["trends/2025-W05/Summary.md"])
	require.Contains(t, fake.pulls, "trends/2025-W05-summary")
	assert.Equal(t, "release/2025#1", fake.pulls["trends/2025-W05-summary"]["base"])
}

func TestGitHubStoreReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	s, err := NewGitHubStore(config.GitHubStoreConfig{Owner: "acme", Repo: "trends", Token: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	_, found, err := s.Read(context.Background(), PostsAddress(testWeek, models.AreaBackend))
	assert.Error(t, err)
	assert.False(t, found)
}
