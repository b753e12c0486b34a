package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeepsScoringConstants(t *testing.T) {
	c := Default()
	assert.Equal(t, 1.0, c.Scoring.LikeWeight)
	assert.Equal(t, 2.0, c.Scoring.CommentWeight)
	assert.Equal(t, 3.0, c.Scoring.ShareWeight)
	assert.Equal(t, 10, c.Scoring.ReferencePostLimit)
	assert.Equal(t, 500, c.Monthly.ExcerptLength)
	assert.Len(t, c.Collector.Keywords, 8)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CONFIG_FILE)
	data := `
logging:
  level: debug
collector:
  kind: rss
  request_delay: 500ms
  feeds:
    back-end:
      - https://example.com/feed.xml
store:
  backend: sqlite
  sqlite:
    path: /tmp/x.db
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, "rss", c.Collector.Kind)
	assert.Equal(t, 500*time.Millisecond, c.Collector.RequestDelay)
	assert.Equal(t, []string{"https://example.com/feed.xml"}, c.Collector.Feeds["back-end"])
	assert.Equal(t, "sqlite", c.Store.Backend)
	assert.Equal(t, "/tmp/x.db", c.Store.SQLite.Path)
	// untouched sections keep their defaults
	assert.Equal(t, 20, c.Collector.MaxPostsPerArea)
	assert.Equal(t, "0 7 * * 0", c.Schedule.Weekly)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key-123")
	t.Setenv("STORE_BACKEND", "github")
	t.Setenv("GITHUB_TOKEN", "tok")
	t.Setenv("GITHUB_REPO_OWNER", "")
	t.Setenv("GITHUB_REPO_NAME", "")
	t.Setenv("GITHUB_REPOSITORY", "acme/trends")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "key-123", c.LLM.APIKey)
	assert.Equal(t, "github", c.Store.Backend)
	assert.Equal(t, "tok", c.Store.GitHub.Token)
	assert.Equal(t, "acme", c.Store.GitHub.Owner)
	assert.Equal(t, "trends", c.Store.GitHub.Repo)
}

func TestExplicitOwnerWinsOverRepository(t *testing.T) {
	t.Setenv("GITHUB_REPO_OWNER", "me")
	t.Setenv("GITHUB_REPO_NAME", "mine")
	t.Setenv("GITHUB_REPOSITORY", "acme/trends")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "me", c.Store.GitHub.Owner)
	assert.Equal(t, "mine", c.Store.GitHub.Repo)
}
