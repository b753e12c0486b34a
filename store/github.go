package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v66/github"

	"tech-trends/config"
)

// GitHubStore publishes artifacts as commits in a GitHub repository. Each
// artifact group lives on its own branch and markdown documents are offered
// for review through a pull request against the default branch.
type GitHubStore struct {
	owner  string
	repo   string
	layout Layout
	client *github.Client

	mu            sync.Mutex
	defaultBranch string
}

func NewGitHubStore(cfg config.GitHubStoreConfig) (*GitHubStore, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("github store requires owner and repo")
	}
	if cfg.Token == "" {
		return nil, errors.New("github store requires a token (GITHUB_TOKEN)")
	}
	client := github.NewClient(&http.Client{Timeout: 30 * time.Second}).WithAuthToken(cfg.Token)
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" && base != "https://api.github.com" {
		u, err := url.Parse(base + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = u
	}
	layout := DefaultLayout
	if cfg.DataDir != "" {
		layout.DataDir = cfg.DataDir
	}
	if cfg.DocsDir != "" {
		layout.DocsDir = cfg.DocsDir
	}
	return &GitHubStore{
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		layout: layout,
		client: client,
	}, nil
}

// BranchFor names the branch an artifact is committed to.
func BranchFor(a Address) string {
	switch a.Kind {
	case KindSummary:
		return fmt.Sprintf("trends/%s-summary", a.Period())
	case KindRecommendations:
		return fmt.Sprintf("trends/%s-recommendations", a.Period())
	default:
		return fmt.Sprintf("trends/%s-%s", a.Period(), a.Area.Slug())
	}
}

// PullRequestTitle is the review title for a markdown artifact.
func PullRequestTitle(a Address) string {
	switch a.Kind {
	case KindSummary:
		return fmt.Sprintf("%d Trends Knowledge Base Summary", a.Week.Number)
	case KindRecommendations:
		return fmt.Sprintf("%s %d Recommended Actions", a.Month.Month, a.Month.Year)
	default:
		return fmt.Sprintf("%d-%s Trends", a.Week.Number, a.Area)
	}
}

func pullRequestBody(a Address) string {
	switch a.Kind {
	case KindSummary:
		return fmt.Sprintf("Weekly summary of all analyzed tech trends for week %d, %d.", a.Week.Number, a.Week.Year)
	case KindRecommendations:
		return fmt.Sprintf("Recommended actions for %s %d based on the weekly trend summaries.", a.Month.Month, a.Month.Year)
	default:
		return fmt.Sprintf("Tech trends analysis for **%s** in week %d, %d.", a.Area, a.Week.Number, a.Week.Year)
	}
}

// Read looks on the artifact branch first and falls back to the default branch.
func (s *GitHubStore) Read(ctx context.Context, addr Address) ([]byte, bool, error) {
	if err := addr.Validate(); err != nil {
		return nil, false, err
	}
	p := s.layout.Path(addr)
	content, _, err := s.getContent(ctx, p, BranchFor(addr))
	if err == nil {
		return content, true, nil
	}
	if !isNotFound(err) {
		return nil, false, fmt.Errorf("read %s: %w", addr, err)
	}
	def, err := s.getDefaultBranch(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", addr, err)
	}
	content, _, err = s.getContent(ctx, p, def)
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", addr, err)
	}
	return content, true, nil
}

func (s *GitHubStore) Write(ctx context.Context, addr Address, content []byte) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	branch := BranchFor(addr)
	if err := s.ensureBranch(ctx, branch); err != nil {
		return fmt.Errorf("write %s: %w", addr, err)
	}

	p := s.layout.Path(addr)
	existing, sha, err := s.getContent(ctx, p, branch)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("write %s: %w", addr, err)
	}
	switch {
	case err == nil && bytes.Equal(existing, content):
		config.Logger.Debugf("github: %s unchanged on %s", p, branch)
	case err == nil:
		opts := &github.RepositoryContentFileOptions{
			Message: github.String("Update " + p),
			Content: content,
			SHA:     github.String(sha),
			Branch:  github.String(branch),
		}
		if _, _, err := s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, p, opts); err != nil {
			return fmt.Errorf("write %s: %w", addr, err)
		}
	default:
		opts := &github.RepositoryContentFileOptions{
			Message: github.String("Add " + p),
			Content: content,
			Branch:  github.String(branch),
		}
		if _, _, err := s.client.Repositories.CreateFile(ctx, s.owner, s.repo, p, opts); err != nil {
			return fmt.Errorf("write %s: %w", addr, err)
		}
	}

	if addr.IsData() {
		return nil
	}
	if err := s.ensurePullRequest(ctx, addr, branch); err != nil {
		return fmt.Errorf("pull request for %s: %w", addr, err)
	}
	return nil
}

// isNotFound reports a 404 from the GitHub API.
func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

func (s *GitHubStore) getDefaultBranch(ctx context.Context) (string, error) {
	s.mu.Lock()
	cached := s.defaultBranch
	s.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	repo, _, err := s.client.Repositories.Get(ctx, s.owner, s.repo)
	if err != nil {
		return "", err
	}
	def := repo.GetDefaultBranch()
	if def == "" {
		def = "main"
	}
	s.mu.Lock()
	s.defaultBranch = def
	s.mu.Unlock()
	return def, nil
}

func (s *GitHubStore) ensureBranch(ctx context.Context, branch string) error {
	_, _, err := s.client.Git.GetRef(ctx, s.owner, s.repo, "refs/heads/"+branch)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	def, err := s.getDefaultBranch(ctx)
	if err != nil {
		return err
	}
	base, _, err := s.client.Git.GetRef(ctx, s.owner, s.repo, "refs/heads/"+def)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", def, err)
	}
	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(base.GetObject().GetSHA())},
	}
	if _, _, err := s.client.Git.CreateRef(ctx, s.owner, s.repo, ref); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	config.Logger.Infof("github: created branch %s from %s", branch, def)
	return nil
}

func (s *GitHubStore) getContent(ctx context.Context, p, ref string) ([]byte, string, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, p, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, "", err
	}
	if file == nil {
		return nil, "", fmt.Errorf("%s is a directory", p)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", p, err)
	}
	return []byte(content), file.GetSHA(), nil
}

func (s *GitHubStore) ensurePullRequest(ctx context.Context, addr Address, branch string) error {
	def, err := s.getDefaultBranch(ctx)
	if err != nil {
		return err
	}
	title := PullRequestTitle(addr)
	body := pullRequestBody(addr)

	open, _, err := s.client.PullRequests.List(ctx, s.owner, s.repo, &github.PullRequestListOptions{
		State: "open",
		Head:  s.owner + ":" + branch,
	})
	if err != nil {
		return err
	}
	if len(open) > 0 {
		number := open[0].GetNumber()
		update := &github.PullRequest{Title: github.String(title), Body: github.String(body)}
		if _, _, err := s.client.PullRequests.Edit(ctx, s.owner, s.repo, number, update); err != nil {
			return err
		}
		config.Logger.Infof("github: updated PR #%d %s", number, title)
		return nil
	}

	created, _, err := s.client.PullRequests.Create(ctx, s.owner, s.repo, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(branch),
		Base:  github.String(def),
		Body:  github.String(body),
	})
	if err != nil {
		return err
	}
	config.Logger.Infof("github: opened PR #%d %s %s", created.GetNumber(), title, created.GetHTMLURL())
	return nil
}
