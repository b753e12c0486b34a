package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"tech-trends/config"
	"tech-trends/models"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// RSSSource reads per-area RSS/Atom feeds. Items whose body is too short
// are completed by fetching the linked article and extracting its text.
type RSSSource struct {
	client    *http.Client
	parser    *gofeed.Parser
	feeds     map[string][]string
	minLength int
	delay     time.Duration
	now       func() time.Time
}

func NewRSSSource(cfg config.CollectorConfig) *RSSSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RSSSource{
		client:    &http.Client{Timeout: timeout},
		parser:    gofeed.NewParser(),
		feeds:     cfg.Feeds,
		minLength: cfg.MinContentLength,
		delay:     cfg.RequestDelay,
		now:       time.Now,
	}
}

func (r *RSSSource) SearchPosts(ctx context.Context, area models.Area, maxResults int) ([]models.Post, error) {
	urls := r.feeds[area.Slug()]
	if len(urls) == 0 {
		config.Logger.Warnf("rss: no feeds configured for %s", area)
		return nil, nil
	}

	var all []models.Post
	var failures int
	for i, u := range urls {
		if i > 0 && r.delay > 0 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		posts, err := r.collectFeed(ctx, u, area)
		if err != nil {
			failures++
			config.ErrorWithFields("rss feed failed", config.Fields{"feed": u, "area": area, "error": err.Error()})
			continue
		}
		all = append(all, posts...)
		if maxResults > 0 && len(all) >= maxResults {
			break
		}
	}
	if failures == len(urls) {
		return nil, fmt.Errorf("all %d feeds for %s failed", failures, area)
	}
	return Limit(Dedupe(all), maxResults), nil
}

func (r *RSSSource) collectFeed(ctx context.Context, feedURL string, area models.Area) ([]models.Post, error) {
	body, err := r.get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := r.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feedURL, err)
	}

	var posts []models.Post
	for _, item := range feed.Items {
		link := item.Link
		if link == "" && len(item.Links) > 0 {
			link = item.Links[0]
		}
		if link == "" {
			continue
		}

		content := HTMLToText(item.Content)
		if content == "" {
			content = HTMLToText(item.Description)
		}
		if len([]rune(content)) < r.minLength {
			if text, err := r.fetchArticle(ctx, link); err == nil {
				content = text
			} else {
				config.Logger.Debugf("rss: article extraction failed for %s: %v", link, err)
			}
		}
		if len([]rune(content)) < r.minLength {
			continue
		}
		if item.Title != "" && !strings.HasPrefix(content, item.Title) {
			content = item.Title + "\n\n" + content
		}

		published := r.now().UTC()
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.UTC()
		}

		author := feed.Title
		if item.Author != nil && item.Author.Name != "" {
			author = item.Author.Name
		}

		posts = append(posts, models.Post{
			ID:          PostID(link),
			Content:     content,
			Author:      author,
			PublishedAt: published,
			Engagement:  models.Engagement{Comments: slashComments(item)},
			URL:         link,
			Area:        string(area),
		})
	}
	return posts, nil
}

func (r *RSSSource) fetchArticle(ctx context.Context, link string) (string, error) {
	body, err := r.get(ctx, link)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 5<<20))
	if err != nil {
		return "", err
	}
	return ExtractText(string(data))
}

func (r *RSSSource) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", u, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	return resp.Body, nil
}

// slashComments reads the slash:comments extension many blog feeds carry.
func slashComments(item *gofeed.Item) int {
	ext, ok := item.Extensions["slash"]
	if !ok {
		return 0
	}
	for _, e := range ext["comments"] {
		if n, err := strconv.Atoi(strings.TrimSpace(e.Value)); err == nil {
			return n
		}
	}
	return 0
}
