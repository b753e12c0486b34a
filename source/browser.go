package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"tech-trends/config"
	"tech-trends/models"
)

// BrowserSource searches a social platform by keyword in a headless Chrome
// and scrapes the rendered result list.
type BrowserSource struct {
	cfg config.CollectorConfig
	now func() time.Time
}

func NewBrowserSource(cfg config.CollectorConfig) *BrowserSource {
	return &BrowserSource{cfg: cfg, now: time.Now}
}

// rawPost is what extractPostsJS returns per search result.
type rawPost struct {
	Content   string `json:"content"`
	Author    string `json:"author"`
	AuthorURL string `json:"authorUrl"`
	Date      string `json:"date"`
	Likes     int    `json:"likes"`
	Comments  int    `json:"comments"`
	Shares    int    `json:"shares"`
	URL       string `json:"url"`
}

const extractPostsJS = `
(function(max) {
	const num = (el) => {
		const label = el ? (el.getAttribute('aria-label') || el.textContent || '') : '';
		const m = label.replace(/,/g, '').match(/\d+/);
		return m ? parseInt(m[0], 10) : 0;
	};
	const results = [];
	const items = Array.from(document.querySelectorAll('[data-testid="search-result"], .feed-shared-update-v2')).slice(0, max);
	for (const el of items) {
		try {
			const contentEl = el.querySelector('.feed-shared-text') || el.querySelector('.update-components-text');
			const content = (contentEl && contentEl.textContent || '').trim();
			const authorEl = el.querySelector('.feed-shared-actor__name') || el.querySelector('.update-components-actor__name');
			const authorLink = el.querySelector('a[href*="/in/"]');
			const postLink = el.querySelector('a[href*="/posts/"], a[href*="/activity-"]');
			const dateEl = el.querySelector('time, .feed-shared-actor__sub-description, .update-components-actor__sub-description');
			results.push({
				content: content,
				author: (authorEl && authorEl.textContent || '').trim(),
				authorUrl: authorLink ? authorLink.href : '',
				date: dateEl ? (dateEl.getAttribute('datetime') || dateEl.textContent || '').trim() : '',
				likes: num(el.querySelector('[aria-label*="like"], [aria-label*="Like"], [aria-label*="reaction"]')),
				comments: num(el.querySelector('[aria-label*="comment"], [aria-label*="Comment"]')),
				shares: num(el.querySelector('[aria-label*="share"], [aria-label*="Share"], [aria-label*="repost"]')),
				url: postLink ? postLink.href : '',
			});
		} catch (e) {}
	}
	return results;
})(%d)
`

func (b *BrowserSource) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-extensions", true),
	)
	if b.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.ChromePath))
	}
	return opts
}

// SearchPosts runs one search per keyword, stopping early once enough posts
// were found. A failing keyword is logged and skipped; a login wall aborts
// the whole search with ErrAuthRequired.
func (b *BrowserSource) SearchPosts(ctx context.Context, area models.Area, maxResults int) ([]models.Post, error) {
	keywords := KeywordsFor(b.cfg, area, b.cfg.KeywordsPerArea)
	perKeyword := 20
	if maxResults > 0 {
		perKeyword = (maxResults + len(keywords) - 1) / len(keywords)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancel()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var all []models.Post
	for i, kw := range keywords {
		if i > 0 && b.cfg.RequestDelay > 0 {
			select {
			case <-time.After(b.cfg.RequestDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		posts, err := b.searchByKeyword(browserCtx, kw, area, perKeyword)
		if err != nil {
			if errors.Is(err, ErrAuthRequired) {
				return nil, fmt.Errorf("search %q: %w", kw, err)
			}
			config.ErrorWithFields("keyword search failed", config.Fields{"keyword": kw, "area": area, "error": err.Error()})
			continue
		}
		config.DebugWithFields("keyword search done", config.Fields{"keyword": kw, "area": area, "posts": len(posts)})
		all = append(all, posts...)
		if maxResults > 0 && len(all) >= maxResults {
			break
		}
	}
	return Limit(Dedupe(all), maxResults), nil
}

func (b *BrowserSource) searchByKeyword(browserCtx context.Context, keyword string, area models.Area, limit int) ([]models.Post, error) {
	timeout := b.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// 탭 하나당 타임아웃. 스크롤 대기 시간을 포함한다.
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()
	tabCtx, cancel = context.WithTimeout(tabCtx, timeout+10*time.Second)
	defer cancel()

	searchURL := fmt.Sprintf(b.cfg.SearchURL, url.QueryEscape(keyword))

	var location string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(3*time.Second),
		chromedp.Location(&location),
	); err != nil {
		return nil, err
	}
	if isLoginWall(location) {
		return nil, ErrAuthRequired
	}

	for i := 0; i < 3; i++ {
		if err := chromedp.Run(tabCtx,
			chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil),
			chromedp.Sleep(2*time.Second),
		); err != nil {
			return nil, err
		}
	}

	var raws []rawPost
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(fmt.Sprintf(extractPostsJS, limit), &raws)); err != nil {
		return nil, fmt.Errorf("extract posts: %w", err)
	}

	now := b.now()
	var posts []models.Post
	for _, raw := range raws {
		if p, ok := toPost(raw, area, b.cfg.MinContentLength, now); ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func isLoginWall(location string) bool {
	l := strings.ToLower(location)
	return strings.Contains(l, "/login") || strings.Contains(l, "/authwall") || strings.Contains(l, "/checkpoint")
}

// toPost normalizes a scraped result. Results without a url or with too
// little content are dropped.
func toPost(raw rawPost, area models.Area, minLength int, now time.Time) (models.Post, bool) {
	content := strings.TrimSpace(raw.Content)
	if content == "" || len([]rune(content)) < minLength {
		return models.Post{}, false
	}
	if raw.URL == "" {
		return models.Post{}, false
	}
	author := strings.TrimSpace(raw.Author)
	if author == "" {
		author = "Unknown"
	}
	return models.Post{
		ID:          PostID(raw.URL),
		Content:     content,
		Author:      author,
		AuthorURL:   raw.AuthorURL,
		PublishedAt: ParseRelativeDate(raw.Date, now).UTC(),
		Engagement: models.Engagement{
			Likes:    raw.Likes,
			Comments: raw.Comments,
			Shares:   raw.Shares,
		},
		URL:  raw.URL,
		Area: string(area),
	}, true
}
