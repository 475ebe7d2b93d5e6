package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/config"
	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
)

// Fetcher reads news items from a set of source feeds.
type Fetcher interface {
	FetchSources(ctx context.Context, urls []string) ([]dto.NewsItem, error)
}

type rssFetcher struct {
	parser *gofeed.Parser
	cache  *cache.Cache
	logger *logger.Logger
}

// NewRSSFetcher creates a feed fetcher. Parsed feeds are cached per URL for cfg.FeedCacheTTL.
func NewRSSFetcher(cfg config.News, log *logger.Logger) Fetcher {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ttl := cfg.FeedCacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = cfg.UserAgent

	return &rssFetcher{
		parser: parser,
		cache:  cache.New(ttl, 2*ttl),
		logger: log,
	}
}

// FetchSources fetches every feed. A failing feed is logged and skipped; an
// error is returned only when no feed could be read.
func (f *rssFetcher) FetchSources(ctx context.Context, urls []string) ([]dto.NewsItem, error) {
	var (
		items   []dto.NewsItem
		lastErr error
		okCount int
	)

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		feedItems, err := f.fetchFeed(ctx, u)
		if err != nil {
			lastErr = err
			f.logger.Warn("Failed to fetch news source", logger.StringField("url", u), logger.ErrorField(err))
			continue
		}
		okCount++
		items = append(items, feedItems...)
	}

	if okCount == 0 && lastErr != nil {
		return nil, fmt.Errorf("failed to fetch any news source: %w", lastErr)
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})

	return items, nil
}

func (f *rssFetcher) fetchFeed(ctx context.Context, feedURL string) ([]dto.NewsItem, error) {
	if cached, ok := f.cache.Get(feedURL); ok {
		return cached.([]dto.NewsItem), nil
	}

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	if feed == nil {
		return nil, errors.New("empty feed")
	}

	source := sourceName(feed.Title, feedURL)
	items := make([]dto.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || strings.TrimSpace(it.Title) == "" {
			continue
		}
		item := dto.NewsItem{
			Title:       strings.TrimSpace(it.Title),
			Link:        it.Link,
			Source:      source,
			Description: stripHTML(it.Description),
		}
		if it.PublishedParsed != nil {
			t := it.PublishedParsed.UTC()
			item.PublishedAt = &t
		} else if it.UpdatedParsed != nil {
			t := it.UpdatedParsed.UTC()
			item.PublishedAt = &t
		}
		items = append(items, item)
	}

	f.cache.SetDefault(feedURL, items)
	return items, nil
}

func sourceName(title, feedURL string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	if parsed, err := url.Parse(feedURL); err == nil && parsed.Host != "" {
		return strings.TrimPrefix(parsed.Host, "www.")
	}
	return feedURL
}

func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
