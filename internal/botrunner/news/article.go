package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/config"
	"github.com/komapc/daatan-sub000/pkg/logger"
	"github.com/komapc/daatan-sub000/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
)

const (
	MaxExcerptLength = 1500
	maxArticleBytes  = 2 << 20
)

// ArticleExtractor returns the readable text of an article page.
type ArticleExtractor interface {
	Excerpt(ctx context.Context, articleURL string) (string, error)
}

type readabilityExtractor struct {
	client    *http.Client
	userAgent string
	logger    *logger.Logger
}

func NewReadabilityExtractor(cfg config.News, log *logger.Logger) ArticleExtractor {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &readabilityExtractor{
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		logger:    log,
	}
}

func (e *readabilityExtractor) Excerpt(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for article: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch article, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read article body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	docHTML, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Content()))
	if err != nil {
		return "", fmt.Errorf("failed to parse article content: %w", err)
	}

	text := strings.Join(strings.Fields(docHTML.Text()), " ")
	e.logger.Debug("Extracted article excerpt", logger.StringField("url", articleURL), logger.IntField("length", len(text)))

	return utils.Truncate(text, MaxExcerptLength), nil
}
