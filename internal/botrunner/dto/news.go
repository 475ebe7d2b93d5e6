package dto

import "time"

// NewsItem is one entry read from a source feed.
type NewsItem struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Source      string     `json:"source"`
	Description string     `json:"description,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// HotTopic is a cluster of items reported by several distinct sources.
type HotTopic struct {
	Title       string     `json:"title"`
	Items       []NewsItem `json:"items"`
	SourceCount int        `json:"source_count"`
}

// URLs returns up to n distinct item links.
func (t HotTopic) URLs(n int) []string {
	seen := make(map[string]struct{}, len(t.Items))
	urls := make([]string, 0, n)
	for _, item := range t.Items {
		if len(urls) >= n {
			break
		}
		if item.Link == "" {
			continue
		}
		if _, ok := seen[item.Link]; ok {
			continue
		}
		seen[item.Link] = struct{}{}
		urls = append(urls, item.Link)
	}
	return urls
}
