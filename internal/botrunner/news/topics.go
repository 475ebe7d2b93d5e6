package news

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
)

// TopicDetector groups news items into hot topics.
type TopicDetector interface {
	DetectHotTopics(items []dto.NewsItem, minSources, windowHours int) []dto.HotTopic
}

const (
	minSharedTokens = 2
	overlapRatio    = 0.5
	minTokenLength  = 3
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "that": {}, "this": {},
	"are": {}, "was": {}, "will": {}, "has": {}, "have": {}, "after": {}, "over": {},
	"into": {}, "about": {}, "new": {}, "says": {}, "said": {}, "its": {}, "but": {},
	"not": {}, "who": {}, "what": {}, "how": {}, "why": {}, "amid": {}, "more": {},
	"than": {}, "out": {}, "off": {}, "his": {}, "her": {}, "their": {}, "they": {},
	"been": {}, "could": {}, "would": {}, "may": {}, "live": {}, "news": {},
}

type overlapDetector struct {
	now func() time.Time
}

// NewTopicDetector clusters items whose titles share enough significant words.
func NewTopicDetector() TopicDetector {
	return &overlapDetector{now: time.Now}
}

type cluster struct {
	tokens  map[string]struct{}
	items   []dto.NewsItem
	sources map[string]struct{}
	latest  time.Time
}

// DetectHotTopics keeps items published within the last windowHours, clusters
// them by title similarity and returns clusters seen in at least minSources
// distinct sources, most widely reported first. Undated items are kept.
func (d *overlapDetector) DetectHotTopics(items []dto.NewsItem, minSources, windowHours int) []dto.HotTopic {
	if minSources < 1 {
		minSources = 1
	}
	var cutoff time.Time
	if windowHours > 0 {
		cutoff = d.now().Add(-time.Duration(windowHours) * time.Hour)
	}

	var clusters []*cluster
	for _, item := range items {
		if item.PublishedAt != nil && !cutoff.IsZero() && item.PublishedAt.Before(cutoff) {
			continue
		}
		tokens := tokenize(item.Title)
		if len(tokens) == 0 {
			continue
		}

		target := findCluster(clusters, tokens)
		if target == nil {
			target = &cluster{tokens: tokens, sources: map[string]struct{}{}}
			clusters = append(clusters, target)
		}
		target.items = append(target.items, item)
		target.sources[strings.ToLower(item.Source)] = struct{}{}
		if item.PublishedAt != nil && item.PublishedAt.After(target.latest) {
			target.latest = *item.PublishedAt
		}
	}

	topics := make([]dto.HotTopic, 0)
	latest := make(map[int]time.Time)
	for _, c := range clusters {
		if len(c.sources) < minSources {
			continue
		}
		latest[len(topics)] = c.latest
		topics = append(topics, dto.HotTopic{
			Title:       c.items[0].Title,
			Items:       c.items,
			SourceCount: len(c.sources),
		})
	}

	idx := make([]int, len(topics))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ta, tb := topics[idx[a]], topics[idx[b]]
		if ta.SourceCount != tb.SourceCount {
			return ta.SourceCount > tb.SourceCount
		}
		return latest[idx[a]].After(latest[idx[b]])
	})

	sorted := make([]dto.HotTopic, 0, len(topics))
	for _, i := range idx {
		sorted = append(sorted, topics[i])
	}
	return sorted
}

func findCluster(clusters []*cluster, tokens map[string]struct{}) *cluster {
	for _, c := range clusters {
		if similar(c.tokens, tokens) {
			return c
		}
	}
	return nil
}

func similar(a, b map[string]struct{}) bool {
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	if shared < minSharedTokens {
		return false
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(shared)/float64(smaller) >= overlapRatio
}

func tokenize(title string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len([]rune(w)) < minTokenLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		tokens[w] = struct{}{}
	}
	return tokens
}
