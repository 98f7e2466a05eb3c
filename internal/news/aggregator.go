package news

import (
	"context"
	"strings"
	"sync"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/store"
	"tw-stock-advisor/internal/types"
)

// Tagger attributes a headline to a known publisher.
type Tagger struct {
	publishers []store.Publisher
	fallback   string
}

func NewTagger(publishers []store.Publisher, fallback string) *Tagger {
	return &Tagger{publishers: publishers, fallback: fallback}
}

// Tag matches the link first, then the feed's <source url>.
func (t *Tagger) Tag(link, sourceURL string) string {
	for _, candidate := range []string{link, sourceURL} {
		if candidate == "" {
			continue
		}
		lower := strings.ToLower(candidate)
		for _, p := range t.publishers {
			if strings.Contains(lower, strings.ToLower(p.Match)) {
				return p.Tag
			}
		}
	}
	return t.fallback
}

// Aggregator pairs the domestic and international feeds.
type Aggregator struct {
	Domestic      interfaces.NewsFeed
	International interfaces.NewsFeed
}

func NewAggregator(domestic, international interfaces.NewsFeed) *Aggregator {
	return &Aggregator{Domestic: domestic, International: international}
}

// NewAggregatorFromConfig wires both RSS feeds from configuration.
func NewAggregatorFromConfig(cfg *store.Config) *Aggregator {
	tagger := NewTagger(cfg.News.Publishers, cfg.News.DefaultTag)
	return NewAggregator(
		NewRSSFeed(cfg.News.BaseURL, cfg.News.Domestic, cfg.News.Cap, cfg.Timeouts.News, tagger),
		NewRSSFeed(cfg.News.BaseURL, cfg.News.International, cfg.News.Cap, cfg.Timeouts.News, tagger),
	)
}

// Collect queries both feeds concurrently and merges the results.
func (a *Aggregator) Collect(ctx context.Context, ticker, displayName string) types.NewsLists {
	var domestic, international []types.NewsItem
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		domestic = a.Domestic.Fetch(ctx, ticker, displayName)
	}()
	go func() {
		defer wg.Done()
		international = a.International.Fetch(ctx, ticker, displayName)
	}()
	wg.Wait()
	return Merge(domestic, international)
}

// Merge returns NoCoverage when both lists are empty.
func Merge(domestic, international []types.NewsItem) types.NewsLists {
	if len(domestic) == 0 && len(international) == 0 {
		return types.NoCoverage
	}
	if domestic == nil {
		domestic = []types.NewsItem{}
	}
	if international == nil {
		international = []types.NewsItem{}
	}
	return types.NewsLists{Domestic: domestic, International: international}
}
