package news

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"tw-stock-advisor/internal/types"
)

type stubFeed struct {
	name  string
	items []types.NewsItem
}

func (s stubFeed) Name() string { return s.name }

func (s stubFeed) Fetch(context.Context, string, string) []types.NewsItem { return s.items }

func TestTagger(t *testing.T) {
	tagger := testTagger()

	tests := []struct {
		name, link, source, want string
	}{
		{"link match", "https://news.cnyes.com/a", "", "鉅亨網"},
		{"link beats source", "https://www.reuters.com/x", "https://www.bloomberg.com", "Reuters"},
		{"source fallback", "https://news.google.com/rss/articles/1", "https://www.bloomberg.com", "Bloomberg"},
		{"case insensitive", "https://WWW.MONEYDJ.COM/a", "", "MoneyDJ"},
		{"default", "https://example.com/a", "https://example.org", "權威媒體"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tagger.Tag(tt.link, tt.source))
		})
	}
}

func TestMerge(t *testing.T) {
	item := types.NewsItem{SourceTag: "Reuters", Title: "t", Link: "l"}

	none := Merge(nil, []types.NewsItem{})
	assert.True(t, none.IsNoCoverage())
	assert.Equal(t, types.NoCoverage, none)

	oneSide := Merge(nil, []types.NewsItem{item})
	assert.False(t, oneSide.IsNoCoverage())
	assert.NotNil(t, oneSide.Domestic)
	assert.Empty(t, oneSide.Domestic)
	assert.Equal(t, []types.NewsItem{item}, oneSide.International)
}

func TestAggregatorCollect(t *testing.T) {
	dom := stubFeed{name: "domestic", items: []types.NewsItem{{SourceTag: "鉅亨網", Title: "a", Link: "x"}}}
	intl := stubFeed{name: "international"}

	got := NewAggregator(dom, intl).Collect(context.Background(), "2330", "")
	assert.False(t, got.IsNoCoverage())
	assert.Len(t, got.Domestic, 1)
	assert.Empty(t, got.International)

	empty := NewAggregator(stubFeed{}, stubFeed{}).Collect(context.Background(), "2330", "")
	assert.True(t, empty.IsNoCoverage())
}
