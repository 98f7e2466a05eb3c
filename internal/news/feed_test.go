package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tw-stock-advisor/internal/store"
	"tw-stock-advisor/internal/types"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>search</title>
<item>
  <title>台積電法說會釋利多 - 鉅亨網</title>
  <link>https://news.cnyes.com/news/id/1</link>
  <source url="https://news.cnyes.com">鉅亨網</source>
</item>
<item>
  <title>外資連三買 &lt;b&gt;台積電&lt;/b&gt; - 工商時報</title>
  <link>https://news.google.com/rss/articles/abc</link>
  <source url="https://www.ctee.com.tw">工商時報</source>
</item>
<item>
  <title>第三則不應出現 - 經濟日報</title>
  <link>https://money.udn.com/x</link>
</item>
</channel></rss>`

func rssServer(t *testing.T, status int, body string, delay time.Duration) (*httptest.Server, *url.URL) {
	t.Helper()
	seen := new(url.URL)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = *r.URL
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func testTagger() *Tagger {
	return NewTagger(store.Default().News.Publishers, "權威媒體")
}

func TestRSSFeedQuery(t *testing.T) {
	cfg := store.Default()

	domestic := NewRSSFeed(cfg.News.BaseURL, cfg.News.Domestic, 2, time.Second, testTagger())
	assert.Equal(t,
		"(2330 OR 台積電) (site:cnyes.com OR site:moneydj.com OR site:ctee.com.tw OR site:udn.com OR site:bnext.com.tw) when:1d",
		domestic.Query("2330", "台積電"))
	assert.Equal(t,
		"2330 (site:cnyes.com OR site:moneydj.com OR site:ctee.com.tw OR site:udn.com OR site:bnext.com.tw) when:1d",
		domestic.Query("2330", ""))

	intl := NewRSSFeed(cfg.News.BaseURL, cfg.News.International, 2, time.Second, testTagger())
	assert.Equal(t,
		"2330 Taiwan (site:reuters.com OR site:bloomberg.com OR site:cnbc.com OR site:wsj.com) when:1d",
		intl.Query("2330", "台積電"))
	assert.Contains(t, intl.URL("2330", ""), "https://news.google.com/rss/search?")
	assert.Contains(t, intl.URL("2330", ""), "hl=en-US")
}

func TestRSSFeedFetch(t *testing.T) {
	srv, seen := rssServer(t, http.StatusOK, rssBody, 0)
	cfg := store.Default()
	feed := NewRSSFeed(srv.URL, cfg.News.Domestic, 2, time.Second, testTagger())

	items := feed.Fetch(context.Background(), "2330", "台積電")

	require.Len(t, items, 2)
	assert.Equal(t, types.NewsItem{SourceTag: "鉅亨網", Title: "台積電法說會釋利多", Link: "https://news.cnyes.com/news/id/1"}, items[0])
	assert.Equal(t, "外資連三買 台積電", items[1].Title)
	assert.Equal(t, "工商時報", items[1].SourceTag, "attributed through <source url>")
	assert.Equal(t, "/rss/search", seen.Path)
	assert.Equal(t, "zh-TW", seen.Query().Get("hl"))
	assert.Contains(t, seen.Query().Get("q"), "when:1d")
}

func TestRSSFeedFailuresYieldEmptyList(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		delay   time.Duration
		timeout time.Duration
	}{
		{"server error", http.StatusInternalServerError, "boom", 0, time.Second},
		{"not found", http.StatusNotFound, "", 0, time.Second},
		{"timeout", http.StatusOK, rssBody, 500 * time.Millisecond, 50 * time.Millisecond},
		{"no items", http.StatusOK, `<rss><channel></channel></rss>`, 0, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := rssServer(t, tt.status, tt.body, tt.delay)
			feed := NewRSSFeed(srv.URL, store.Default().News.International, 2, tt.timeout, testTagger())

			items := feed.Fetch(context.Background(), "2330", "")
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestRSSFeedCancelledContext(t *testing.T) {
	srv, _ := rssServer(t, http.StatusOK, rssBody, 0)
	feed := NewRSSFeed(srv.URL, store.Default().News.Domestic, 2, time.Second, testTagger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, feed.Fetch(ctx, "2330", ""))
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"台積電大漲 - 經濟日報", "台積電大漲"},
		{"TSMC beats estimates - Reuters - Extra", "TSMC beats estimates"},
		{"  <b>Bold</b>   headline  ", "Bold headline"},
		{"No suffix", "No suffix"},
		{"Dash-inside-word stays", "Dash-inside-word stays"},
		{"Index rises as P<E narrows - CNBC", "Index rises as P<E narrows"},
		{"Yields < 2% & falling", "Yields < 2% & falling"},
		{"<b>Bold</b> & co - WSJ", "Bold & co"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanTitle(tt.in))
	}
}
