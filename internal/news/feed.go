package news

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/store"
	"tw-stock-advisor/internal/types"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// RSSFeed queries a Google News RSS search restricted to an allow-list of publishers.
type RSSFeed struct {
	baseURL string
	cfg     store.FeedConfig
	cap     int
	timeout time.Duration
	tagger  *Tagger
}

var _ interfaces.NewsFeed = (*RSSFeed)(nil)

func NewRSSFeed(baseURL string, cfg store.FeedConfig, limit int, timeout time.Duration, tagger *Tagger) *RSSFeed {
	return &RSSFeed{
		baseURL: strings.TrimRight(baseURL, "/"),
		cfg:     cfg,
		cap:     limit,
		timeout: timeout,
		tagger:  tagger,
	}
}

func (f *RSSFeed) Name() string { return f.cfg.Name }

// Query renders the search expression, e.g. `2330 Taiwan (site:a OR site:b) when:1d`.
func (f *RSSFeed) Query(ticker, displayName string) string {
	parts := make([]string, 0, 4)
	if f.cfg.IncludeName && displayName != "" {
		parts = append(parts, fmt.Sprintf("(%s OR %s)", ticker, displayName))
	} else {
		parts = append(parts, ticker)
	}
	if f.cfg.Keywords != "" {
		parts = append(parts, f.cfg.Keywords)
	}
	if len(f.cfg.Sites) > 0 {
		sites := make([]string, len(f.cfg.Sites))
		for i, s := range f.cfg.Sites {
			sites[i] = "site:" + s
		}
		parts = append(parts, "("+strings.Join(sites, " OR ")+")")
	}
	if f.cfg.Recency != "" {
		parts = append(parts, "when:"+f.cfg.Recency)
	}
	return strings.Join(parts, " ")
}

// URL is the full RSS search URL for a ticker.
func (f *RSSFeed) URL(ticker, displayName string) string {
	v := url.Values{}
	v.Set("q", f.Query(ticker, displayName))
	v.Set("hl", f.cfg.HL)
	v.Set("gl", f.cfg.GL)
	v.Set("ceid", f.cfg.CEID)
	return f.baseURL + "/rss/search?" + v.Encode()
}

// Fetch returns at most cap headlines. Every failure yields an empty list.
func (f *RSSFeed) Fetch(ctx context.Context, ticker, displayName string) []types.NewsItem {
	feedURL := f.URL(ticker, displayName)
	items := make([]types.NewsItem, 0, f.cap)
	var mu sync.Mutex

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(f.baseURL)),
		colly.MaxDepth(1),
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(f.requestTimeout(ctx))

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnXML("//item", func(e *colly.XMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if len(items) >= f.cap {
			return
		}

		title := cleanTitle(e.ChildText("title"))
		link := strings.TrimSpace(e.ChildText("link"))
		if title == "" || link == "" {
			return
		}
		items = append(items, types.NewsItem{
			SourceTag: f.tagger.Tag(link, e.ChildAttr("source", "url")),
			Title:     title,
			Link:      link,
		})
	})

	if err := c.Visit(feedURL); err != nil {
		logger.Warn(ctx, "News feed unavailable", "feed", f.Name(), "ticker", ticker, "error", err.Error())
		return []types.NewsItem{}
	}
	c.Wait()

	if ctx.Err() != nil {
		logger.Warn(ctx, "News feed abandoned", "feed", f.Name(), "ticker", ticker, "error", ctx.Err().Error())
		return []types.NewsItem{}
	}

	logger.Debug(ctx, "News feed fetched", "feed", f.Name(), "ticker", ticker, "items", len(items))
	return items
}

// requestTimeout is the configured timeout, shortened to the context deadline.
func (f *RSSFeed) requestTimeout(ctx context.Context) time.Duration {
	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}

// markup matches an opening or closing tag; a bare "<" in decoded text does not.
var markup = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)

// cleanTitle strips markup and the trailing " - Publisher" suffix. The title
// is already entity-decoded, so it is only re-parsed when it carries tags.
func cleanTitle(raw string) string {
	text := raw
	if markup.MatchString(raw) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if i := strings.Index(text, " - "); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
