package quote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tw-stock-advisor/internal/api"
	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/types"
)

// ErrNotFound is returned when the provider has no usable record for the ticker.
var ErrNotFound = errors.New("ticker not found")

// TWSEFetcher reads realtime quotes from the TWSE MIS getStockInfo endpoint,
// querying the listed (tse) and OTC (otc) channels in one call.
type TWSEFetcher struct {
	client  *api.Client
	baseURL string
}

var _ interfaces.QuoteSource = (*TWSEFetcher)(nil)

func NewTWSEFetcher(baseURL string, timeout time.Duration) *TWSEFetcher {
	return &TWSEFetcher{
		client:  api.NewClient(api.WithTimeout(timeout), api.WithLogging(true)),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type misResponse struct {
	MsgArray []misRecord `json:"msgArray"`
	RtCode   string      `json:"rtcode"`
	RtMsg    string      `json:"rtmessage"`
}

type misRecord struct {
	Code     string `json:"c"`
	Name     string `json:"n"`
	Exchange string `json:"ex"`
	Last     string `json:"z"`
	Bids     string `json:"b"`
	Open     string `json:"o"`
}

// Quote fetches the current price. Any transport or decoding failure maps to ErrNotFound.
func (f *TWSEFetcher) Quote(ctx context.Context, ticker string) (types.Quote, error) {
	channels := fmt.Sprintf("tse_%s.tw|otc_%s.tw", ticker, ticker)
	u := fmt.Sprintf("%s/stock/api/getStockInfo.jsp?ex_ch=%s&json=1&delay=0", f.baseURL, url.QueryEscape(channels))

	resp, err := f.client.GET(ctx, u, api.TWSEHeaders())
	if err != nil {
		return types.Quote{Ticker: ticker}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var body misResponse
	if err := resp.ParseJSON(&body); err != nil {
		return types.Quote{Ticker: ticker}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if body.RtCode != "0000" || len(body.MsgArray) == 0 {
		return types.Quote{Ticker: ticker}, fmt.Errorf("%w: rtcode=%s records=%d", ErrNotFound, body.RtCode, len(body.MsgArray))
	}

	rec := pickRecord(body.MsgArray, ticker)
	q := fromRecord(ticker, rec)
	if !q.Usable() {
		logger.Warn(ctx, "Quote has no usable price", "ticker", ticker, "last", rec.Last, "bids", rec.Bids)
	}
	return q, nil
}

// pickRecord prefers the record whose code matches the ticker exactly.
func pickRecord(recs []misRecord, ticker string) misRecord {
	for _, r := range recs {
		if r.Code == ticker {
			return r
		}
	}
	return recs[0]
}

// fromRecord applies the price fallback chain: last trade, then best bid, then 0.
func fromRecord(ticker string, rec misRecord) types.Quote {
	q := types.Quote{Ticker: ticker, Name: rec.Name, Success: true}

	if p, ok := parsePrice(rec.Last); ok {
		q.Price = p
	} else if p, ok := parsePrice(firstBid(rec.Bids)); ok {
		q.Price = p
	} else {
		q.Price = decimal.Zero
	}

	if o, ok := parsePrice(rec.Open); ok {
		q.Open = o
	}
	return q
}

func firstBid(bids string) string {
	if i := strings.IndexByte(bids, '_'); i >= 0 {
		return bids[:i]
	}
	return bids
}

func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}
