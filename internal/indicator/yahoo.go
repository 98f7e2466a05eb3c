package indicator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tw-stock-advisor/internal/api"
	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/types"
)

// ErrNoData is returned when the provider has no series for a ticker+suffix.
var ErrNoData = errors.New("no data")

// YahooBars implements BarSource using the Yahoo Finance v8 chart API.
type YahooBars struct {
	client   *api.Client
	baseURL  string
	rng      string
	interval string
}

var _ interfaces.BarSource = (*YahooBars)(nil)

func NewYahooBars(baseURL, rng, interval string) *YahooBars {
	return &YahooBars{
		// per-attempt deadlines come from the caller's context
		client:   api.NewClient(api.WithLogging(true)),
		baseURL:  strings.TrimRight(baseURL, "/"),
		rng:      rng,
		interval: interval,
	}
}

// yahooChart is the trimmed chart response; nil entries mark missing values.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *YahooBars) DailyBars(ctx context.Context, ticker, suffix string) ([]types.RawBar, error) {
	symbol := ticker + suffix
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		y.baseURL, url.PathEscape(symbol), url.QueryEscape(y.rng), url.QueryEscape(y.interval))

	resp, err := y.client.GET(ctx, u, api.YahooFinanceHeaders())
	if err != nil {
		if api.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
		}
		return nil, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}

	var chart yahooChart
	if err := resp.ParseJSON(&chart); err != nil {
		return nil, fmt.Errorf("yahoo decode %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrNoData, symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]types.RawBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, types.RawBar{
			Time:   time.Unix(ts, 0),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return bars, nil
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}
