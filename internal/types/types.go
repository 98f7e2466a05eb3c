package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// safetyFactor is the stop-loss multiplier applied to the current price.
var safetyFactor = decimal.RequireFromString("0.985")

// ValidTicker reports whether s is exactly four ASCII digits.
func ValidTicker(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Quote is a realtime price snapshot for one ticker.
type Quote struct {
	Ticker  string          `json:"ticker"`
	Name    string          `json:"name,omitempty"`
	Price   decimal.Decimal `json:"price"`
	Open    decimal.Decimal `json:"open"`
	Success bool            `json:"success"`
}

// Usable reports whether the quote can anchor downstream computation.
func (q Quote) Usable() bool {
	return q.Success && q.Price.IsPositive()
}

// ChangePercent is (price-open)/open*100, or 0 when open is unusable.
func (q Quote) ChangePercent() float64 {
	if !q.Open.IsPositive() {
		return 0
	}
	pct, _ := q.Price.Sub(q.Open).Div(q.Open).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// SafetyPrice is price*0.985 rounded to 2 decimal places.
func (q Quote) SafetyPrice() decimal.Decimal {
	return q.Price.Mul(safetyFactor).Round(2)
}

// Bar is one cleaned daily observation.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// RawBar is a provider bar before cleaning; nil fields were missing upstream.
type RawBar struct {
	Time   time.Time
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64
}

// CandlePattern is a coarse classification of a single bar's shape.
type CandlePattern int

const (
	CandleNormal CandlePattern = iota
	CandleLongUpperShadow
	CandleStrongBullish
	CandleStrongBearish
)

func (c CandlePattern) String() string {
	switch c {
	case CandleLongUpperShadow:
		return "LongUpperShadow"
	case CandleStrongBullish:
		return "StrongBullish"
	case CandleStrongBearish:
		return "StrongBearish"
	default:
		return "Normal"
	}
}

// Label is the zh-TW description used in prompts and replies.
func (c CandlePattern) Label() string {
	switch c {
	case CandleLongUpperShadow:
		return "長上影線（賣壓沉重）"
	case CandleStrongBullish:
		return "長紅K（多方強勢）"
	case CandleStrongBearish:
		return "長黑K（空方強勢）"
	default:
		return "一般K線"
	}
}

// Indicators is the technical snapshot derived from a cleaned price series.
type Indicators struct {
	MA5         float64       `json:"ma5"`
	MA20        float64       `json:"ma20"`
	StdDev20    float64       `json:"stddev20"`
	UpperBand   float64       `json:"upper_band"`
	Bias5       float64       `json:"bias5"`
	VolumeRatio float64       `json:"volume_ratio"`
	RSI14       float64       `json:"rsi14"`
	Candle      CandlePattern `json:"candle"`
	LastClose   float64       `json:"last_close"`
	Bars        int           `json:"bars"`
}

// NewsItem is one headline with its publisher attribution.
type NewsItem struct {
	SourceTag string `json:"source_tag"`
	Title     string `json:"title"`
	Link      string `json:"link"`
}

// NewsLists holds the domestic and international headline lists.
type NewsLists struct {
	Domestic      []NewsItem `json:"domestic"`
	International []NewsItem `json:"international"`
	Uncovered     bool       `json:"uncovered"`
}

// NoCoverage is returned when neither feed produced any headline.
var NoCoverage = NewsLists{Uncovered: true}

// IsNoCoverage reports whether n is the no-coverage sentinel.
func (n NewsLists) IsNoCoverage() bool {
	return n.Uncovered
}

// Task names used in AggregationResult.Absent and logs.
const (
	TaskQuote        = "quote"
	TaskIndicators   = "indicators"
	TaskDomesticNews = "news_domestic"
	TaskForeignNews  = "news_international"
)

// AggregationResult carries whatever completed before the deadline; nil means absent.
type AggregationResult struct {
	Ticker     string      `json:"ticker"`
	Quote      *Quote      `json:"quote,omitempty"`
	Indicators *Indicators `json:"indicators,omitempty"`
	News       *NewsLists  `json:"news,omitempty"`
	Absent     []string    `json:"absent,omitempty"`
}

// NarrativeReply is generated commentary tagged with the backend that produced it.
type NarrativeReply struct {
	Text    string `json:"text"`
	Backend string `json:"backend,omitempty"`
	OK      bool   `json:"ok"`
}

// Update is the subset of a Telegram update the webhook understands.
type Update struct {
	Message *Message `json:"message"`
}

type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}
