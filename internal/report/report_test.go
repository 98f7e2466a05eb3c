package report

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"tw-stock-advisor/internal/types"
)

func result() *types.AggregationResult {
	return &types.AggregationResult{
		Ticker: "2330",
		Quote: &types.Quote{
			Ticker:  "2330",
			Name:    "台積電",
			Price:   decimal.NewFromInt(600),
			Open:    decimal.NewFromInt(590),
			Success: true,
		},
		Indicators: &types.Indicators{
			MA5: 595, MA20: 590, StdDev20: 10, UpperBand: 610, Bias5: 0.84,
			VolumeRatio: 1.5, RSI14: 52.24, Candle: types.CandleStrongBullish,
		},
		News: &types.NewsLists{
			Domestic:      []types.NewsItem{{SourceTag: "鉅亨網", Title: "台積電[法說]", Link: "https://news.cnyes.com/1"}},
			International: []types.NewsItem{},
		},
	}
}

func TestFormat(t *testing.T) {
	msg := Format(result(), types.NarrativeReply{Text: "  觀望  ", Backend: "gemini-2.5-flash", OK: true})

	assert.True(t, strings.HasPrefix(msg, "📊 *2330 台積電 權威分析報告*\n"))
	assert.Contains(t, msg, "💰 現價：600 (+1.69%)")
	assert.Contains(t, msg, "📉 *保命價：591.00*")
	assert.Contains(t, msg, "- 布林上軌 (天花板): 610")
	assert.Contains(t, msg, "- 量比: 1.5")
	assert.Contains(t, msg, "- K線型態: 長紅K（多方強勢）")
	assert.Contains(t, msg, "\n\n觀望\n\n")
	assert.Contains(t, msg, "【🇹🇼 權威內資 (24h)】：\n• \\[鉅亨網] [台積電(法說)](https://news.cnyes.com/1)")
	assert.NotContains(t, msg, "權威外資")
}

func TestFormatPartialResult(t *testing.T) {
	res := result()
	res.Indicators = nil
	res.News = &types.NoCoverage

	msg := Format(res, types.NarrativeReply{Text: "⚠️ AI 連線失敗。"})
	assert.Contains(t, msg, IndicatorsUnavailable)
	assert.Contains(t, msg, NoCoverageText)
	assert.Contains(t, msg, "⚠️ AI 連線失敗。")
	assert.Contains(t, msg, "591.00")
}

func TestFormatTruncates(t *testing.T) {
	long := strings.Repeat("字", 5000)
	msg := Format(result(), types.NarrativeReply{Text: long, OK: true})

	assert.Equal(t, MaxMessageLen, utf8.RuneCountInString(msg))
	assert.True(t, strings.HasSuffix(msg, "…"))
}

func TestNewsSection(t *testing.T) {
	assert.Equal(t, NewsUnavailableText, NewsSection(nil))
	assert.Equal(t, NoCoverageText, NewsSection(&types.NoCoverage))

	both := &types.NewsLists{
		Domestic:      []types.NewsItem{{SourceTag: "a", Title: "t1", Link: "l1"}},
		International: []types.NewsItem{{SourceTag: "Reuters", Title: "t2", Link: "l2"}},
	}
	assert.Equal(t,
		"【🇹🇼 權威內資 (24h)】：\n• \\[a] [t1](l1)\n\n【🇺🇸 權威外資 (24h)】：\n• \\[Reuters] [t2](l2)",
		NewsSection(both))
}

func TestSignedPercent(t *testing.T) {
	assert.Equal(t, "+1.69%", SignedPercent(1.6949152))
	assert.Equal(t, "-0.50%", SignedPercent(-0.5))
	assert.Equal(t, "+0.00%", SignedPercent(0))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab…", Truncate("abcd", 3))
	assert.Equal(t, "台…", Truncate("台積電", 2))
}

func TestTitleWithoutName(t *testing.T) {
	assert.Equal(t, "6488", Title(&types.AggregationResult{Ticker: "6488"}))
	assert.Equal(t, "❌ 找不到代號 6488", NotFound("6488"))
}

func TestHeadlineMarkersCannotBreakEntities(t *testing.T) {
	got := NewsSection(&types.NewsLists{
		International: []types.NewsItem{{SourceTag: "WSJ_Asia", Title: "TSMC *surges* on `AI_chips` [update]", Link: "l"}},
	})
	assert.Equal(t, "【🇺🇸 權威外資 (24h)】：\n• \\[WSJ\\_Asia] [TSMC ＊surges＊ on ｀AI＿chips｀ (update)](l)", got)
}

func TestBalanceMarkdown(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"paired bold kept", "*買進* 訊號", "*買進* 訊號"},
		{"unpaired bold escaped", "**保命價** 跌破 5*MA", `\*\*保命價\*\* 跌破 5\*MA`},
		{"unpaired underscore escaped", "ma_5 支撐", `ma\_5 支撐`},
		{"bracket always escaped", "[注意] 量縮", `\[注意] 量縮`},
		{"plain text untouched", "觀望", "觀望"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BalanceMarkdown(tt.in))
		})
	}
}

func TestFormatBalancesNarrative(t *testing.T) {
	res := &types.AggregationResult{Ticker: "2330"}
	msg := Format(res, types.NarrativeReply{Text: "停損 5*MA", OK: true})
	assert.Contains(t, msg, `停損 5\*MA`)
}
