package report

import (
	"fmt"
	"strconv"
	"strings"

	"tw-stock-advisor/internal/types"
)

// MaxMessageLen is Telegram's sendMessage text limit, in characters.
const MaxMessageLen = 4096

const (
	NoCoverageText        = "（過去 24h 無權威媒體報導，可能無法人關注）"
	NewsUnavailableText   = "（新聞來源暫不可用）"
	IndicatorsUnavailable = "（技術指標暫不可用）"
	UsageHintText         = "請輸入 4 位數股票代號，例如：2330"
)

// Format renders the full reply for a successful aggregation.
func Format(res *types.AggregationResult, reply types.NarrativeReply) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 *%s 權威分析報告*\n", escapeEntityText(Title(res)))
	if res.Quote != nil {
		fmt.Fprintf(&b, "💰 現價：%s (%s)\n", res.Quote.Price.String(), SignedPercent(res.Quote.ChangePercent()))
		fmt.Fprintf(&b, "📉 *保命價：%s*\n", res.Quote.SafetyPrice().StringFixed(2))
	}
	b.WriteString("\n📏 技術指標：\n")
	b.WriteString(IndicatorLines(res.Indicators))
	b.WriteString("\n\n")
	b.WriteString(BalanceMarkdown(strings.TrimSpace(reply.Text)))
	b.WriteString("\n\n")
	b.WriteString(NewsSection(res.News))

	return Truncate(b.String(), MaxMessageLen)
}

// Title is the ticker followed by its display name when known.
func Title(res *types.AggregationResult) string {
	if res.Quote != nil && res.Quote.Name != "" {
		return res.Ticker + " " + res.Quote.Name
	}
	return res.Ticker
}

// IndicatorLines lists the snapshot, one metric per line.
func IndicatorLines(ind *types.Indicators) string {
	if ind == nil {
		return IndicatorsUnavailable
	}
	lines := []string{
		"- 5MA (地板): " + num(ind.MA5),
		"- 20MA: " + num(ind.MA20),
		"- 布林上軌 (天花板): " + num(ind.UpperBand),
		"- 乖離率: " + num(ind.Bias5) + "%",
		"- 量比: " + num(ind.VolumeRatio),
		"- RSI14: " + num(ind.RSI14),
		"- K線型態: " + ind.Candle.Label(),
	}
	return strings.Join(lines, "\n")
}

// NewsSection renders both headline lists, or the no-coverage text.
func NewsSection(n *types.NewsLists) string {
	if n == nil {
		return NewsUnavailableText
	}
	if n.IsNoCoverage() {
		return NoCoverageText
	}

	var parts []string
	if len(n.Domestic) > 0 {
		parts = append(parts, "【🇹🇼 權威內資 (24h)】：\n"+bullets(n.Domestic))
	}
	if len(n.International) > 0 {
		parts = append(parts, "【🇺🇸 權威外資 (24h)】：\n"+bullets(n.International))
	}
	return strings.Join(parts, "\n\n")
}

func bullets(items []types.NewsItem) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("• %s [%s](%s)", escapePlain("["+it.SourceTag+"]"), escapeEntityText(it.Title), it.Link)
	}
	return strings.Join(lines, "\n")
}

// Legacy Markdown cannot escape inside an entity, so link and bold text get
// lookalike characters instead of markers.
var entityText = strings.NewReplacer(
	"[", "(", "]", ")",
	"*", "＊", "_", "＿", "`", "｀",
)

func escapeEntityText(s string) string {
	return entityText.Replace(s)
}

var plainText = strings.NewReplacer(
	"[", `\[`, "*", `\*`, "_", `\_`, "`", "\\`",
)

// escapePlain backslash-escapes every marker in text outside an entity.
func escapePlain(s string) string {
	return plainText.Replace(s)
}

// BalanceMarkdown escapes any marker that would leave an entity unclosed, so
// Telegram does not reject the whole message. Paired markers are kept.
func BalanceMarkdown(s string) string {
	s = strings.ReplaceAll(s, "[", `\[`)
	for _, m := range []string{"*", "_", "`"} {
		if strings.Count(s, m)%2 != 0 {
			s = strings.ReplaceAll(s, m, `\`+m)
		}
	}
	return s
}

// NotFound is the terminal reply for an unknown or unpriced ticker.
func NotFound(ticker string) string {
	return "❌ 找不到代號 " + ticker
}

// Ack is sent before aggregation starts.
func Ack(ticker string) string {
	return "⚡ 收到 " + ticker + "，權威分析中..."
}

// SignedPercent formats v with an explicit sign and 2 decimals, e.g. "+1.69%".
func SignedPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// Truncate cuts s to at most limit runes, marking the cut with an ellipsis.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
