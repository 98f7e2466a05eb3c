package narrative

import (
	"fmt"
	"strings"

	"tw-stock-advisor/internal/report"
	"tw-stock-advisor/internal/types"
)

// WordLimit caps the commentary length requested from the model.
const WordLimit = 250

// BuildPrompt renders the coaching prompt from whatever the aggregation produced.
func BuildPrompt(res *types.AggregationResult) string {
	var b strings.Builder

	b.WriteString("你是嚴格的台股操盤教練，只依據【權威數據】判斷。\n")
	if res.Quote != nil {
		fmt.Fprintf(&b, "股票：%s，現價：%s (漲幅 %.2f%%)\n",
			report.Title(res), res.Quote.Price.String(), res.Quote.ChangePercent())
	} else {
		fmt.Fprintf(&b, "股票：%s\n", report.Title(res))
	}
	b.WriteString("技術：\n")
	b.WriteString(report.IndicatorLines(res.Indicators))
	b.WriteString("\n新聞來源：\n")
	b.WriteString(report.NewsSection(res.News))
	b.WriteString("\n\n")

	safety := "保命價"
	if res.Quote != nil {
		safety = res.Quote.SafetyPrice().StringFixed(2)
	}

	b.WriteString(`請嚴格執行【權威策略分析】：

🔗 *1. 供應鏈與富爸爸 (Identity)*
- 它是誰的關鍵供應商？(如 NVIDIA, Apple)
- 富爸爸(客戶)現況如何？有無利空連動？

📏 *2. 價格與技術 (Static)*
- 支撐：股價是否站穩 5MA？
- 壓力：是否觸碰布林上軌或乖離過大？

💰 *3. 籌碼與權威觀點 (Credibility)*
- 內資動向：鉅亨/工商等權威媒體是否提及法人(外資/投信)買賣超？
- 外資觀點：若有 Reuters/Bloomberg 報導，外資對該產業展望是正面還負面？
- 防詐警示：若無權威新聞，請警告「缺乏法人背書，小心假突破」。

🏹 *4. 最終指令 (Action)*
- 給出指令：(買進 / 觀望 / 賣出 / 空手)。
`)
	fmt.Fprintf(&b, "- 保命機制：強制輸出『若持有，明日 09:10 跌破 %s (保命價) 務必執行市價停損』。\n\n", safety)
	fmt.Fprintf(&b, "請用繁體中文，條列式精簡輸出，限制 %d 字。\n", WordLimit)
	return b.String()
}
