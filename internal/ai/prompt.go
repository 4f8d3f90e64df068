package ai

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wonny/valuescope/backend/internal/contracts"
)

// MaxGroundingStocks caps how many stocks are quoted in one prompt
const MaxGroundingStocks = 5

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

const basePrompt = `你是一名专注 A 股价值投资的研究助手。回答要基于数据，说明估值、分红与盈利质量，
不做买卖建议，不预测短期股价。数据不足时直接说明。`

// CollectCodes merges explicit codes with 6-digit codes found in message,
// deduplicated in order and capped at MaxGroundingStocks
func CollectCodes(explicit []string, message string) []string {
	seen := make(map[string]bool)
	var codes []string

	add := func(code string) {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] || len(codes) >= MaxGroundingStocks {
			return
		}
		seen[code] = true
		codes = append(codes, code)
	}

	for _, c := range explicit {
		add(c)
	}
	for _, c := range codePattern.FindAllString(message, -1) {
		add(c)
	}
	return codes
}

// SystemPrompt appends one indicator line per snapshot to the base instructions
func SystemPrompt(snapshots []*contracts.IndicatorSnapshot) string {
	if len(snapshots) == 0 {
		return basePrompt
	}

	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n以下是相关股票的最新指标（截至各自日期）：\n")
	for _, s := range snapshots {
		fmt.Fprintf(&b, "- %s %s（%s）%s：价格 %s，PE(TTM) %s，PB %s，PE 历史分位 %s%%，估值 %s，股息率 %s%%，ROE %s%%，营收增长 %s%%，净利增长 %s%%，真钱指数 %s，市值 %s 亿，连续分红 %d 年\n",
			s.Code, s.Name, s.Industry, s.AsOf.Format("2006-01-02"),
			num(s.Price), num(s.PETTM), num(s.PB), num(s.PEPercentile), s.ValuationStatus,
			num(s.DividendYield), num(s.ROE), num(s.RevenueGrowth), num(s.ProfitGrowth),
			num(s.TrueMoneyIndex), num(s.MarketCap), s.ConsecutiveDividendYears)
	}
	return b.String()
}

func num(v *float64) string {
	if v == nil {
		return "无"
	}
	return fmt.Sprintf("%.2f", *v)
}
