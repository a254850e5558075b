// internal/api/cli/commands/output.go
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/logrusorgru/aurora"

	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/internal/platform/reward"
)

// 分数着色阈值
const (
	goodScore = 0.3
	fairScore = 0.1
)

// colorScore 按分数高低着色
func colorScore(color aurora.Aurora, score float64) aurora.Value {
	text := fmt.Sprintf("%.4f", score)
	switch {
	case score >= goodScore:
		return color.Green(text)
	case score >= fairScore:
		return color.Yellow(text)
	default:
		return color.Red(text)
	}
}

// printScoreTable 打印评分明细表
func printScoreTable(w io.Writer, color aurora.Aurora, b reward.RewardBreakdown) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tSCORE")
	fmt.Fprintf(tw, "Total\t%s\n", colorScore(color, b.Total))
	fmt.Fprintf(tw, "Politeness\t%s\n", colorScore(color, b.Politeness))
	fmt.Fprintf(tw, "Helpfulness\t%s\n", colorScore(color, b.Helpfulness))
	fmt.Fprintf(tw, "Words\t%d\n", b.WordCount)
	return tw.Flush()
}

// printReply 打印生成的回复、耗时与评分
func printReply(w io.Writer, color aurora.Aurora, res *dto.ReplyResult) error {
	fmt.Fprintln(w, color.Bold(color.Cyan("Reply")))
	fmt.Fprintln(w, res.Reply)
	fmt.Fprintln(w)

	status := color.Green("generated")
	if res.Fallback {
		status = color.Yellow("fallback (" + res.Reason + ")")
	}
	fmt.Fprintf(w, "Status: %s  Latency: %s\n\n", status, res.Latency.Round(time.Millisecond))
	return printScoreTable(w, color, res.Score)
}

// WriteJSON 以缩进 JSON 输出
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

//Personal.AI order the ending
