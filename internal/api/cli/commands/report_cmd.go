// internal/api/cli/commands/report_cmd.go
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/openeeap/replytune/internal/platform/training"
	"github.com/openeeap/replytune/pkg/errors"
)

// NewReportCmd 创建 report 命令
func NewReportCmd(env *Env) *cobra.Command {
	var (
		runs int
		out  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render per-epoch average rewards of recent runs as an HTML chart",
		Long: `Read recent training runs from the run repository and render their per-epoch
average reward as an echarts line chart. Run history persists only when the database is enabled.`,
		Example: `  replytune report --runs 5 --out report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			app, err := env.LoadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			history, err := app.Repository.ListRuns(ctx, runs)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				return errors.NewNotFoundError(errors.ErrDBQueryFailed.Code, "no training runs recorded")
			}

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := RenderReport(f, history); err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "%s %d runs to %s\n", env.Color().Green("Rendered"), len(history), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&runs, "runs", 10, "Number of most recent runs")
	cmd.Flags().StringVar(&out, "out", "report.html", "Output HTML file")

	return cmd
}

// RenderReport 将每次运行的轮次平均奖励渲染为折线图
func RenderReport(w io.Writer, runs []*training.TrainingRun) error {
	maxEpochs := 0
	for _, run := range runs {
		if len(run.EpochAverages) > maxEpochs {
			maxEpochs = len(run.EpochAverages)
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Average reward per epoch",
			Subtitle: fmt.Sprintf("%d training runs", len(runs)),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "replytune training report",
			Theme:     "shine",
		}),
	)

	epochs := make([]string, 0, maxEpochs)
	for i := 1; i <= maxEpochs; i++ {
		epochs = append(epochs, strconv.Itoa(i))
	}
	line = line.SetXAxis(epochs)

	// 最新的运行排在最后，图例按时间顺序
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		items := make([]opts.LineData, 0, len(run.EpochAverages))
		for _, avg := range run.EpochAverages {
			items = append(items, opts.LineData{Value: avg})
		}
		line.AddSeries(seriesName(run), items)
	}

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}

func seriesName(run *training.TrainingRun) string {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s (%s)", id, run.Status)
}

//Personal.AI order the ending
