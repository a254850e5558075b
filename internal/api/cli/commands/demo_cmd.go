// internal/api/cli/commands/demo_cmd.go
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/internal/platform/training"
)

const (
	// DemoEmail 演示用邮件
	DemoEmail = "Could you help me schedule a meeting with the team?"
	// DemoSnapshotName 演示训练后的快照名
	DemoSnapshotName = "fine_tuned_email_model"
)

// NewDemoCmd 创建 demo 命令
func NewDemoCmd(env *Env) *cobra.Command {
	var styleHints int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Show a reply before and after fine-tuning",
		Long: `Reply to a sample email, fine-tune the policy on the built-in emails,
then reply again and compare the scores. The trained policy is saved as "` + DemoSnapshotName + `".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := env.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.Generator.StyleHints == 0 {
				cfg.Generator.StyleHints = styleHints
			}

			app, err := env.NewApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			color := env.Color()
			out := env.Out

			fmt.Fprintf(out, "%s %q\n\n", color.Bold("Email:"), DemoEmail)
			fmt.Fprintln(out, color.Bold("=== Before fine-tuning ==="))
			before := app.Assistant.Reply(ctx, DemoEmail)
			if err := printReply(out, color, before); err != nil {
				return err
			}

			dataset := training.DefaultDataset()
			fmt.Fprintf(out, "\n%s %d emails for %d epochs\n", color.Bold("Fine-tuning on"), len(dataset), cfg.Training.Epochs)
			run, err := app.Training.Train(ctx, &dto.StartTrainingRequest{
				Dataset:             dataset,
				Epochs:              cfg.Training.Epochs,
				IterationsPerSample: cfg.Training.IterationsPerSample,
				SnapshotName:        DemoSnapshotName,
				PerTokenReward:      cfg.Training.PerTokenReward,
			})
			if run != nil {
				if perr := printRun(out, color, run); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, color.Bold("=== After fine-tuning ==="))
			after := app.Assistant.Reply(ctx, DemoEmail)
			if err := printReply(out, color, after); err != nil {
				return err
			}

			delta := after.Score.Total - before.Score.Total
			sign := color.Green(fmt.Sprintf("%+.4f", delta))
			if delta < 0 {
				sign = color.Red(fmt.Sprintf("%+.4f", delta))
			}
			fmt.Fprintf(out, "\nTotal score change: %s\n", sign)
			return nil
		},
	}

	cmd.Flags().IntVar(&styleHints, "style-hints", 3, "Policy phrases added to the prompt when the config sets none")

	return cmd
}

//Personal.AI order the ending
