// internal/api/cli/commands/train_cmd.go
package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/internal/platform/training"
)

// NewTrainCmd 创建 train 命令
func NewTrainCmd(env *Env) *cobra.Command {
	var (
		datasetPath string
		epochs      int
		iterations  int
		snapshot    string
		perToken    bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fine-tune the reply policy with the reward model",
		Long: `Run PPO fine-tuning over a dataset of emails and save the policy snapshot.
The dataset may be YAML, JSON or plain text with emails separated by blank lines.
Without --dataset the configured dataset or the built-in demo emails are used.`,
		Example: `  # Train on the built-in emails
  replytune train

  # Train on a file with per-token reward attribution
  replytune train --dataset emails.yaml --epochs 5 --per-token`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := env.LoadConfig()
			if err != nil {
				return err
			}

			path := datasetPath
			if path == "" {
				path = cfg.Training.Dataset
			}
			dataset := training.DefaultDataset()
			if path != "" {
				if dataset, err = training.LoadDataset(path); err != nil {
					return err
				}
			}

			req := &dto.StartTrainingRequest{
				Dataset:             dataset,
				Epochs:              cfg.Training.Epochs,
				IterationsPerSample: cfg.Training.IterationsPerSample,
				SnapshotName:        cfg.Training.SnapshotName,
				PerTokenReward:      perToken,
			}
			if cmd.Flags().Changed("epochs") {
				req.Epochs = epochs
			}
			if cmd.Flags().Changed("iterations") {
				req.IterationsPerSample = iterations
			}
			if snapshot != "" {
				req.SnapshotName = snapshot
			}

			app, err := env.NewApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			color := env.Color()
			fmt.Fprintf(env.Out, "%s %d emails, %d epochs, %d iterations per sample\n",
				color.Bold("Training on"), len(dataset), req.Epochs, req.IterationsPerSample)

			run, err := app.Training.Train(ctx, req)
			if run != nil {
				if perr := printRun(env.Out, color, run); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset file (yaml, json or text)")
	cmd.Flags().IntVar(&epochs, "epochs", 3, "Passes over the dataset")
	cmd.Flags().IntVar(&iterations, "iterations", 5, "Policy updates per generated reply")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Snapshot name (default from config)")
	cmd.Flags().BoolVar(&perToken, "per-token", false, "Attribute the reward per token instead of broadcasting it")

	return cmd
}

// printRun 打印运行结果
func printRun(w io.Writer, color aurora.Aurora, run *training.TrainingRun) error {
	status := color.Green(string(run.Status))
	if run.Status != training.RunStatusCompleted {
		status = color.Red(string(run.Status))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run %s: %s\n", run.ID, status)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EPOCH\tAVG REWARD")
	for i, avg := range run.EpochAverages {
		fmt.Fprintf(tw, "%d\t%s\n", i+1, colorScore(color, avg))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Episodes: %d  Fallbacks: %d\n", run.Episodes, run.Fallbacks)
	if run.SnapshotLocation != "" {
		fmt.Fprintf(w, "Snapshot: %s\n", run.SnapshotLocation)
	}
	if run.ErrorMessage != "" {
		fmt.Fprintf(w, "Error: %s\n", run.ErrorMessage)
	}
	return nil
}

//Personal.AI order the ending
