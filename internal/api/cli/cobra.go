// internal/api/cli/cobra.go
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/openeeap/replytune/internal/api/cli/commands"
	"github.com/openeeap/replytune/internal/app/dto"
)

// NewRootCommand 创建根命令；env 为空时使用标准输入输出
func NewRootCommand(info commands.BuildInfo, env *commands.Env) *cobra.Command {
	if env == nil {
		env = &commands.Env{In: os.Stdin, Out: os.Stdout}
	}
	env.Info = info

	rootCmd := &cobra.Command{
		Use:   "replytune",
		Short: "replytune - reward-tuned professional email replies",
		Long: `replytune scores email replies for politeness and helpfulness and uses that
score as a reward to fine-tune a reply policy with clipped policy-gradient (PPO) updates.

It provides:
 - Reply generation with greeting and closing repair
 - Reward scoring (politeness, helpfulness, total)
 - PPO fine-tuning with snapshot, run history and progress events
 - An HTTP API for scoring and replies`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(env.Out)

	// 全局持久化标志
	rootCmd.PersistentFlags().StringVar(&env.ConfigFile, "config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/replytune/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&env.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&env.NoColor, "no-color", false, "disable colored output")

	// 添加子命令
	rootCmd.AddCommand(commands.NewReplyCmd(env))
	rootCmd.AddCommand(commands.NewScoreCmd(env))
	rootCmd.AddCommand(commands.NewTrainCmd(env))
	rootCmd.AddCommand(commands.NewDemoCmd(env))
	rootCmd.AddCommand(commands.NewReportCmd(env))
	rootCmd.AddCommand(commands.NewServeCmd(env))
	rootCmd.AddCommand(newVersionCmd(env))

	return rootCmd
}

// Execute 执行 CLI 命令
func Execute(ctx context.Context, info commands.BuildInfo) error {
	rootCmd := NewRootCommand(info, nil)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newVersionCmd 创建 version 命令
func newVersionCmd(env *commands.Env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(env.Out, dto.VersionResponse{
				Version:   env.Info.Version,
				GitCommit: env.Info.GitCommit,
				BuildTime: env.Info.BuildTime,
				GoVersion: runtime.Version(),
			}, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

func printVersion(w io.Writer, v dto.VersionResponse, asJSON bool) error {
	if asJSON {
		return commands.WriteJSON(w, v)
	}
	fmt.Fprintf(w, "replytune version: %s\n", v.Version)
	fmt.Fprintf(w, "Git commit: %s\n", v.GitCommit)
	fmt.Fprintf(w, "Build time: %s\n", v.BuildTime)
	fmt.Fprintf(w, "Go version: %s\n", v.GoVersion)
	return nil
}

//Personal.AI order the ending
