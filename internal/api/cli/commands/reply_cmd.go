// internal/api/cli/commands/reply_cmd.go
package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openeeap/replytune/internal/app/service"
)

// quitWords 结束交互模式的输入
var quitWords = map[string]bool{"quit": true, "exit": true}

// NewReplyCmd 创建 reply 命令
func NewReplyCmd(env *Env) *cobra.Command {
	var (
		policyName string
		fromStdin  bool
	)

	cmd := &cobra.Command{
		Use:   "reply [email]",
		Short: "Generate a professional reply to an email",
		Long: `Generate a reply, then print it with its latency and score.
Without arguments an interactive loop reads one email per line until "quit".`,
		Example: `  # Reply to a single email
  replytune reply "Anna: Could you help me with the project deadline?"

  # Reply to an email file
  replytune reply --stdin < email.txt

  # Interactive mode with a trained policy guiding the style
  replytune reply --policy fine_tuned_email_model`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			app, err := env.LoadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if policyName != "" {
				if err := app.Training.LoadPolicy(ctx, policyName); err != nil {
					return err
				}
			}

			switch {
			case len(args) > 0:
				return replyOnce(ctx, env, app.Assistant, strings.Join(args, " "))
			case fromStdin:
				email, err := textFromArgs(nil, env.In)
				if err != nil {
					return err
				}
				return replyOnce(ctx, env, app.Assistant, email)
			default:
				return replyLoop(ctx, env, app.Assistant)
			}
		},
	}

	cmd.Flags().StringVar(&policyName, "policy", "", "Load a saved policy snapshot before replying")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read a single email from stdin")

	return cmd
}

func replyOnce(ctx context.Context, env *Env, assistant service.AssistantService, email string) error {
	return printReply(env.Out, env.Color(), assistant.Reply(ctx, email))
}

const emptyInputPrompt = "Please enter some text!"

// replyLoop 交互模式，每行一封邮件
func replyLoop(ctx context.Context, env *Env, assistant service.AssistantService) error {
	color := env.Color()
	scanner := bufio.NewScanner(env.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintln(env.Out, color.Bold("Email assistant ready. Type 'quit' to exit."))
	for {
		fmt.Fprint(env.Out, color.Cyan("email> "))
		if !scanner.Scan() {
			fmt.Fprintln(env.Out)
			if err := scanner.Err(); err != nil && err != io.EOF {
				return err
			}
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if quitWords[strings.ToLower(line)] {
			return nil
		}
		if line == "" {
			fmt.Fprintln(env.Out, color.Yellow(emptyInputPrompt))
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := replyOnce(ctx, env, assistant, line); err != nil {
			return err
		}
		fmt.Fprintln(env.Out)
	}
}

//Personal.AI order the ending
