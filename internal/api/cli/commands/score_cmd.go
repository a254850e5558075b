// internal/api/cli/commands/score_cmd.go
package commands

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/pkg/errors"
)

// NewScoreCmd 创建 score 命令
func NewScoreCmd(env *Env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score [text]",
		Short: "Score a reply for politeness and helpfulness",
		Long:  `Score a reply with the reward model. The text is taken from the arguments or, when none are given, from stdin.`,
		Example: `  # Score a reply
  replytune score "Thank you, I would be happy to help."

  # Score a file as JSON
  replytune score --json < reply.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := textFromArgs(args, env.In)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			app, err := env.LoadApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			breakdown := app.Assistant.Score(ctx, text)
			if asJSON {
				return WriteJSON(env.Out, dto.NewScoreResponse(breakdown))
			}
			return printScoreTable(env.Out, env.Color(), breakdown)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the breakdown as JSON")

	return cmd
}

// textFromArgs 参数拼接为文本，无参数时读取输入流
func textFromArgs(args []string, in io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if in == nil {
		return "", errors.NewFromCodef(errors.ErrAPIInvalidRequest, "no text given")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", errors.WrapFromCode(err, errors.ErrAPIInvalidRequest, "cannot read stdin")
	}
	return string(data), nil
}

//Personal.AI order the ending
