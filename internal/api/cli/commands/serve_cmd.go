// internal/api/cli/commands/serve_cmd.go
package commands

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	httpapi "github.com/openeeap/replytune/internal/api/http"
	"github.com/openeeap/replytune/internal/observability/logging"
	"github.com/openeeap/replytune/pkg/config"
)

// NewServeCmd 创建 serve 命令
func NewServeCmd(env *Env) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring and reply HTTP API",
		Long: `Start the HTTP API: POST /api/v1/score, POST /api/v1/reply, GET /api/v1/runs,
GET /health and GET /metrics. Log level changes in the config file apply without restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loader := env.Loader(true)
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			if env.Verbose {
				cfg.Observability.Logging.Level = "debug"
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			app, err := env.NewApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			loader.OnReload(func(oldCfg, newCfg *config.Config) error {
				oldLevel, newLevel := oldCfg.Observability.Logging.Level, newCfg.Observability.Logging.Level
				if oldLevel != newLevel && app.SetLogLevel(newLevel) {
					app.Logger.Info("log level changed",
						logging.String("from", oldLevel),
						logging.String("to", newLevel),
					)
				}
				return nil
			})

			router := httpapi.NewRouter(&cfg.Server, app.Logger, app.Tracer, app.Metrics, httpapi.Services{
				Assistant:    app.Assistant,
				Training:     app.Training,
				Version:      env.Info.Version,
				HealthChecks: app.HealthChecks,
			})

			addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
			fmt.Fprintf(env.Out, "replytune %s listening on http://%s\n", env.Info.Version, addr)
			return router.Serve(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "Listen port")

	return cmd
}

//Personal.AI order the ending
