// internal/api/cli/commands/env.go
package commands

import (
	"context"
	"io"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/openeeap/replytune/internal/app/bootstrap"
	"github.com/openeeap/replytune/pkg/config"
)

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildTime string
}

// Env 命令运行环境，由根命令构造并传给各子命令
type Env struct {
	In  io.Reader
	Out io.Writer

	ConfigFile string
	Verbose    bool
	NoColor    bool
	Info       BuildInfo

	// AppOptions 追加到每次装配的选项，测试用于替换后端
	AppOptions []bootstrap.Option
}

// Color 输出着色器
func (e *Env) Color() aurora.Aurora {
	return aurora.NewAurora(!e.NoColor)
}

// Loader 创建配置加载器，watch 仅对长期运行的命令开启
func (e *Env) Loader(watch bool) *config.Loader {
	return config.NewLoader(config.LoaderOptions{
		ConfigFile:  e.ConfigFile,
		EnableWatch: watch,
	})
}

// LoadConfig 加载配置并应用命令行覆盖
func (e *Env) LoadConfig() (*config.Config, error) {
	cfg, err := e.Loader(false).Load()
	if err != nil {
		return nil, err
	}
	e.applyOverrides(cfg)
	return cfg, nil
}

// applyOverrides 日志写 stderr，保持 stdout 只输出命令结果
func (e *Env) applyOverrides(cfg *config.Config) {
	if cfg.Observability.Logging.Output == "stdout" {
		cfg.Observability.Logging.Output = "stderr"
	}
	if e.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
}

// NewApp 按配置装配应用
func (e *Env) NewApp(ctx context.Context, cfg *config.Config) (*bootstrap.App, error) {
	return bootstrap.New(ctx, cfg, e.AppOptions...)
}

// LoadApp 加载配置并装配应用
func (e *Env) LoadApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := e.LoadConfig()
	if err != nil {
		return nil, err
	}
	return e.NewApp(ctx, cfg)
}

// commandContext 命令上下文，未通过 ExecuteContext 启动时为 Background
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

//Personal.AI order the ending
