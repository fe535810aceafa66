package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sandevgo/storedash/internal/config"
	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/service/ui"
	"github.com/sandevgo/storedash/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:     "storedash",
	Short:   "storedash: storefront dashboard with resilient recommendations",
	Long:    `storedash browses a product catalog, keeps a cart and suggests likely next purchases. When the model service is slow or down it keeps working on local heuristics.`,
	Version: core.AppVersion,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

// logSink selects where log records go for a command.
type logSink int

const (
	logStdout logSink = iota
	// logStderr keeps stdout clean for command output and protocols.
	logStderr
	// logDashboard writes to the runtime log file when the dashboard is
	// enabled, since it owns the terminal.
	logDashboard
)

// bootstrap loads the runtime .env file and the app configuration, then
// installs the logger. The returned func flushes the logger and closes any
// log file.
func bootstrap(ctx context.Context, sink logSink) (context.Context, *config.AppConfig, func(), error) {
	envPath, envErr := initEnv(config.GetRuntimePath())

	cfg, err := config.ParseAppConfig()
	if err != nil {
		return ctx, nil, func() {}, fmt.Errorf("failed to parse App config: %w", err)
	}

	var (
		out     io.Writer = os.Stdout
		closeFn           = func() error { return nil }
	)
	switch {
	case sink == logStderr:
		out = os.Stderr
	case sink == logDashboard && cfg.EnableTUI:
		if err := os.MkdirAll(cfg.GetRuntimePath(), 0755); err != nil {
			return ctx, nil, func() {}, fmt.Errorf("failed to create runtime directory: %w", err)
		}
		f, err := log.OpenFile(cfg.GetLogPath())
		if err != nil {
			return ctx, nil, func() {}, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closeFn = f, f.Close
	}

	ctx, flush := setupLogger(ctx, out)
	logger := log.FromCtx(ctx)
	if envErr != nil {
		logger.Warn().Err(envErr).Str("path", envPath).Msg("failed to load .env file")
	} else if envPath != "" {
		logger.Debug().Str("path", envPath).Msg("loaded .env file")
	}

	return ctx, cfg, func() {
		flush()
		_ = closeFn()
	}, nil
}

func setupLogger(ctx context.Context, out io.Writer) (context.Context, func()) {
	return log.NewContextWithLogger(ctx, log.Options{
		Debug:   debug || config.IsDebug(),
		Output:  out,
		Session: uuid.NewString(),
	})
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{StyleFlag (.LocalFlags.FlagUsages | trimTrailingWhitespaces)}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
