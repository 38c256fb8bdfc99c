package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "reqecho",
		Short:         "HTTP request inspector",
		Long:          "reqecho answers every request with a description of that request, as JSON on /json or as a raw HTTP message on /raw.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load(".env")

			path, explicit := ResolveConfigPath(configPath, cmd.Flags().Changed("config"))
			cfg, err := LoadConfig(path, explicit)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				if err := cfg.SetAddr(addr); err != nil {
					return fmt.Errorf("--addr: %w", err)
				}
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, err := newLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := NewEchoServer(logger, cfg, version).ListenAndServe(ctx); err != nil {
				logger.Error("Server stopped.", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().StringVarP(&configPath, "config", "c", "reqecho.yaml", "config file path")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (host:port), overrides config")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}
