package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/notifier"
	"tw-stock-advisor/internal/trace"
	"tw-stock-advisor/internal/types"
)

var (
	version    = "dev"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tw-stock-advisor",
		Short: "Taiwan stock analysis bot",
		Long: `tw-stock-advisor answers a 4-digit TWSE/TPEx ticker with a quote,
technical indicators, authoritative news and AI commentary.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeSystem()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = trace.Shutdown(context.Background())
			logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram webhook server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			agg, narrator := initializePipeline(ctx, cfg)
			out := initializeNotifier(ctx, cfg)
			eng := initializeEngine(agg, narrator, out, cfg.Bot.AckMessage)
			srv := initializeServer(cfg, eng, out)

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(ctx) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errc
		},
	}
}

func reportCmd() *cobra.Command {
	var (
		raw  bool
		name string
	)
	cmd := &cobra.Command{
		Use:   "report <ticker>",
		Short: "Print the analysis report for one ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ticker := args[0]
			if !types.ValidTicker(ticker) {
				return fmt.Errorf("ticker must be exactly 4 digits, got %q", ticker)
			}

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			agg, narrator := initializePipeline(ctx, cfg)

			if raw {
				res, err := agg.Aggregate(ctx, ticker, name)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(res)
			}

			eng := initializeEngine(agg, narrator, notifier.NewWriter(cmd.OutOrStdout()), false)
			return eng.Run(ctx, 0, ticker)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the aggregated data as JSON instead of the report")
	cmd.Flags().StringVar(&name, "name", "", "Display name used in the news query (with --raw)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tw-stock-advisor version %s\n", version)
		},
	}
}
