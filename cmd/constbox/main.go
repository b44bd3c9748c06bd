// Command constbox controls the constants that leak in and out of boxed
// areas of a Ruby codebase.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"constbox/internal/app"
	"constbox/internal/config"
)

const version = "1.0.0"

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err == errViolations {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// errViolations signals a clean run that found box violations; it is
// reported through the exit code, not as an error message.
var errViolations = fmt.Errorf("found box violations")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "constbox",
		Short:   "Dependency-boundary linter for Ruby namespaces",
		Long:    "Control the constants that leak in and out of an area of your codebase.",
		Version: version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
		// Bare `constbox` verifies, like `constbox verify`.
		RunE:          runVerify,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "constbox.toml", "Path to config file")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	root.Flags().StringArrayP("ignore", "i", nil, "Glob of files to ignore")
	root.Flags().Bool("watch", false, "Re-verify on filesystem changes")
	root.Flags().String("metrics-addr", "", "Serve prometheus metrics at this address while watching")

	root.AddCommand(newInitCmd(), newInspectCmd(), newVerifyCmd())
	return root
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [box-path]",
		Short: "Generate a box at a location in your codebase",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			boxPath := "."
			if len(args) == 1 {
				boxPath = args[0]
			}
			ignores, _ := cmd.Flags().GetStringArray("ignore")
			return a.Init(boxPath, ignores)
		},
	}
	cmd.Flags().StringArrayP("ignore", "i", nil, "Glob of files to ignore")
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <box-path>",
		Short: "Inspect an area of a codebase for imports and exports. Read only.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			ignores, _ := cmd.Flags().GetStringArray("ignore")
			return a.Inspect(cmd.OutOrStdout(), args[0], ignores)
		},
	}
	cmd.Flags().StringArrayP("ignore", "i", nil, "Glob of files to ignore")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify boxed areas of a codebase comply with defined imports and exports",
		Args:  cobra.NoArgs,
		RunE:  runVerify,
	}
	cmd.Flags().StringArrayP("ignore", "i", nil, "Glob of files to ignore")
	cmd.Flags().Bool("watch", false, "Re-verify on filesystem changes")
	cmd.Flags().String("metrics-addr", "", "Serve prometheus metrics at this address while watching")
	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, cfg, err := buildApp(cmd)
	if err != nil {
		return err
	}
	ignores, _ := cmd.Flags().GetStringArray("ignore")
	watch, _ := cmd.Flags().GetBool("watch")

	if watch {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return a.VerifyWatch(ctx, cmd.OutOrStdout(), ignores, metricsAddr(cmd, cfg))
	}

	hasViolations, err := a.Verify(cmd.OutOrStdout(), ignores)
	if err != nil {
		return err
	}
	if hasViolations {
		return errViolations
	}
	return nil
}

// metricsAddr prefers the --metrics-addr flag; when unset it falls back to
// the metrics.addr config key.
func metricsAddr(cmd *cobra.Command, cfg config.Config) string {
	addr, _ := cmd.Flags().GetString("metrics-addr")
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	return addr
}

func buildApp(cmd *cobra.Command) (*app.App, config.Config, error) {
	explicit := cmd.Root().PersistentFlags().Changed("config")
	cfg, err := config.Load(flagConfig, explicit)
	if err != nil {
		return nil, cfg, err
	}
	a, err := app.New(cfg, ".")
	return a, cfg, err
}
