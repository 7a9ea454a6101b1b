package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"grantiv/internal/config"
)

var (
	flagConfig  string
	flagVerbose bool

	cfg     config.Config
	logger  *slog.Logger
	rootCtx context.Context
	stop    context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "grantiv",
	Short:         "Grantiv grant application tracker",
	Long:          `Grantiv tracks grant applications through drafting, submission, review and outcome, together with the tasks that lead there.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx, stop = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stop != nil {
			stop()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default: "+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(dashboardCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter " + config.DefaultPath,
	Args:  cobra.NoArgs,
	// Skips config loading: the file usually does not exist yet.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			path = config.DefaultPath
		}
		if err := config.WriteExample(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
