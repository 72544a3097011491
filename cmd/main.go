package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryan-cox/choreledger/internal/config"
	"github.com/bryan-cox/choreledger/internal/datekey"
	"github.com/bryan-cox/choreledger/internal/ledger"
	"github.com/bryan-cox/choreledger/internal/store"
)

// --- Cobra Command Definitions ---

var (
	// Used for flags.
	configPath string
	dataDir    string
	backend    string
	verbose    bool

	// logLevel is raised to Info by --verbose.
	logLevel = new(slog.LevelVar)

	// clock is replaced in tests.
	clock datekey.Clock = datekey.SystemClock{}

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "choreledger",
		Short: "A CLI ledger for household chores, recurring tasks and cooking history.",
		Long: `ChoreLedger tracks daily, weekly, monthly and one-time household tasks.
Recurring tasks reopen the day after they are completed, and completed tasks
and cooking history older than the retention window are cleaned up automatically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logLevel.Set(slog.LevelInfo)
			}
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	// Add persistent flags to the root command (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON/JSONC config file.")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the ledger data (overrides config).")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Storage backend: file or sqlite (overrides config).")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log upkeep activity to stderr.")
}

// --- Main Application Entry Point ---

func main() {
	// Setup structured JSON logger; warnings and errors only unless --verbose.
	logLevel.Set(slog.LevelWarn)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	Execute()
}

// --- Helper Functions ---

// openLedger resolves config, opens the store and returns the ledger with a
// function that releases the store.
func openLedger() (*ledger.Ledger, func(), error) {
	cfg, err := config.Load(config.LoadInput{
		ConfigPath:      configPath,
		DataDirOverride: dataDir,
		BackendOverride: backend,
		Env:             environ(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store in '%s': %w", cfg.Backend, cfg.DataDir, err)
	}
	slog.Debug("opened store", "backend", cfg.Backend, "data_dir", cfg.DataDir, "config_sources", cfg.Sources)

	closeFn := func() {
		if err := st.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}
	return ledger.New(st, ledger.WithClock(clock)), closeFn, nil
}

// withLedger opens the ledger for the duration of fn.
func withLedger(cmd *cobra.Command, fn func(ctx context.Context, l *ledger.Ledger) error) error {
	l, closeFn, err := openLedger()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, l)
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
