// Package main implements sandboxd - the in-container control plane that
// exposes the interpreter process pool, command & process manager, and
// port exposure/proxy router over HTTP (spec §6).
//
// # File Index
//
//   - main.go    - entry point, rootCmd, global flags
//   - serve.go   - serveCmd: wires every component and runs the HTTP server
//   - status.go  - statusCmd: one-shot JSON dump of a running instance
//   - dashboard.go - dashboardCmd: live terminal view of a running instance
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	workspace  string
	addr       string
	verbose    bool

	// cliLogger is a zap logger for command-line diagnostics, distinct
	// from internal/logging's per-category file logging that serve sets
	// up for the running control plane itself.
	cliLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sandboxd",
	Short: "sandboxd - in-container sandbox control plane",
	Long: `sandboxd runs inside a sandbox container and exposes its interpreter
pools, process manager, and port proxy over HTTP so an orchestrator outside
the container can drive code execution, shell commands, and port exposure
without shelling in directly.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		cliLogger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cliLogger != nil {
			_ = cliLogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/sandboxd/sandboxd.yaml", "Path to sandboxd.yaml")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory override (default: config value)")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:3000", "Base URL of a running sandboxd instance (status/dashboard only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug-level) CLI logging")

	rootCmd.AddCommand(serveCmd, statusCmd, dashboardCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
