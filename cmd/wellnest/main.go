package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wellnest/internal/config"
	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/logging"
)

var (
	envFile      string
	databasePath string

	cfg config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:           "wellnest",
	Short:         "Wellnest wellness tracker backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg = config.Load()
		if path := strings.TrimSpace(databasePath); path != "" {
			cfg.DatabasePath = path
		}
		logging.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file (skipped when missing)")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "", "SQLite database path (overrides DATABASE_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDatabase 初始化全局连接
func openDatabase() error {
	if err := db.Init(cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}
