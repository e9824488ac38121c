package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rpupo63/issue-tracker/config"
	"github.com/rpupo63/issue-tracker/database"
	"github.com/rpupo63/issue-tracker/logger"
	"github.com/rpupo63/issue-tracker/output"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui  *output.UI
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "issuetracker",
	Short: "Issue tracker REST API",
	Long: `issuetracker serves a per-project issue tracker over HTTP at
/api/issues/{project}, backed by Postgres, SQLite or MongoDB.

Running it without a subcommand starts the server.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().String("config", "", "Config file (YAML); environment variables and .env are always read")
}

func initConfig() {
	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading config %s: %v\n", cfgFile, err)
			os.Exit(1)
		}
	}

	cfg = config.Load(v)
	logger.New(cfg.AppEnv, cfg.LogLevel)
}

func initDeps() {
	ui = &output.UI{
		Out:    rootCmd.OutOrStdout(),
		ErrOut: rootCmd.ErrOrStderr(),
	}
}

// openStore connects to the configured store and makes sure its schema exists.
func openStore(ctx context.Context) (*database.Database, error) {
	db, err := database.Open(ctx, cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Database.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		closeStore(db)
		return nil, fmt.Errorf("migrate %s store: %w", cfg.Database.Type, err)
	}
	return db, nil
}

func closeStore(db *database.Database) {
	if err := db.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("Error closing store")
	}
}
