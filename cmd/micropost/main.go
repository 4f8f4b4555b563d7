package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DevRickLin/micropost-notify/internal/biz"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
	"github.com/DevRickLin/micropost-notify/internal/conf"
	"github.com/DevRickLin/micropost-notify/internal/data"
	"github.com/DevRickLin/micropost-notify/internal/infra/feishu"
)

// version is set at build time
var version = "dev"

var (
	// Global flags
	verbose bool

	cfg    *conf.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "micropost",
	Short: "Micro-post backend with preset-based notification feeds",
	Long: `micropost serves a micro-post store whose notification feed is computed
at read time from each user's watch presets.

Configuration is read from the environment (and a .env file when present).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load .env: %w", err)
		}

		var err error
		cfg, err = conf.LoadFromEnv()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = conf.NewLogger(cfg.Debug || verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, mcpCmd, seedCmd, feedCmd, migrateCmd)
}

// app holds the wired layers shared by the subcommands
type app struct {
	repos *data.Repositories
	uc    *biz.Usecases
}

// newApp opens the store and wires the usecases. The Feishu notifier is
// attached only when credentials are configured.
func newApp(ctx context.Context) (*app, error) {
	repos, err := data.NewRepositories(ctx, cfg.DB.Driver, cfg.DB.DataSource(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repositories: %w", err)
	}

	var notifier repo.Notifier
	if cfg.Feishu.FeishuEnabled() {
		notifier = data.NewFeishuNotifier(feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, logger))
	}

	uc := biz.NewUsecases(repos.Stores(), notifier, cfg.Digest.ToDigestConfig(), nil, logger)
	return &app{repos: repos, uc: uc}, nil
}

func (a *app) Close() {
	if err := a.repos.Close(); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
