package mnemograph

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	root "github.com/mnemograph/mnemograph"
	"github.com/mnemograph/mnemograph/pkg/config"
	"github.com/mnemograph/mnemograph/pkg/scope"
)

var (
	cfgFile     string
	scopeUser   string
	scopeWS     string
	scopeTeam   string

	rootCmd = &cobra.Command{
		Use:   "mnemograph",
		Short: "Mnemograph: search fusion and pattern mining over a development memory graph",
		Long: `Mnemograph searches a property graph of development memories and code
entities with five fused retrieval strategies, and mines the graph for
recurring behavioral patterns.

Every command is scoped: pass --user and/or --team (or a workspace id) to
identify the caller. Unscoped queries are refused.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initConfig()
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mnemograph.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&scopeUser, "user", "", "caller user id")
	rootCmd.PersistentFlags().StringVar(&scopeWS, "workspace", "", "caller workspace id (user:<id> or team:<id>)")
	rootCmd.PersistentFlags().StringVar(&scopeTeam, "team", "", "caller team id")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mnemograph")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func callerScope() scope.Context {
	return scope.Context{
		UserID:      scopeUser,
		WorkspaceID: scopeWS,
		TeamID:      scopeTeam,
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newClient() (*root.Client, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)
	client, err := root.NewClientFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}
