// Package cmd implements the costmap CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/buildmetric/costmap"
	"github.com/buildmetric/costmap/internal/config"
	"github.com/buildmetric/costmap/pkg/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "costmap",
	Short: "Client for the construction cost-estimates backend",
	Long: `costmap talks to the cost-estimates backend: it reads and writes
estimates and projects, watches the live event stream, and manages local
drafts and work-item selections.

Configuration comes from flags, COSTMAP_* environment variables, .env
files, and ~/.costmap.yaml, in that order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loadEnvFiles()

		viper.SetEnvPrefix(config.EnvPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		viper.AutomaticEnv()

		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".costmap")
		}
		// Missing config file is fine, env and flags cover everything.
		_ = viper.ReadInConfig()
		config.Init()

		if verbose {
			_ = os.Setenv("LOG_LEVEL", "debug")
		}
		logging.SetDefault(logging.NewConsole())
		return nil
	},
}

// SetVersion records build metadata for the version command.
func SetVersion(version, commit, date string) {
	rootCmd.Version = version
	buildCommit, buildDate = commit, date
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// newClient assembles a costmap handle from the resolved configuration.
func newClient() (costmap.Costmap, error) {
	opts := []costmap.Option{
		costmap.WithAPIURL(config.APIURL()),
		costmap.WithSSEURL(config.SSEURL()),
		costmap.WithToken(config.Token()),
		costmap.WithCacheTTL(config.CacheTTL()),
		costmap.WithMaxReconnectAttempts(config.MaxAttempts()),
		costmap.WithReconnectDelay(config.ReconnectDelay()),
		costmap.WithLogger(logging.Default()),
	}
	if path := config.DraftDB(); path != "" {
		opts = append(opts, costmap.WithDraftDB(path))
	}
	return costmap.New(opts...)
}

// loadEnvFiles loads .env files without overriding real environment
// variables.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.costmap.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
