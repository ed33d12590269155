// ABOUTME: Root command for the bookshelf CLI
// ABOUTME: Handles global flags, configuration and launching the interactive UI

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/markalston/bookshelf/internal/config"
	"github.com/markalston/bookshelf/internal/debuglog"
)

var (
	apiURL     string
	jsonOutput bool
	configFile string

	cfg *config.Config
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "Browse a book catalog and manage your reading list",
	Long: `bookshelf is a terminal client for a book catalog service.

Run without a subcommand to open the interactive browser. Subcommands give
one-shot access to the same operations for scripts.

Environment Variables:
  BOOKSHELF_API_URL     Service URL (default: http://localhost:8000)
  BOOKSHELF_PAGE_SIZE   Books per catalog page (default: 50)
  BOOKSHELF_PROXY       SOCKS5 proxy for all requests
  BOOKSHELF_LOG_LEVEL   Debug log level (default: info)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		return debuglog.Init(c.LogDir(), debuglog.Options{Path: c.LogFile, Level: c.LogLevel})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debuglog.Close()
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTUI(ctx)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Service URL (overrides BOOKSHELF_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/bookshelf/config.yaml)")
}

// currentConfig loads configuration once per process.
func currentConfig() (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := config.Load(viper.New(), configFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// GetAPIURL returns the API URL from flag, env, config file or default (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	c, err := currentConfig()
	if err != nil {
		return config.DefaultAPIURL
	}
	return c.APIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
