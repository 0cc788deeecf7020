package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/veloria/storefront/config"
	"github.com/veloria/storefront/internal/httpx"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront CLI - catalog and category inspection tool",
	Long: `A CLI tool for exercising the storefront's catalog search cascade and
inspecting the category hierarchy against the configured backends.`,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()
	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.WarnLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Always use console format for CLI
	var output io.Writer
	noColor := false
	if cfg != nil {
		noColor = cfg.Logging.NoColor
	}
	output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}

	log := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &log
}

func apiClient(baseURL string) *httpx.Client {
	clientCfg := httpx.DefaultConfig(baseURL)
	if cfg != nil {
		clientCfg.Timeout = cfg.Catalog.RequestTimeout
		clientCfg.Retries = cfg.Catalog.Retries
	}
	return httpx.NewClient(clientCfg)
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
