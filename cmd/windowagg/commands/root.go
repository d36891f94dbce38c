// Package commands implements the windowagg command line.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paveg/windowagg"
	"github.com/paveg/windowagg/internal/logging"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "windowagg",
	Short: "Windowed aggregations over Arrow tables",
	Long: `windowagg runs partition-wide transforms, rolling and cumulative
aggregations, and rankings over Arrow-backed tables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "JSON or YAML configuration file (defaults to WINDOWAGG_* environment variables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each operation")

	rootCmd.AddCommand(NewDemoCommand())
	rootCmd.AddCommand(NewBenchCommand())
	rootCmd.AddCommand(NewVersionCommand())
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the configuration from --config, falling back to the environment
func loadConfig() (windowagg.Config, error) {
	var (
		cfg windowagg.Config
		err error
	)
	if configFile != "" {
		cfg, err = windowagg.LoadConfig(configFile)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = windowagg.ConfigFromEnv()
	}
	if verbose {
		cfg.VerboseLogging = true
	}
	return cfg, nil
}

func newLogger() *zap.SugaredLogger {
	if !verbose {
		return logging.NewNopLogger()
	}
	return logging.NewLogger()
}

func newEngine(opts ...windowagg.Option) (*windowagg.Engine, windowagg.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, cfg, err
	}
	opts = append([]windowagg.Option{windowagg.WithConfig(cfg), windowagg.WithLogger(newLogger())}, opts...)
	return windowagg.NewEngine(opts...), cfg, nil
}
