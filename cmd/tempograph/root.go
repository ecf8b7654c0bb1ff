package tempograph

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/tempograph/pkg/config"
	tempographLogger "github.com/soundprediction/tempograph/pkg/logger"
	"github.com/soundprediction/tempograph/pkg/telemetry"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "tempograph",
		Short: "Tempograph: Temporal Document Graph Tool",
		Long: `Tempograph is a temporal document graph engine. It stores timestamped
documents with typed relationships and answers temporal questions over them:
reachability, shortest paths, similarity-ranked attention and chunked
bounded-memory analysis of long document spans.`,
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

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tempograph.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json, color)")

	// Bind flags to viper
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".tempograph" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tempograph")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildLogger constructs the process logger from config, wiring the parquet
// telemetry handler in front of the base handler when a path is configured.
func buildLogger(cfg *config.Config) *slog.Logger {
	base := tempographLogger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if cfg.Telemetry.ParquetPath != "" {
		handler, err := telemetry.NewParquetHandler(base.Handler(), cfg.Telemetry.ParquetPath)
		if err != nil {
			base.Warn("telemetry disabled", "error", err)
			return base
		}
		return slog.New(handler)
	}
	return base
}
