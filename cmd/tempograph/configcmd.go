package tempograph

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soundprediction/tempograph/pkg/analyzer"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage tempograph configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE:  runConfigInit,
}

var configInitPath string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "Target path (default is $HOME/.tempograph.yaml)")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configInitPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".tempograph.yaml")
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	def := analyzer.DefaultConfig()
	starter := map[string]interface{}{
		"log": map[string]interface{}{
			"level":  "info",
			"format": "text",
		},
		"server": map[string]interface{}{
			"host": "localhost",
			"port": 8080,
			"mode": "release",
		},
		"graph": map[string]interface{}{
			"layer_days": 7,
		},
		"traversal": map[string]interface{}{
			"time_window_days": 30,
			"max_hops":         10,
		},
		"analyzer": map[string]interface{}{
			"chunk_size_days":        def.ChunkSizeDays,
			"max_carryover_events":   def.MaxCarryoverEvents,
			"max_carryover_entities": def.MaxCarryoverEntities,
			"max_carryover_chains":   def.MaxCarryoverChains,
			"importance_threshold":   def.ImportanceThreshold,
			"weights": map[string]interface{}{
				"connectivity": def.Weights.Connectivity,
				"attention":    def.Weights.Attention,
				"recency":      def.Weights.Recency,
			},
			"workers": def.Workers,
		},
	}

	data, err := yaml.Marshal(starter)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Wrote starter config to %s\n", path)
	return nil
}
