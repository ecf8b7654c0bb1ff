package tempograph

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	tg "github.com/soundprediction/tempograph"
	"github.com/soundprediction/tempograph/pkg/config"
	"github.com/soundprediction/tempograph/pkg/telemetry"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a Parquet snapshot of a JSON graph dump",
	Long: `Load a JSON graph dump and write it back out as a pair of Parquet files
(documents and relationships) for offline inspection.`,
	RunE: runExport,
}

var (
	exportInput string
	exportOut   string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportInput, "input", "", "JSON graph dump to load")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "Output directory for the snapshot")
	exportCmd.MarkFlagRequired("input")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := buildLogger(cfg)
	engine := tg.New(&tg.Config{LayerDays: cfg.Graph.LayerDays, Analyzer: cfg.Analyzer}, logger)

	if err := loadGraph(engine, exportInput); err != nil {
		return err
	}

	export := engine.Export(context.Background())
	dir, err := telemetry.WriteSnapshot(exportOut, export)
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	fmt.Printf("Wrote snapshot of %d documents and %d relationships to %s\n",
		len(export.Documents), len(export.Relationships), dir)
	return nil
}
