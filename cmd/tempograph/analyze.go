package tempograph

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	tg "github.com/soundprediction/tempograph"
	"github.com/soundprediction/tempograph/pkg/config"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a chunked analysis over a JSON graph dump",
	Long: `Load a JSON graph dump, run the chunked bounded-memory analysis between
two documents and print the synthesis, key events and performance figures.`,
	RunE: runAnalyze,
}

var (
	analyzeInput   string
	analyzeStart   string
	analyzeEnd     string
	analyzeMaxDays int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "JSON graph dump to load")
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "Start document id")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "End document id")
	analyzeCmd.Flags().IntVar(&analyzeMaxDays, "max-days", 0, "Cap on the analyzed span in days (0 = unbounded)")
	analyzeCmd.Flags().Int("chunk-days", 0, "Window size in days (0 = configured default)")
	analyzeCmd.MarkFlagRequired("input")
	analyzeCmd.MarkFlagRequired("start")
	analyzeCmd.MarkFlagRequired("end")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if chunkDays, _ := cmd.Flags().GetInt("chunk-days"); chunkDays > 0 {
		cfg.Analyzer.ChunkSizeDays = chunkDays
	}

	logger := buildLogger(cfg)
	engine := tg.New(&tg.Config{
		LayerDays: cfg.Graph.LayerDays,
		Analyzer:  cfg.Analyzer,
	}, logger)

	if err := loadGraph(engine, analyzeInput); err != nil {
		return err
	}

	result, err := engine.AnalyzeChain(context.Background(), analyzeStart, analyzeEnd, analyzeMaxDays)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fmt.Printf("Run %s\n\n%s\n", result.RunID, result.Synthesis)

	if len(result.KeyEvents) > 0 {
		fmt.Println("\nKey events:")
		for _, ev := range result.KeyEvents {
			fmt.Printf("  %s  %s  (importance %.2f)\n", ev.Timestamp, ev.DocumentID, ev.Importance)
		}
	}

	for _, chunk := range result.Chunks {
		for _, q := range chunk.OpenQuestions {
			fmt.Printf("open question: %s\n", q)
		}
	}

	perf := result.Performance
	fmt.Printf("\n%d documents in %d windows, elapsed %s (estimated full-context %s, speedup %.1fx)\n",
		perf.DocumentCount, perf.WindowCount, perf.Elapsed, perf.EstimatedFullCtx, perf.Speedup)
	return nil
}
