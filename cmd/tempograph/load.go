package tempograph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tg "github.com/soundprediction/tempograph"
	"github.com/soundprediction/tempograph/pkg/types"
)

// loadGraph reads a JSON graph dump (the Export format) and replays it into
// the engine: documents first, then relationships.
func loadGraph(engine *tg.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read graph file: %w", err)
	}

	var export types.GraphExport
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("failed to parse graph file: %w", err)
	}

	ctx := context.Background()
	for _, doc := range export.Documents {
		if _, err := engine.AddDocument(ctx, doc.ID, doc.Content, doc.Timestamp.Std(), doc.Metadata); err != nil {
			return fmt.Errorf("failed to add document %q: %w", doc.ID, err)
		}
	}
	for _, rel := range export.Relationships {
		if _, err := engine.AddRelationship(ctx, rel.From, rel.To, rel.Kind, rel.Weight, rel.Metadata); err != nil {
			return fmt.Errorf("failed to add relationship %s -> %s: %w", rel.From, rel.To, err)
		}
	}
	return nil
}
