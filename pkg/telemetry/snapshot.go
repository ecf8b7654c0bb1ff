package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/soundprediction/tempograph/pkg/types"
)

// DocumentRecord is the flattened Parquet row for one document.
type DocumentRecord struct {
	ID        string    `parquet:"id"`
	Content   string    `parquet:"content"`
	Timestamp time.Time `parquet:"timestamp"`
	LayerID   string    `parquet:"layer_id"`
}

// RelationshipRecord is the flattened Parquet row for one edge.
type RelationshipRecord struct {
	From    string  `parquet:"from"`
	To      string  `parquet:"to"`
	Kind    string  `parquet:"kind"`
	Weight  float64 `parquet:"weight"`
	Warning string  `parquet:"warning"`
}

// WriteSnapshot writes a full graph export as a pair of Parquet files under
// outputDir, one for documents and one for relationships, sharing a
// snapshot id. It returns the snapshot directory.
func WriteSnapshot(outputDir string, export *types.GraphExport) (string, error) {
	snapshotID := uuid.NewString()
	dir := filepath.Join(outputDir, fmt.Sprintf("snapshot_%s_%s", time.Now().Format("20060102_150405"), snapshotID[:8]))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	docs := make([]DocumentRecord, 0, len(export.Documents))
	for _, doc := range export.Documents {
		docs = append(docs, DocumentRecord{
			ID:        doc.ID,
			Content:   doc.Content,
			Timestamp: doc.Timestamp.Std(),
			LayerID:   doc.LayerID,
		})
	}
	if err := parquet.WriteFile(filepath.Join(dir, "documents.parquet"), docs); err != nil {
		return "", fmt.Errorf("failed to write documents snapshot: %w", err)
	}

	rels := make([]RelationshipRecord, 0, len(export.Relationships))
	for _, rel := range export.Relationships {
		rels = append(rels, RelationshipRecord{
			From:    rel.From,
			To:      rel.To,
			Kind:    string(rel.Kind),
			Weight:  rel.Weight,
			Warning: rel.Warning,
		})
	}
	if err := parquet.WriteFile(filepath.Join(dir, "relationships.parquet"), rels); err != nil {
		return "", fmt.Errorf("failed to write relationships snapshot: %w", err)
	}

	return dir, nil
}
