package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/giygas/hwi-pipeline/enrichment"
	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

const (
	ProcessedFile = "processed.json"
	EnrichedFile  = "enriched.json"
	ScoresFile    = "hwi.json"
)

type processedDocument struct {
	Periods     []entities.PeriodRecord `json:"periods"`
	ProcessedAt time.Time               `json:"processedAt"`
}

type enrichedDocument struct {
	EnrichedPeriods []enrichment.Period `json:"enrichedPeriods"`
	ProcessedAt     time.Time           `json:"processedAt"`
}

type scoresDocument struct {
	RunID              string                 `json:"runId"`
	CategoryAggregates []hwi.PeriodCategory   `json:"categoryAggregates"`
	Scores             []hwi.Score            `json:"hwiScores"`
	AlertDistribution  map[hwi.AlertLevel]int `json:"alertDistribution"`
	ProcessedAt        time.Time              `json:"processedAt"`
}

// WriteOutputs writes the run documents into dir. The enriched document is only
// written when the run was enriched.
func WriteOutputs(dir string, result *Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	docs := map[string]any{
		ProcessedFile: processedDocument{Periods: result.Periods, ProcessedAt: result.ProcessedAt},
		ScoresFile: scoresDocument{
			RunID:              result.RunID,
			CategoryAggregates: result.CategoryAggregates,
			Scores:             result.Scores,
			AlertDistribution:  result.AlertDistribution,
			ProcessedAt:        result.ProcessedAt,
		},
	}
	if len(result.EnrichedPeriods) > 0 {
		docs[EnrichedFile] = enrichedDocument{EnrichedPeriods: result.EnrichedPeriods, ProcessedAt: result.ProcessedAt}
	}

	written := []string{}
	for _, name := range []string{ProcessedFile, EnrichedFile, ScoresFile} {
		doc, ok := docs[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if err := writeJSON(path, doc); err != nil {
			return written, err
		}
		written = append(written, path)
		logging.Info("Output written", "path", path)
	}

	return written, nil
}

// writeJSON replaces path through a temporary file so readers never see a partial document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ReadProcessed loads the periods of a processed document.
func ReadProcessed(path string) ([]entities.PeriodRecord, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc processedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc.Periods, nil
}

// FileSink writes every result it receives into Dir.
type FileSink struct {
	Dir string
}

func (s FileSink) SaveResult(ctx context.Context, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := WriteOutputs(s.Dir, result)
	return err
}
