// Package pipeline runs the extract-to-score chain: read extracts, parse,
// deduplicate, enrich, aggregate and score.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/hwi-pipeline/catalog"
	"github.com/giygas/hwi-pipeline/enrichment"
	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/metrics"
	"github.com/giygas/hwi-pipeline/salesparser"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
	"github.com/google/uuid"
)

// DataSource turns extract files into period records.
type DataSource interface {
	ID() string
	Mappings() []entities.FileMapping
	Parse(content string, mapping entities.FileMapping) *entities.PeriodRecord
}

var _ DataSource = (*salesparser.VracSource)(nil)

// PeriodValidator rejects parsed periods that break the record invariants.
type PeriodValidator interface {
	ValidatePeriod(p *entities.PeriodRecord) error
}

// Result is the output of one run. EnrichedPeriods is empty when enrichment is off.
type Result struct {
	RunID              string                  `json:"runId"`
	ProcessedAt        time.Time               `json:"processedAt"`
	Periods            []entities.PeriodRecord `json:"periods"`
	EnrichedPeriods    []enrichment.Period     `json:"enrichedPeriods,omitempty"`
	PeriodAggregates   []PeriodAggregate       `json:"periodAggregates"`
	HealthIndex        []RegionalHealthIndex   `json:"healthIndex"`
	CategoryAggregates []hwi.PeriodCategory    `json:"categoryAggregates"`
	Scores             []hwi.Score             `json:"hwiScores"`
	AlertDistribution  map[hwi.AlertLevel]int  `json:"alertDistribution"`
	Files              FileStats               `json:"files"`
}

type FileStats struct {
	Parsed   int `json:"parsed"`
	Empty    int `json:"empty"`
	Missing  int `json:"missing"`
	Rejected int `json:"rejected"`
}

// Runner executes the pipeline over a data directory.
type Runner struct {
	sources   []DataSource
	reader    *salesparser.FileReader
	enricher  *enrichment.Pipeline
	validator PeriodValidator
}

// NewRunner builds a runner. A nil enricher disables enrichment.
func NewRunner(dataDir string, enricher *enrichment.Pipeline, sources ...DataSource) *Runner {
	return &Runner{
		sources:  sources,
		reader:   salesparser.NewFileReader(dataDir),
		enricher: enricher,
	}
}

// WithValidator drops every parsed period v rejects.
func (r *Runner) WithValidator(v PeriodValidator) *Runner {
	r.validator = v
	return r
}

// LoadPeriods reads and parses every mapping of every source, then deduplicates.
func (r *Runner) LoadPeriods(ctx context.Context) ([]entities.PeriodRecord, FileStats, error) {
	var stats FileStats
	var periods []entities.PeriodRecord

	for _, source := range r.sources {
		files, err := r.reader.ReadAll(ctx, source.Mappings())
		if err != nil {
			return nil, stats, fmt.Errorf("source %s: %w", source.ID(), err)
		}

		for _, f := range files {
			if !f.Found {
				stats.Missing++
				continue
			}
			period := source.Parse(f.Content, f.Mapping)
			if period == nil {
				stats.Empty++
				logging.Info("Extract has no product rows, skipping", "source", source.ID(), "path", f.Path)
				continue
			}
			if r.validator != nil {
				if err := r.validator.ValidatePeriod(period); err != nil {
					stats.Rejected++
					logging.Warn("Rejected parsed period", "source", source.ID(), "path", f.Path, "error", err)
					continue
				}
			}
			stats.Parsed++
			periods = append(periods, *period)
		}
	}

	metrics.PipelineExtractFiles.WithLabelValues("parsed").Add(float64(stats.Parsed))
	metrics.PipelineExtractFiles.WithLabelValues("empty").Add(float64(stats.Empty))
	metrics.PipelineExtractFiles.WithLabelValues("missing").Add(float64(stats.Missing))
	metrics.PipelineExtractFiles.WithLabelValues("rejected").Add(float64(stats.Rejected))

	return DeduplicatePeriods(periods), stats, nil
}

// Run executes the whole chain and returns every derived record.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	logging.Info("Pipeline run started", "run_id", runID, "sources", len(r.sources), "enrich", r.enricher != nil)

	periods, stats, err := r.LoadPeriods(ctx)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load periods: %w", err)
	}

	result := Compute(periods)
	result.RunID = runID
	result.Files = stats

	if r.enricher != nil {
		result.EnrichedPeriods = r.enricher.ApplyAll(periods)
	}

	for _, level := range hwi.AlertLevels {
		metrics.HWIScoresByAlertLevel.WithLabelValues(string(level)).Set(float64(result.AlertDistribution[level]))
	}
	metrics.PipelinePeriods.Set(float64(len(periods)))
	metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	metrics.PipelineRunDuration.Observe(time.Since(start).Seconds())

	logging.Info("Pipeline run completed",
		"run_id", runID,
		"duration", time.Since(start).String(),
		"periods", len(periods),
		"scores", len(result.Scores),
		"files_parsed", stats.Parsed,
		"files_missing", stats.Missing,
	)

	return result, nil
}

// Compute derives aggregates and scores from already deduplicated periods.
func Compute(periods []entities.PeriodRecord) *Result {
	located := make([]entities.PeriodRecord, len(periods))
	aggregates := make([]PeriodAggregate, len(periods))
	healthIndex := make([]RegionalHealthIndex, len(periods))

	for i, p := range periods {
		located[i] = catalog.Locate(p)
		aggregates[i] = BuildPeriodAggregate(p)
		healthIndex[i] = aggregates[i].HealthIndexRow()
	}

	batch := hwi.ProcessBatch(located)

	return &Result{
		ProcessedAt:        time.Now().UTC(),
		Periods:            periods,
		PeriodAggregates:   aggregates,
		HealthIndex:        healthIndex,
		CategoryAggregates: batch.CategoryAggregates,
		Scores:             batch.Scores,
		AlertDistribution:  hwi.AlertDistribution(batch.Scores),
	}
}
