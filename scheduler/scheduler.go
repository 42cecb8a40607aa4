// Package scheduler runs the pipeline on a gocron schedule and swaps each
// result into the data store, then hands it to the configured sinks.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/hwi-pipeline/interfaces"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/go-co-op/gocron"
)

var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	runTimeout     = 10 * time.Minute
	staleThreshold = 25 * time.Hour
)

type Scheduler struct {
	dataStore  interfaces.DataStore
	runner     interfaces.Runner
	validator  interfaces.DataValidator
	sinks      []interfaces.ResultSink
	scheduleAt string
	scheduler  *gocron.Scheduler
	stop       chan struct{}
}

// NewScheduler wires the scheduler. scheduleAt uses gocron's At() syntax, e.g. "06:00;18:00".
func NewScheduler(dataStore interfaces.DataStore, runner interfaces.Runner, validator interfaces.DataValidator,
	scheduleAt string, sinks ...interfaces.ResultSink) *Scheduler {
	return &Scheduler{
		dataStore:  dataStore,
		runner:     runner,
		validator:  validator,
		sinks:      sinks,
		scheduleAt: scheduleAt,
		scheduler:  gocron.NewScheduler(time.Local),
		stop:       make(chan struct{}),
	}
}

// Start runs the pipeline once, then schedules the recurring runs
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial pipeline run", "error", err)
		return fmt.Errorf("initial pipeline run failed: %w", err)
	}

	_, err := s.scheduler.Every(1).Days().At(s.scheduleAt).Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Scheduled pipeline run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pipeline runs: %w", err)
	}

	s.scheduler.StartAsync()
	go s.monitorFreshness(time.Hour)

	logging.Info("Scheduler started", "at", s.scheduleAt)
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// updateData runs the pipeline once. Concurrent calls are skipped.
func (s *Scheduler) updateData() error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Pipeline run already in progress, skipping")
		return nil
	}
	defer s.dataStore.EndUpdate()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to run pipeline: %w", err)
	}

	if s.validator != nil {
		report := s.validator.ReportDataQuality(result.Periods)
		if report.UnclassifiedProducts > 0 {
			logging.Debug("Products outside the scored categories", "count", report.UnclassifiedProducts)
		}
	}

	s.dataStore.UpdateData(result)

	// sink failures do not fail the run
	for _, sink := range s.sinks {
		if err := sink.SaveResult(ctx, result); err != nil {
			logging.Error("Failed to persist pipeline result", "run_id", result.RunID, "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}

	logging.Info("Pipeline result updated",
		"run_id", result.RunID,
		"duration", time.Since(start).String(),
		"scores", len(result.Scores),
	)
	return nil
}

// monitorFreshness warns when no run has succeeded for too long
func (s *Scheduler) monitorFreshness(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if time.Since(s.dataStore.GetLastUpdated()) > staleThreshold {
				logging.Warn("Scores have not been updated in over 25 hours")
			}
		}
	}
}
