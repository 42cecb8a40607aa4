package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/giygas/hwi-pipeline/config"
	"github.com/giygas/hwi-pipeline/data"
	"github.com/giygas/hwi-pipeline/enrichment"
	"github.com/giygas/hwi-pipeline/handlers"
	"github.com/giygas/hwi-pipeline/health"
	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/interfaces"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/pipeline"
	"github.com/giygas/hwi-pipeline/salesparser"
	"github.com/giygas/hwi-pipeline/scheduler"
	"github.com/giygas/hwi-pipeline/server"
	"github.com/giygas/hwi-pipeline/storage"
	"github.com/giygas/hwi-pipeline/validation"
	"github.com/google/uuid"
)

func newRunner(cfg *config.Config, enrich bool) (*pipeline.Runner, error) {
	mappings, err := salesparser.LoadMappings(cfg.MappingsFile)
	if err != nil {
		return nil, err
	}

	var enricher *enrichment.Pipeline
	if enrich {
		if enricher, err = enrichment.NewDefaultPipeline(); err != nil {
			return nil, fmt.Errorf("failed to assemble enrichment pipeline: %w", err)
		}
	}

	runner := pipeline.NewRunner(cfg.DataDir, enricher, salesparser.NewVracSource(mappings))
	return runner.WithValidator(validation.NewDataValidator()), nil
}

func processCommand(fs *flag.FlagSet) func(context.Context, *config.Config) error {
	enrich := fs.Bool("enrich", false, "also run the enrichment layers and write "+pipeline.EnrichedFile)

	return func(ctx context.Context, cfg *config.Config) error {
		runner, err := newRunner(cfg, *enrich)
		if err != nil {
			return err
		}

		result, err := runner.Run(ctx)
		if err != nil {
			return err
		}

		written, err := pipeline.WriteOutputs(cfg.OutputDir, result)
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d periods from %d files (%d missing, %d empty)\n",
			len(result.Periods), result.Files.Parsed, result.Files.Missing, result.Files.Empty)
		for _, path := range written {
			fmt.Println("  wrote", path)
		}
		printAlertDistribution(os.Stdout, result.AlertDistribution)
		return nil
	}
}

func migrateCommand(fs *flag.FlagSet) func(context.Context, *config.Config) error {
	fromProcessed := fs.Bool("from-processed", false, "persist "+pipeline.ProcessedFile+" from OUTPUT_DIR instead of re-reading the extracts")

	return func(ctx context.Context, cfg *config.Config) error {
		db, err := storage.Connect(ctx, cfg.DatabaseURL, cfg.BatchSize)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}

		run := storage.Run{ID: uuid.NewString(), Command: "migrate", StartedAt: time.Now().UTC()}

		var result *pipeline.Result
		if *fromProcessed {
			periods, err := pipeline.ReadProcessed(filepath.Join(cfg.OutputDir, pipeline.ProcessedFile))
			if err != nil {
				return err
			}
			result = pipeline.Compute(periods)
			result.RunID = run.ID
		} else {
			runner, err := newRunner(cfg, false)
			if err != nil {
				return err
			}
			if result, err = runner.Run(ctx); err != nil {
				return err
			}
			run.ID = result.RunID
		}

		saveErr := db.SaveResult(ctx, result)
		if err := db.RecordRun(ctx, finishRun(run, result, saveErr)); err != nil {
			logging.Error("Failed to record pipeline run", "run_id", run.ID, "error", err)
		}
		if saveErr != nil {
			return saveErr
		}

		fmt.Printf("Persisted %d periods and %d HWI scores (run %s)\n", len(result.Periods), len(result.Scores), run.ID)
		printAlertDistribution(os.Stdout, result.AlertDistribution)
		return nil
	}
}

func calculateCommand(fs *flag.FlagSet) func(context.Context, *config.Config) error {
	return func(ctx context.Context, cfg *config.Config) error {
		db, err := storage.Connect(ctx, cfg.DatabaseURL, cfg.BatchSize)
		if err != nil {
			return err
		}
		defer db.Close()

		run := storage.Run{ID: uuid.NewString(), Command: "calculate", StartedAt: time.Now().UTC()}

		periods, err := db.LoadPeriods(ctx)
		if err != nil {
			return err
		}
		if len(periods) == 0 {
			return errors.New("no product sales persisted yet, run migrate first")
		}

		result := pipeline.Compute(periods)
		result.RunID = run.ID

		saveErr := db.UpsertCategoryAggregates(ctx, result.CategoryAggregates)
		if saveErr == nil {
			saveErr = db.UpsertScores(ctx, result.Scores)
		}
		if err := db.RecordRun(ctx, finishRun(run, result, saveErr)); err != nil {
			logging.Error("Failed to record pipeline run", "run_id", run.ID, "error", err)
		}
		if saveErr != nil {
			return saveErr
		}

		fmt.Printf("Recalculated %d HWI scores from %d periods\n", len(result.Scores), len(periods))
		printAlertDistribution(os.Stdout, result.AlertDistribution)
		return nil
	}
}

func serveCommand(fs *flag.FlagSet) func(context.Context, *config.Config) error {
	enrich := fs.Bool("enrich", false, "run the enrichment layers on every scheduled run")

	return func(ctx context.Context, cfg *config.Config) error {
		runner, err := newRunner(cfg, *enrich)
		if err != nil {
			return err
		}

		sinks := []interfaces.ResultSink{pipeline.FileSink{Dir: cfg.OutputDir}}
		var pinger health.Pinger

		if cfg.DatabaseURL != "" {
			db, err := storage.Connect(ctx, cfg.DatabaseURL, cfg.BatchSize)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}
			sinks = append(sinks, db)
			pinger = db
		} else {
			logging.Warn("DATABASE_URL not set, results are only written to " + cfg.OutputDir)
		}

		dataContainer := data.NewDataContainer()
		dataContainer.SetServerStartTime(time.Now())
		validator := validation.NewDataValidator()

		sched := scheduler.NewScheduler(dataContainer, runner, validator, cfg.ScheduleAt, sinks...)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()

		healthChecker := health.NewHealthChecker(dataContainer, cfg.ScheduleAt, pinger)
		srv := server.NewServer(cfg, handlers.NewHTTPHandler(dataContainer, validator, healthChecker))

		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.Start()
		}()

		select {
		case err := <-errChan:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func finishRun(run storage.Run, result *pipeline.Result, err error) storage.Run {
	run.FinishedAt = time.Now().UTC()
	run.Status = "success"
	if result != nil {
		run.Periods = len(result.Periods)
		run.Scores = len(result.Scores)
		run.Files = result.Files
	}
	if err != nil {
		run.Status = "error"
		run.Error = err.Error()
	}
	return run
}

func printAlertDistribution(w io.Writer, dist map[hwi.AlertLevel]int) {
	fmt.Fprintln(w, "Alert levels:")
	for _, level := range hwi.AlertLevels {
		fmt.Fprintf(w, "  %-7s %d\n", level, dist[level])
	}
}
