// Package interfaces defines the contracts between the pipeline, the
// in-memory store, the scheduler and the HTTP layer.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/pipeline"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

// DataQualityReport summarises issues found in a set of periods
type DataQualityReport struct {
	DuplicatePeriods      []string // pharmacy-year keys seen more than once
	UnknownPharmacies     []string
	EmptyPeriods          int
	TotalMismatches       int // declared total differs from the product sum
	NonPositiveQuantities int
	MissingCodes          int
	UnclassifiedProducts  int // products that fall in the "other" category
}

// DataStore holds the latest pipeline result with atomic swaps, so readers
// never see a half-updated result.
type DataStore interface {
	GetResult() *pipeline.Result
	GetScores() []hwi.Score
	GetScoresByPharmacy() map[string][]hwi.Score
	GetPeriods() []entities.PeriodRecord
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(result *pipeline.Result)
	BeginUpdate() bool
	EndUpdate()
}

// Runner produces a complete pipeline result
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// ResultSink persists a pipeline result
type ResultSink interface {
	SaveResult(ctx context.Context, result *pipeline.Result) error
}

// Scheduler manages the recurring pipeline runs
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler serves the read-only API
type HTTPHandler interface {
	ServeScores(w http.ResponseWriter, r *http.Request)
	ServePharmacyScores(w http.ResponseWriter, r *http.Request)
	ServePharmacyTrend(w http.ResponseWriter, r *http.Request)
	ServePeriods(w http.ResponseWriter, r *http.Request)
	ServeAlerts(w http.ResponseWriter, r *http.Request)
	ServeCategories(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports system health
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
	CalculateNextUpdate() time.Time
}

// DataValidator checks parsed periods and user input
type DataValidator interface {
	ValidatePeriod(p *entities.PeriodRecord) error
	ReportDataQuality(periods []entities.PeriodRecord) *DataQualityReport

	ValidatePharmacyID(input string) (string, error)
	ValidateYear(input string) (int, error)
	ValidateAlertLevel(input string) (hwi.AlertLevel, error)
}
