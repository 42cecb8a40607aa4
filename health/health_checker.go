// Package health reports whether the served scores are present and fresh.
package health

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/giygas/hwi-pipeline/interfaces"
)

// Pinger is satisfied by the storage layer.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	schedule  []clock
	db        Pinger
}

type clock struct{ hour, minute int }

// NewHealthChecker builds a checker. scheduleAt is the "HH:MM;HH:MM" run
// schedule; db may be nil when no database is configured.
func NewHealthChecker(dataStore interfaces.DataStore, scheduleAt string, db Pinger) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		schedule:  parseSchedule(scheduleAt),
		db:        db,
	}
}

func parseSchedule(at string) []clock {
	var times []clock
	for _, part := range strings.Split(at, ";") {
		t, err := time.Parse("15:04", strings.TrimSpace(part))
		if err != nil {
			continue
		}
		times = append(times, clock{t.Hour(), t.Minute()})
	}
	if len(times) == 0 {
		times = []clock{{6, 0}, {18, 0}}
	}
	sort.Slice(times, func(i, j int) bool {
		return times[i].hour*60+times[i].minute < times[j].hour*60+times[j].minute
	})
	return times
}

// HealthCheck returns the status, its details and the HTTP code for /health
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	result := h.dataStore.GetResult()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()
	dataAge := time.Since(lastUpdate)

	switch {
	case result == nil:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case len(result.Scores) == 0, dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"is_updating":    isUpdating,
		"next_update":    h.CalculateNextUpdate().Format(time.RFC3339),
		"uptime_seconds": math.Round(time.Since(h.dataStore.GetServerStartTime()).Seconds()),
	}

	if result != nil {
		data["run_id"] = result.RunID
		data["periods"] = len(result.Periods)
		data["scores"] = len(result.Scores)
		data["files_missing"] = result.Files.Missing
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			data["database"] = "unreachable"
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			data["database"] = "ok"
		}
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled run after now
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return nextRun(time.Now(), h.schedule)
}

func nextRun(now time.Time, schedule []clock) time.Time {
	for _, c := range schedule {
		t := time.Date(now.Year(), now.Month(), now.Day(), c.hour, c.minute, 0, 0, now.Location())
		if now.Before(t) {
			return t
		}
	}
	first := schedule[0]
	return time.Date(now.Year(), now.Month(), now.Day(), first.hour, first.minute, 0, 0, now.Location()).AddDate(0, 0, 1)
}
