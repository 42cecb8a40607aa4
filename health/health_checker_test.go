package health

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/pipeline"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

type MockHealthDataStore struct {
	result      *pipeline.Result
	lastUpdated time.Time
	isUpdating  bool
	startTime   time.Time
}

func (m *MockHealthDataStore) GetResult() *pipeline.Result { return m.result }
func (m *MockHealthDataStore) GetScores() []hwi.Score {
	if m.result == nil {
		return nil
	}
	return m.result.Scores
}
func (m *MockHealthDataStore) GetScoresByPharmacy() map[string][]hwi.Score { return nil }
func (m *MockHealthDataStore) GetPeriods() []entities.PeriodRecord         { return nil }
func (m *MockHealthDataStore) GetLastUpdated() time.Time                   { return m.lastUpdated }
func (m *MockHealthDataStore) IsUpdating() bool                            { return m.isUpdating }
func (m *MockHealthDataStore) GetServerStartTime() time.Time               { return m.startTime }
func (m *MockHealthDataStore) UpdateData(result *pipeline.Result)          { m.result = result }
func (m *MockHealthDataStore) BeginUpdate() bool                           { return true }
func (m *MockHealthDataStore) EndUpdate()                                  {}

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

func scoredResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:   "run-1",
		Periods: []entities.PeriodRecord{{PharmacyID: "tanda", Year: 2024}},
		Scores:  []hwi.Score{{PharmacyID: "tanda", Year: 2024}},
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		store          *MockHealthDataStore
		expectedStatus string
		expectedCode   int
	}{
		{
			"healthy",
			&MockHealthDataStore{result: scoredResult(), lastUpdated: time.Now().Add(-time.Hour)},
			"healthy", http.StatusOK,
		},
		{
			"no result yet",
			&MockHealthDataStore{},
			"unhealthy", http.StatusServiceUnavailable,
		},
		{
			"no scores",
			&MockHealthDataStore{result: &pipeline.Result{RunID: "empty"}, lastUpdated: time.Now()},
			"degraded", http.StatusServiceUnavailable,
		},
		{
			"stale",
			&MockHealthDataStore{result: scoredResult(), lastUpdated: time.Now().Add(-30 * time.Hour)},
			"degraded", http.StatusServiceUnavailable,
		},
		{
			"very stale",
			&MockHealthDataStore{result: scoredResult(), lastUpdated: time.Now().Add(-72 * time.Hour)},
			"unhealthy", http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, details, code := NewHealthChecker(tt.store, "06:00;18:00", nil).HealthCheck()

			if status != tt.expectedStatus {
				t.Errorf("Expected status %s, got %s", tt.expectedStatus, status)
			}
			if code != tt.expectedCode {
				t.Errorf("Expected code %d, got %d", tt.expectedCode, code)
			}
			for _, key := range []string{"last_update", "data_age_hours", "is_updating", "next_update"} {
				if _, ok := details[key]; !ok {
					t.Errorf("Details should contain %q", key)
				}
			}
			if _, ok := details["database"]; ok {
				t.Error("Details should not report a database when none is configured")
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	store := &MockHealthDataStore{result: scoredResult(), lastUpdated: time.Now()}
	_, details, _ := NewHealthChecker(store, "06:00", nil).HealthCheck()

	if details["run_id"] != "run-1" {
		t.Errorf("Expected run_id run-1, got %v", details["run_id"])
	}
	if details["scores"] != 1 || details["periods"] != 1 {
		t.Errorf("Expected 1 score and 1 period, got %v and %v", details["scores"], details["periods"])
	}
}

func TestHealthCheckDatabase(t *testing.T) {
	store := &MockHealthDataStore{result: scoredResult(), lastUpdated: time.Now()}

	status, details, code := NewHealthChecker(store, "06:00", mockPinger{}).HealthCheck()
	if status != "healthy" || details["database"] != "ok" {
		t.Errorf("Expected healthy with database ok, got %s and %v", status, details["database"])
	}

	status, details, code = NewHealthChecker(store, "06:00", mockPinger{err: errors.New("refused")}).HealthCheck()
	if status != "degraded" || details["database"] != "unreachable" {
		t.Errorf("Expected degraded with database unreachable, got %s and %v", status, details["database"])
	}
	if code != http.StatusOK {
		t.Errorf("Expected scores to stay servable with 200, got %d", code)
	}
}

func TestNextRun(t *testing.T) {
	schedule := parseSchedule("18:00;06:00")
	loc := time.UTC

	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{"before first run", time.Date(2024, 8, 1, 5, 0, 0, 0, loc), time.Date(2024, 8, 1, 6, 0, 0, 0, loc)},
		{"between runs", time.Date(2024, 8, 1, 12, 0, 0, 0, loc), time.Date(2024, 8, 1, 18, 0, 0, 0, loc)},
		{"exactly at run", time.Date(2024, 8, 1, 6, 0, 0, 0, loc), time.Date(2024, 8, 1, 18, 0, 0, 0, loc)},
		{"after last run", time.Date(2024, 8, 1, 20, 0, 0, 0, loc), time.Date(2024, 8, 2, 6, 0, 0, 0, loc)},
		{"month boundary", time.Date(2024, 8, 31, 23, 0, 0, 0, loc), time.Date(2024, 9, 1, 6, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextRun(tt.now, schedule); !got.Equal(tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseScheduleFallback(t *testing.T) {
	schedule := parseSchedule("garbage")
	if len(schedule) != 2 || schedule[0] != (clock{6, 0}) || schedule[1] != (clock{18, 0}) {
		t.Errorf("Expected default 06:00 and 18:00, got %v", schedule)
	}
}

func BenchmarkHealthCheck(b *testing.B) {
	checker := NewHealthChecker(&MockHealthDataStore{result: scoredResult(), lastUpdated: time.Now()}, "06:00;18:00", nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = checker.HealthCheck()
	}
}
