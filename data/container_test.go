package data

import (
	"sync"
	"testing"
	"time"

	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/pipeline"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

func testResult(runID string) *pipeline.Result {
	return &pipeline.Result{
		RunID: runID,
		Periods: []entities.PeriodRecord{
			{PharmacyID: "tanda", Year: 2024, PeriodLabel: "Aug–Dec 2024"},
			{PharmacyID: "prolife", Year: 2023, PeriodLabel: "Aug–Dec 2023"},
		},
		Scores: []hwi.Score{
			{PharmacyID: "tanda", Year: 2024, HWIScore: 30},
			{PharmacyID: "prolife", Year: 2023, HWIScore: 10},
			{PharmacyID: "TANDA", Year: 2022, HWIScore: 20},
		},
	}
}

func TestNewDataContainer(t *testing.T) {
	dc := NewDataContainer()

	if dc.IsUpdating() {
		t.Error("NewDataContainer should not be updating")
	}
	if !dc.GetLastUpdated().IsZero() {
		t.Error("NewDataContainer should have zero lastUpdated time")
	}
	if dc.GetResult() != nil {
		t.Error("NewDataContainer should have no result")
	}
	if len(dc.GetScores()) != 0 || len(dc.GetPeriods()) != 0 {
		t.Error("NewDataContainer should have empty scores and periods")
	}
	if len(dc.GetScoresByPharmacy()) != 0 {
		t.Error("NewDataContainer should have empty index")
	}
}

func TestUpdateData(t *testing.T) {
	dc := NewDataContainer()
	before := time.Now()

	dc.UpdateData(testResult("run-1"))

	if dc.GetResult().RunID != "run-1" {
		t.Errorf("Expected run-1, got %s", dc.GetResult().RunID)
	}
	if len(dc.GetScores()) != 3 {
		t.Errorf("Expected 3 scores, got %d", len(dc.GetScores()))
	}
	if len(dc.GetPeriods()) != 2 {
		t.Errorf("Expected 2 periods, got %d", len(dc.GetPeriods()))
	}
	if dc.GetLastUpdated().Before(before) {
		t.Error("Expected lastUpdated to be refreshed")
	}

	tanda := dc.GetScoresByPharmacy()["tanda"]
	if len(tanda) != 2 {
		t.Fatalf("Expected 2 tanda scores across id casing, got %d", len(tanda))
	}
	if tanda[0].Year != 2022 || tanda[1].Year != 2024 {
		t.Errorf("Expected years ascending, got %d, %d", tanda[0].Year, tanda[1].Year)
	}
}

func TestUpdateDataWithNil(t *testing.T) {
	dc := NewDataContainer()
	dc.UpdateData(testResult("run-1"))

	dc.UpdateData(nil)

	if dc.GetResult() == nil || dc.GetResult().RunID != "run-1" {
		t.Error("Expected nil update to keep the previous result")
	}
}

func TestBeginUpdateEndUpdate(t *testing.T) {
	dc := NewDataContainer()

	if !dc.BeginUpdate() {
		t.Fatal("Expected first BeginUpdate to succeed")
	}
	if !dc.IsUpdating() {
		t.Error("Expected container to be updating")
	}
	if dc.BeginUpdate() {
		t.Error("Expected second BeginUpdate to fail")
	}

	dc.EndUpdate()

	if dc.IsUpdating() {
		t.Error("Expected container not to be updating after EndUpdate")
	}
	if !dc.BeginUpdate() {
		t.Error("Expected BeginUpdate to succeed after EndUpdate")
	}
}

func TestServerStartTime(t *testing.T) {
	dc := NewDataContainer()
	if !dc.GetServerStartTime().IsZero() {
		t.Error("Expected zero start time")
	}

	now := time.Now()
	dc.SetServerStartTime(now)
	if !dc.GetServerStartTime().Equal(now) {
		t.Errorf("Expected %v, got %v", now, dc.GetServerStartTime())
	}
}

func TestConcurrentReadsDuringUpdate(t *testing.T) {
	dc := NewDataContainer()
	dc.UpdateData(testResult("run-0"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				result := dc.GetResult()
				// scores and runs always come from the same snapshot
				if result != nil && len(result.Scores) != 3 {
					t.Errorf("Expected 3 scores in snapshot, got %d", len(result.Scores))
					return
				}
				_ = dc.GetScoresByPharmacy()["tanda"]
			}
		}()
	}

	for i := 0; i < 50; i++ {
		dc.UpdateData(testResult("run-n"))
	}
	wg.Wait()
}

func BenchmarkGetScoresByPharmacy(b *testing.B) {
	dc := NewDataContainer()
	dc.UpdateData(testResult("bench"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dc.GetScoresByPharmacy()["tanda"]
	}
}
