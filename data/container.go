// Package data keeps the latest pipeline result in memory for the API.
// Updates swap a whole snapshot atomically, so readers never block and never
// see a result mixed from two runs.
package data

import (
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/interfaces"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/pipeline"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

var _ interfaces.DataStore = (*DataContainer)(nil)

type snapshot struct {
	result     *pipeline.Result
	byPharmacy map[string][]hwi.Score // lower-cased pharmacy id, year ascending
	updatedAt  time.Time
}

type DataContainer struct {
	current         atomic.Value // *snapshot
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.current.Store(&snapshot{byPharmacy: map[string][]hwi.Score{}})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

func (dc *DataContainer) load() *snapshot {
	if s, ok := dc.current.Load().(*snapshot); ok && s != nil {
		return s
	}
	logging.Warn("Data container snapshot is empty or invalid")
	return &snapshot{byPharmacy: map[string][]hwi.Score{}}
}

// GetResult returns the latest result, nil before the first run
func (dc *DataContainer) GetResult() *pipeline.Result {
	return dc.load().result
}

func (dc *DataContainer) GetScores() []hwi.Score {
	if r := dc.load().result; r != nil && r.Scores != nil {
		return r.Scores
	}
	return []hwi.Score{}
}

// GetScoresByPharmacy indexes scores by lower-cased pharmacy id
func (dc *DataContainer) GetScoresByPharmacy() map[string][]hwi.Score {
	return dc.load().byPharmacy
}

func (dc *DataContainer) GetPeriods() []entities.PeriodRecord {
	if r := dc.load().result; r != nil && r.Periods != nil {
		return r.Periods
	}
	return []entities.PeriodRecord{}
}

func (dc *DataContainer) GetLastUpdated() time.Time {
	return dc.load().updatedAt
}

func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

func (dc *DataContainer) GetServerStartTime() time.Time {
	if startTime, ok := dc.serverStartTime.Load().(time.Time); ok {
		return startTime
	}
	return time.Time{}
}

// UpdateData swaps in a new result. A nil result is ignored.
func (dc *DataContainer) UpdateData(result *pipeline.Result) {
	if result == nil {
		logging.Warn("Ignoring nil pipeline result")
		return
	}

	byPharmacy := make(map[string][]hwi.Score)
	for _, s := range result.Scores {
		key := strings.ToLower(s.PharmacyID)
		byPharmacy[key] = append(byPharmacy[key], s)
	}
	for _, scores := range byPharmacy {
		sort.SliceStable(scores, func(i, j int) bool { return scores[i].Year < scores[j].Year })
	}

	dc.current.Store(&snapshot{
		result:     result,
		byPharmacy: byPharmacy,
		updatedAt:  time.Now(),
	})
}

// BeginUpdate returns false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
