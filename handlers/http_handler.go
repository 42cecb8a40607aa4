// Package handlers serves the latest HWI results over HTTP.
package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/giygas/hwi-pipeline/catalog"
	"github.com/giygas/hwi-pipeline/classification"
	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/interfaces"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/pipeline"
	"github.com/go-chi/chi/v5"
)

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
}

func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator, healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

type ScoresResponse struct {
	RunID       string      `json:"runId"`
	ProcessedAt time.Time   `json:"processedAt"`
	Count       int         `json:"count"`
	Scores      []hwi.Score `json:"hwiScores"`
}

type PharmacyScoresResponse struct {
	PharmacyID   string                              `json:"pharmacyId"`
	Pharmacy     *catalog.Pharmacy                   `json:"pharmacy,omitempty"`
	RegionLabel  string                              `json:"regionLabel"`
	Scores       []hwi.Score                         `json:"hwiScores"`
	Latest       hwi.Score                           `json:"latest"`
	Distribution map[classification.Category]float64 `json:"categoryDistribution"`
}

type TrendResponse struct {
	PharmacyID string           `json:"pharmacyId"`
	Points     []hwi.TrendPoint `json:"points"`
	Overall    hwi.Trend        `json:"overall,omitempty"`
}

type PeriodsResponse struct {
	Count   int                        `json:"count"`
	Periods []pipeline.PeriodAggregate `json:"periods"`
}

type AlertResponse struct {
	Level              hwi.AlertLevel `json:"level"`
	Description        string         `json:"description"`
	Color              string         `json:"color"`
	RecommendedActions []string       `json:"recommendedActions"`
	Count              int            `json:"count"`
	Scores             []hwi.Score    `json:"hwiScores"`
}

type CategoryInfo struct {
	Category     classification.Category `json:"category"`
	Label        string                  `json:"label"`
	ESGMapping   string                  `json:"esgMapping"`
	Weight       float64                 `json:"weight"`
	MaxThreshold float64                 `json:"maxThreshold"`
	ESGFramework string                  `json:"esgFramework,omitempty"`
	Description  string                  `json:"description,omitempty"`
	Quantity     int                     `json:"quantity"`
}

type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details"`
}

// result returns the latest result, or writes 503 and returns nil before the first run
func (h *HTTPHandlerImpl) result(w http.ResponseWriter) *pipeline.Result {
	result := h.dataStore.GetResult()
	if result == nil {
		RespondWithError(w, http.StatusServiceUnavailable, "Scores are not available yet")
	}
	return result
}

// ServeScores lists every score, optionally filtered by ?year= and ?alert=
func (h *HTTPHandlerImpl) ServeScores(w http.ResponseWriter, r *http.Request) {
	result := h.result(w)
	if result == nil {
		return
	}

	query := r.URL.Query()
	year := 0
	if raw := query.Get("year"); raw != "" {
		y, err := h.validator.ValidateYear(raw)
		if err != nil {
			logging.Warn("Unusual user input", "year", raw)
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		year = y
	}

	var level hwi.AlertLevel
	if raw := query.Get("alert"); raw != "" {
		l, err := h.validator.ValidateAlertLevel(raw)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		level = l
	}

	scores := make([]hwi.Score, 0, len(result.Scores))
	for _, s := range result.Scores {
		if year != 0 && s.Year != year {
			continue
		}
		if level != "" && s.AlertLevel != level {
			continue
		}
		scores = append(scores, s)
	}

	RespondWithJSON(w, r, http.StatusOK, ScoresResponse{
		RunID:       result.RunID,
		ProcessedAt: result.ProcessedAt,
		Count:       len(scores),
		Scores:      scores,
	}, h.dataStore.GetLastUpdated())
}

func (h *HTTPHandlerImpl) pharmacyScores(w http.ResponseWriter, r *http.Request) (string, []hwi.Score, bool) {
	if h.result(w) == nil {
		return "", nil, false
	}

	raw := chi.URLParam(r, "pharmacyId")
	id, err := h.validator.ValidatePharmacyID(raw)
	if err != nil {
		logging.Warn("Unusual user input", "pharmacyId", raw)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}

	scores := h.dataStore.GetScoresByPharmacy()[id]
	if len(scores) == 0 {
		RespondWithError(w, http.StatusNotFound, "No scores for pharmacy "+id)
		return "", nil, false
	}
	return id, scores, true
}

// ServePharmacyScores returns one pharmacy's scores, oldest first
func (h *HTTPHandlerImpl) ServePharmacyScores(w http.ResponseWriter, r *http.Request) {
	id, scores, ok := h.pharmacyScores(w, r)
	if !ok {
		return
	}

	latest := scores[len(scores)-1]
	response := PharmacyScoresResponse{
		PharmacyID:   id,
		RegionLabel:  catalog.RegionLabel(catalog.RegionOf(id)),
		Scores:       scores,
		Latest:       latest,
		Distribution: map[classification.Category]float64{},
	}
	for _, p := range h.dataStore.GetPeriods() {
		if p.PharmacyID == latest.PharmacyID && p.Year == latest.Year && p.PeriodLabel == latest.PeriodLabel {
			response.Distribution = hwi.CategoryDistribution(p)
			break
		}
	}
	if p, found := catalog.Lookup(id); found {
		response.Pharmacy = &p
	}

	RespondWithJSON(w, r, http.StatusOK, response, h.dataStore.GetLastUpdated())
}

// ServePharmacyTrend compares each period of a pharmacy with the previous one
func (h *HTTPHandlerImpl) ServePharmacyTrend(w http.ResponseWriter, r *http.Request) {
	id, scores, ok := h.pharmacyScores(w, r)
	if !ok {
		return
	}

	points := hwi.TrendSeries(scores, id)
	response := TrendResponse{PharmacyID: id, Points: points}
	if len(points) > 1 {
		response.Overall = hwi.CalculateTrend(points[len(points)-1].HWIScore, points[0].HWIScore)
	}

	RespondWithJSON(w, r, http.StatusOK, response, h.dataStore.GetLastUpdated())
}

// ServePeriods lists period aggregates, optionally filtered by ?pharmacy=
func (h *HTTPHandlerImpl) ServePeriods(w http.ResponseWriter, r *http.Request) {
	result := h.result(w)
	if result == nil {
		return
	}

	pharmacy := ""
	if raw := r.URL.Query().Get("pharmacy"); raw != "" {
		id, err := h.validator.ValidatePharmacyID(raw)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		pharmacy = id
	}

	periods := make([]pipeline.PeriodAggregate, 0, len(result.PeriodAggregates))
	for _, p := range result.PeriodAggregates {
		if pharmacy == "" || p.PharmacyID == pharmacy {
			periods = append(periods, p)
		}
	}

	RespondWithJSON(w, r, http.StatusOK, PeriodsResponse{Count: len(periods), Periods: periods}, h.dataStore.GetLastUpdated())
}

// ServeAlerts returns the scores at one alert level, most severe score first
func (h *HTTPHandlerImpl) ServeAlerts(w http.ResponseWriter, r *http.Request) {
	result := h.result(w)
	if result == nil {
		return
	}

	level, err := h.validator.ValidateAlertLevel(chi.URLParam(r, "level"))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	scores := []hwi.Score{}
	for _, s := range result.Scores {
		if s.AlertLevel == level {
			scores = append(scores, s)
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].HWIScore > scores[j].HWIScore })

	RespondWithJSON(w, r, http.StatusOK, AlertResponse{
		Level:              level,
		Description:        level.Description(),
		Color:              level.Color(),
		RecommendedActions: level.RecommendedActions(),
		Count:              len(scores),
		Scores:             scores,
	}, h.dataStore.GetLastUpdated())
}

// ServeCategories describes every category with its weight and the total
// quantity sold in the latest run
func (h *HTTPHandlerImpl) ServeCategories(w http.ResponseWriter, r *http.Request) {
	quantities := map[classification.Category]int{}
	if result := h.dataStore.GetResult(); result != nil {
		for _, agg := range result.CategoryAggregates {
			quantities[agg.Category] += agg.Quantity
		}
	}

	categories := make([]CategoryInfo, 0, len(classification.Categories))
	for _, c := range classification.Categories {
		weight := classification.Weights[c]
		categories = append(categories, CategoryInfo{
			Category:     c,
			Label:        c.Label(),
			ESGMapping:   c.ESGMapping(),
			Weight:       classification.Weight(c),
			MaxThreshold: classification.MaxThreshold(c),
			ESGFramework: weight.ESGFramework,
			Description:  weight.Description,
			Quantity:     quantities[c],
		})
	}

	RespondWithJSON(w, r, http.StatusOK, categories, h.dataStore.GetLastUpdated())
}

func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, code := h.healthChecker.HealthCheck()
	RespondWithJSON(w, nil, code, HealthResponse{Status: status, Details: details}, time.Time{})
}
