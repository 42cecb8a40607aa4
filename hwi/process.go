package hwi

import (
	"math"
	"sort"
	"strings"

	"github.com/giygas/hwi-pipeline/classification"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

// PeriodCategory is one category aggregate of one pharmacy period, as stored.
type PeriodCategory struct {
	PharmacyID  string                  `json:"pharmacyId"`
	PeriodLabel string                  `json:"periodLabel"`
	Year        int                     `json:"year"`
	Category    classification.Category `json:"category"`
	Quantity    int                     `json:"quantity"`
	Share       float64                 `json:"share"`
}

// BatchResult holds every category aggregate and score of a batch.
type BatchResult struct {
	CategoryAggregates []PeriodCategory `json:"categoryAggregates"`
	Scores             []Score          `json:"hwiScores"`
}

// ProcessPeriodCategories classifies every product of a period and sums the
// quantities per category. Only observed categories are returned, in order of
// first appearance. Shares use the freshly summed total.
func ProcessPeriodCategories(period entities.PeriodRecord) []PeriodCategory {
	var order []classification.Category
	quantities := map[classification.Category]int{}
	total := 0

	for _, product := range period.Products {
		category := classification.Classify(product.Code, product.Designation).Category
		if _, seen := quantities[category]; !seen {
			order = append(order, category)
		}
		quantities[category] += product.Quantity
		total += product.Quantity
	}

	aggregates := make([]PeriodCategory, 0, len(order))
	for _, category := range order {
		share := 0.0
		if total > 0 {
			share = float64(quantities[category]) / float64(total)
		}
		aggregates = append(aggregates, PeriodCategory{
			PharmacyID:  period.PharmacyID,
			PeriodLabel: period.PeriodLabel,
			Year:        period.Year,
			Category:    category,
			Quantity:    quantities[category],
			Share:       share,
		})
	}

	return aggregates
}

// ProcessPeriodHWI scores one period. It returns nil when the period has no products.
func ProcessPeriodHWI(period entities.PeriodRecord) *Score {
	aggregates := ProcessPeriodCategories(period)
	if len(aggregates) == 0 {
		logging.Warn("No category aggregates for period",
			"pharmacy_id", period.PharmacyID, "period_label", period.PeriodLabel, "year", period.Year)
		return nil
	}

	inputs := make([]CategoryAggregate, len(aggregates))
	for i, agg := range aggregates {
		inputs[i] = CategoryAggregate{Category: agg.Category, Quantity: agg.Quantity, Share: agg.Share}
	}

	departement := period.Departement
	if departement == "" {
		departement = period.Region
	}
	if departement == "" {
		departement = "Unknown"
	}

	score := Calculate(period.PharmacyID, departement, period.PeriodLabel, period.Year, inputs, period.Region)
	return &score
}

// ProcessBatch aggregates and scores every period, keeping input order.
func ProcessBatch(periods []entities.PeriodRecord) BatchResult {
	result := BatchResult{
		CategoryAggregates: []PeriodCategory{},
		Scores:             []Score{},
	}

	for _, period := range periods {
		result.CategoryAggregates = append(result.CategoryAggregates, ProcessPeriodCategories(period)...)
		if score := ProcessPeriodHWI(period); score != nil {
			result.Scores = append(result.Scores, *score)
		}
	}

	return result
}

// CategoryDistribution returns the percentage of sales per observed category.
func CategoryDistribution(period entities.PeriodRecord) map[classification.Category]float64 {
	distribution := map[classification.Category]float64{}
	for _, agg := range ProcessPeriodCategories(period) {
		distribution[agg.Category] = agg.Share * 100
	}
	return distribution
}

// AlertDistribution counts scores per alert level; every level is present.
func AlertDistribution(scores []Score) map[AlertLevel]int {
	counts := make(map[AlertLevel]int, len(AlertLevels))
	for _, level := range AlertLevels {
		counts[level] = 0
	}
	for _, s := range scores {
		counts[s.AlertLevel]++
	}
	return counts
}

type TrendPoint struct {
	Year        int     `json:"year"`
	PeriodLabel string  `json:"periodLabel"`
	HWIScore    float64 `json:"hwiScore"`
	Change      float64 `json:"change"`
	Trend       Trend   `json:"trend,omitempty"`
}

// TrendSeries orders the scores of one pharmacy by year and compares each period
// with the one before it. The first point carries no trend.
func TrendSeries(scores []Score, pharmacyID string) []TrendPoint {
	var own []Score
	for _, s := range scores {
		if strings.EqualFold(s.PharmacyID, pharmacyID) {
			own = append(own, s)
		}
	}

	sort.SliceStable(own, func(i, j int) bool {
		if own[i].Year != own[j].Year {
			return own[i].Year < own[j].Year
		}
		return own[i].PeriodLabel < own[j].PeriodLabel
	})

	points := make([]TrendPoint, len(own))
	for i, s := range own {
		points[i] = TrendPoint{Year: s.Year, PeriodLabel: s.PeriodLabel, HWIScore: s.HWIScore}
		if i > 0 {
			prev := own[i-1].HWIScore
			points[i].Change = math.Round((s.HWIScore-prev)*100) / 100
			points[i].Trend = CalculateTrend(s.HWIScore, prev)
		}
	}

	return points
}
