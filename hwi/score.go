// Package hwi computes the Household Welfare Index of a pharmacy period from
// its medication category shares.
package hwi

import (
	"math"

	"github.com/giygas/hwi-pipeline/classification"
)

type ComponentScores struct {
	WorkforceHealth   float64 `json:"workforce_health"`
	ChildWelfare      float64 `json:"child_welfare"`
	WomensHealth      float64 `json:"womens_health"`
	WomensEmpowerment float64 `json:"womens_empowerment"`
	Nutrition         float64 `json:"nutrition"`
	ChronicIllness    float64 `json:"chronic_illness"`
	AcuteIllness      float64 `json:"acute_illness"`
}

// CategoryBreakdown is the sales share of every category, absent ones at 0.
type CategoryBreakdown struct {
	Antimalarial     float64 `json:"antimalarial"`
	PediatricORSZinc float64 `json:"pediatric_ors_zinc"`
	PrenatalVitamins float64 `json:"prenatal_vitamins"`
	Contraceptives   float64 `json:"contraceptives"`
	Micronutrients   float64 `json:"micronutrients"`
	ARV              float64 `json:"arv"`
	Antibiotics      float64 `json:"antibiotics"`
	Other            float64 `json:"other"`
}

// Set stores the share of a category. Unknown categories are counted as other.
func (b *CategoryBreakdown) Set(c classification.Category, share float64) {
	switch c {
	case classification.Antimalarial:
		b.Antimalarial = share
	case classification.PediatricORSZinc:
		b.PediatricORSZinc = share
	case classification.PrenatalVitamins:
		b.PrenatalVitamins = share
	case classification.Contraceptives:
		b.Contraceptives = share
	case classification.Micronutrients:
		b.Micronutrients = share
	case classification.ARV:
		b.ARV = share
	case classification.Antibiotics:
		b.Antibiotics = share
	default:
		b.Other = share
	}
}

// Get returns the share of a category.
func (b CategoryBreakdown) Get(c classification.Category) float64 {
	switch c {
	case classification.Antimalarial:
		return b.Antimalarial
	case classification.PediatricORSZinc:
		return b.PediatricORSZinc
	case classification.PrenatalVitamins:
		return b.PrenatalVitamins
	case classification.Contraceptives:
		return b.Contraceptives
	case classification.Micronutrients:
		return b.Micronutrients
	case classification.ARV:
		return b.ARV
	case classification.Antibiotics:
		return b.Antibiotics
	default:
		return b.Other
	}
}

type CategoryAggregate struct {
	Category classification.Category `json:"category"`
	Quantity int                     `json:"quantity"`
	Share    float64                 `json:"share"`
}

type Score struct {
	PharmacyID        string            `json:"pharmacyId"`
	Departement       string            `json:"departement"`
	Region            string            `json:"region,omitempty"`
	PeriodLabel       string            `json:"periodLabel"`
	Year              int               `json:"year"`
	HWIScore          float64           `json:"hwiScore"`
	Components        ComponentScores   `json:"components"`
	AlertLevel        AlertLevel        `json:"alertLevel"`
	CategoryBreakdown CategoryBreakdown `json:"categoryBreakdown"`
	TotalQuantity     int               `json:"totalQuantity"`
}

// CalculateComponentScores normalises each scored share against its crisis threshold.
func CalculateComponentScores(b CategoryBreakdown) ComponentScores {
	return ComponentScores{
		WorkforceHealth:   classification.ComponentScore(b.Antimalarial, classification.Antimalarial),
		ChildWelfare:      classification.ComponentScore(b.PediatricORSZinc, classification.PediatricORSZinc),
		WomensHealth:      classification.ComponentScore(b.PrenatalVitamins, classification.PrenatalVitamins),
		WomensEmpowerment: classification.ComponentScore(b.Contraceptives, classification.Contraceptives),
		Nutrition:         classification.ComponentScore(b.Micronutrients, classification.Micronutrients),
		ChronicIllness:    classification.ComponentScore(b.ARV, classification.ARV),
		AcuteIllness:      classification.ComponentScore(b.Antibiotics, classification.Antibiotics),
	}
}

// CalculateScore is the weighted sum of the component scores, rounded to two
// decimals and capped at 100.
func CalculateScore(c ComponentScores) float64 {
	score := c.WorkforceHealth*classification.Weight(classification.Antimalarial) +
		c.ChildWelfare*classification.Weight(classification.PediatricORSZinc) +
		c.WomensHealth*classification.Weight(classification.PrenatalVitamins) +
		c.WomensEmpowerment*classification.Weight(classification.Contraceptives) +
		c.Nutrition*classification.Weight(classification.Micronutrients) +
		c.ChronicIllness*classification.Weight(classification.ARV) +
		c.AcuteIllness*classification.Weight(classification.Antibiotics)

	return math.Min(math.Round(score*100)/100, 100)
}

// Calculate scores one pharmacy period from its category aggregates. Categories
// missing from aggregates count as a share of 0.
func Calculate(pharmacyID, departement, periodLabel string, year int, aggregates []CategoryAggregate, region string) Score {
	var breakdown CategoryBreakdown
	totalQuantity := 0

	for _, agg := range aggregates {
		totalQuantity += agg.Quantity
		breakdown.Set(agg.Category, agg.Share)
	}

	components := CalculateComponentScores(breakdown)
	score := CalculateScore(components)

	return Score{
		PharmacyID:        pharmacyID,
		Departement:       departement,
		Region:            region,
		PeriodLabel:       periodLabel,
		Year:              year,
		HWIScore:          score,
		Components:        components,
		AlertLevel:        AlertLevelFor(score),
		CategoryBreakdown: breakdown,
		TotalQuantity:     totalQuantity,
	}
}
