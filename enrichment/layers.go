package enrichment

import (
	"strconv"
	"strings"

	"github.com/giygas/hwi-pipeline/catalog"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

// HealthIndexLayer computes the antimalarial share as a malaria burden proxy.
type HealthIndexLayer struct{}

func (HealthIndexLayer) ID() string          { return LayerHealthIndex }
func (HealthIndexLayer) DependsOn() []string { return nil }
func (HealthIndexLayer) Description() string {
	return "Compute antimalarial share as malaria burden proxy"
}

func (HealthIndexLayer) Enrich(p Period) Period {
	index := ComputeHealthIndex(p.PeriodRecord)
	p.HealthIndex = &index
	return p
}

// ComputeHealthIndex sums quantities per coarse category. The breakdown lists
// categories in order of first appearance.
func ComputeHealthIndex(record entities.PeriodRecord) HealthIndex {
	var order []ProductCategory
	counts := map[ProductCategory]int{}

	for _, prod := range record.Products {
		cat := ClassifyProduct(prod.Code, prod.Designation)
		if _, seen := counts[cat]; !seen {
			order = append(order, cat)
		}
		counts[cat] += prod.Quantity
	}

	total := record.EffectiveTotal()
	breakdown := make([]CategoryQuantity, 0, len(order))
	for _, cat := range order {
		breakdown = append(breakdown, CategoryQuantity{Category: string(cat), Quantity: counts[cat]})
	}

	antimalarial := counts[ProductAntimalarial]
	return HealthIndex{
		AntimalarialQuantity: antimalarial,
		AntimalarialShare:    share(antimalarial, total),
		TotalQuantity:        total,
		CategoryBreakdown:    breakdown,
	}
}

// RegionNormalizationLayer maps the pharmacy to its region and cocoa flag.
type RegionNormalizationLayer struct{}

func (RegionNormalizationLayer) ID() string          { return LayerRegionNormalization }
func (RegionNormalizationLayer) DependsOn() []string { return []string{LayerHealthIndex} }
func (RegionNormalizationLayer) Description() string {
	return "Map pharmacy to region label and cocoa/urban flag"
}

func (RegionNormalizationLayer) Enrich(p Period) Period {
	regionID := catalog.RegionOf(strings.ToLower(p.PharmacyID))
	p.RegionInfo = &RegionInfo{
		RegionID:      regionID,
		RegionLabel:   catalog.RegionLabel(regionID),
		IsCocoaRegion: catalog.IsCocoaRegion(regionID),
	}
	return p
}

// AntibioticIndexLayer computes the antibiotic share as an infection proxy.
type AntibioticIndexLayer struct{}

func (AntibioticIndexLayer) ID() string          { return LayerAntibioticIndex }
func (AntibioticIndexLayer) DependsOn() []string { return []string{LayerHealthIndex} }
func (AntibioticIndexLayer) Description() string {
	return "Compute antibiotic share as infection/respiratory proxy"
}

func (AntibioticIndexLayer) Enrich(p Period) Period {
	qty := categoryQuantity(p.PeriodRecord, ProductAntibiotic)
	p.AntibioticIndex = &AntibioticIndex{
		AntibioticQuantity: qty,
		AntibioticShare:    share(qty, p.EffectiveTotal()),
	}
	return p
}

// AnalgesicIndexLayer computes the analgesic share as a pain/comfort proxy.
type AnalgesicIndexLayer struct{}

func (AnalgesicIndexLayer) ID() string          { return LayerAnalgesicIndex }
func (AnalgesicIndexLayer) DependsOn() []string { return []string{LayerHealthIndex} }
func (AnalgesicIndexLayer) Description() string {
	return "Compute analgesic share as pain/comfort proxy"
}

func (AnalgesicIndexLayer) Enrich(p Period) Period {
	qty := categoryQuantity(p.PeriodRecord, ProductAnalgesic)
	p.AnalgesicIndex = &AnalgesicIndex{
		AnalgesicQuantity: qty,
		AnalgesicShare:    share(qty, p.EffectiveTotal()),
	}
	return p
}

// Cocoa main harvest runs Oct to Mar; Aug to Dec spans the rainy season and harvest start.
var harvestMonths = map[int]bool{8: true, 9: true, 10: true, 11: true, 12: true, 1: true, 2: true, 3: true}

const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

// TimeLagIndicatorLayer flags periods starting in the harvest window and grades
// the workforce risk from the antimalarial share.
type TimeLagIndicatorLayer struct{}

func (TimeLagIndicatorLayer) ID() string          { return LayerTimeLagIndicator }
func (TimeLagIndicatorLayer) DependsOn() []string { return []string{LayerHealthIndex} }
func (TimeLagIndicatorLayer) Description() string {
	return "Flag periods aligned with harvest window and workforce risk"
}

func (TimeLagIndicatorLayer) Enrich(p Period) Period {
	antimalarialShare := 0.0
	if p.HealthIndex != nil {
		antimalarialShare = p.HealthIndex.AntimalarialShare
	}

	p.TimeLagIndicator = &TimeLagIndicator{
		InHarvestWindow:    harvestMonths[startMonth(p.PeriodStart)],
		HarvestAlignedRisk: HarvestAlignedRisk(antimalarialShare),
	}
	return p
}

// HarvestAlignedRisk grades an antimalarial share.
func HarvestAlignedRisk(antimalarialShare float64) string {
	switch {
	case antimalarialShare >= 0.15:
		return RiskHigh
	case antimalarialShare >= 0.08:
		return RiskMedium
	default:
		return RiskLow
	}
}

// startMonth reads the month of a YYYY-MM-DD date, 0 when it cannot.
func startMonth(date string) int {
	parts := strings.Split(date, "-")
	if len(parts) < 2 {
		return 0
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return month
}

func categoryQuantity(record entities.PeriodRecord, category ProductCategory) int {
	qty := 0
	for _, prod := range record.Products {
		if ClassifyProduct(prod.Code, prod.Designation) == category {
			qty += prod.Quantity
		}
	}
	return qty
}

func share(qty, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(qty) / float64(total)
}
