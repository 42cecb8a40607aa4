package pipeline

import (
	"github.com/giygas/hwi-pipeline/enrichment"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

// PeriodAggregate holds the coarse category totals of one period.
type PeriodAggregate struct {
	PharmacyID           string  `json:"pharmacyId"`
	PeriodLabel          string  `json:"periodLabel"`
	PeriodStart          string  `json:"periodStart"`
	PeriodEnd            string  `json:"periodEnd"`
	Year                 int     `json:"year"`
	TotalQuantity        int     `json:"totalQuantity"`
	AntimalarialQuantity int     `json:"antimalarialQuantity"`
	AntibioticQuantity   int     `json:"antibioticQuantity"`
	AnalgesicQuantity    int     `json:"analgesicQuantity"`
	AntimalarialShare    float64 `json:"antimalarialShare"`
}

// RegionalHealthIndex is the antimalarial burden of one period.
type RegionalHealthIndex struct {
	PharmacyID           string  `json:"pharmacyId"`
	PeriodLabel          string  `json:"periodLabel"`
	Year                 int     `json:"year"`
	AntimalarialQuantity int     `json:"antimalarialQuantity"`
	TotalQuantity        int     `json:"totalQuantity"`
	AntimalarialShare    float64 `json:"antimalarialShare"`
}

// BuildPeriodAggregate sums quantities per coarse category. The total is always
// freshly summed from the products.
func BuildPeriodAggregate(p entities.PeriodRecord) PeriodAggregate {
	agg := PeriodAggregate{
		PharmacyID:  p.PharmacyID,
		PeriodLabel: p.PeriodLabel,
		PeriodStart: p.PeriodStart,
		PeriodEnd:   p.PeriodEnd,
		Year:        p.Year,
	}

	for _, product := range p.Products {
		agg.TotalQuantity += product.Quantity
		switch enrichment.ClassifyProduct(product.Code, product.Designation) {
		case enrichment.ProductAntimalarial:
			agg.AntimalarialQuantity += product.Quantity
		case enrichment.ProductAntibiotic:
			agg.AntibioticQuantity += product.Quantity
		case enrichment.ProductAnalgesic:
			agg.AnalgesicQuantity += product.Quantity
		}
	}

	if agg.TotalQuantity > 0 {
		agg.AntimalarialShare = float64(agg.AntimalarialQuantity) / float64(agg.TotalQuantity)
	}

	return agg
}

// HealthIndexRow projects a period aggregate onto its health index row.
func (a PeriodAggregate) HealthIndexRow() RegionalHealthIndex {
	return RegionalHealthIndex{
		PharmacyID:           a.PharmacyID,
		PeriodLabel:          a.PeriodLabel,
		Year:                 a.Year,
		AntimalarialQuantity: a.AntimalarialQuantity,
		TotalQuantity:        a.TotalQuantity,
		AntimalarialShare:    a.AntimalarialShare,
	}
}
