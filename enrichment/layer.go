// Package enrichment derives indicators from period records through a fixed,
// dependency-ordered chain of pure layers.
package enrichment

import "github.com/giygas/hwi-pipeline/salesparser/entities"

const (
	LayerHealthIndex         = "health-index"
	LayerRegionNormalization = "region-normalization"
	LayerAntibioticIndex     = "antibiotic-index"
	LayerAnalgesicIndex      = "analgesic-index"
	LayerTimeLagIndicator    = "time-lag-indicator"
)

// Layer adds derived fields to a period. Enrich receives a copy and returns a
// new value; it never modifies the outputs of earlier layers nor the products.
type Layer interface {
	ID() string
	Description() string
	DependsOn() []string
	Enrich(p Period) Period
}

type CategoryQuantity struct {
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

type HealthIndex struct {
	AntimalarialQuantity int                `json:"antimalarialQuantity"`
	AntimalarialShare    float64            `json:"antimalarialShare"`
	TotalQuantity        int                `json:"totalQuantity"`
	CategoryBreakdown    []CategoryQuantity `json:"categoryBreakdown"`
}

type RegionInfo struct {
	RegionID      string `json:"regionId"`
	RegionLabel   string `json:"regionLabel"`
	IsCocoaRegion bool   `json:"isCocoaRegion"`
}

type AntibioticIndex struct {
	AntibioticQuantity int     `json:"antibioticQuantity"`
	AntibioticShare    float64 `json:"antibioticShare"`
}

type AnalgesicIndex struct {
	AnalgesicQuantity int     `json:"analgesicQuantity"`
	AnalgesicShare    float64 `json:"analgesicShare"`
}

type TimeLagIndicator struct {
	InHarvestWindow    bool   `json:"inHarvestWindow"`
	HarvestAlignedRisk string `json:"harvestAlignedRisk"`
}

// Period is a period record with the outputs of the layers applied so far.
// A nil output means the layer has not run.
type Period struct {
	entities.PeriodRecord
	HealthIndex *HealthIndex `json:"healthIndex,omitempty"`
	*RegionInfo
	AntibioticIndex  *AntibioticIndex  `json:"antibioticIndex,omitempty"`
	AnalgesicIndex   *AnalgesicIndex   `json:"analgesicIndex,omitempty"`
	TimeLagIndicator *TimeLagIndicator `json:"timeLagIndicator,omitempty"`
}
