package enrichment

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/giygas/hwi-pipeline/classification"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

func samplePeriod() entities.PeriodRecord {
	return entities.PeriodRecord{
		PharmacyID:  "Tanda",
		Year:        2024,
		PeriodLabel: "Aug–Dec 2024",
		PeriodStart: "2024-08-01",
		PeriodEnd:   "2024-12-10",
		Products: []entities.ProductSale{
			{Code: "8076190", Designation: "ARTEFAN 80/480 CP", Quantity: 20},
			{Code: "1", Designation: "AMOXICILLINE 500", Quantity: 30},
			{Code: "2", Designation: "PARACETAMOL 500", Quantity: 40},
			{Code: "3", Designation: "SRO ENFANT", Quantity: 10},
		},
		TotalQuantity: 100,
	}
}

func TestDefaultPipelineEnrichesEveryField(t *testing.T) {
	p, err := NewDefaultPipeline()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	out := p.Apply(samplePeriod())

	if out.HealthIndex == nil || out.RegionInfo == nil || out.AntibioticIndex == nil ||
		out.AnalgesicIndex == nil || out.TimeLagIndicator == nil {
		t.Fatalf("Expected every layer output, got %+v", out)
	}

	if out.HealthIndex.AntimalarialQuantity != 20 || out.HealthIndex.AntimalarialShare != 0.2 {
		t.Errorf("Unexpected health index %+v", out.HealthIndex)
	}
	if out.RegionID != "gontougo" || !out.IsCocoaRegion || out.RegionLabel != "Gontougo (cocoa)" {
		t.Errorf("Unexpected region %+v", out.RegionInfo)
	}
	if out.AntibioticIndex.AntibioticQuantity != 30 || out.AntibioticIndex.AntibioticShare != 0.3 {
		t.Errorf("Unexpected antibiotic index %+v", out.AntibioticIndex)
	}
	if out.AnalgesicIndex.AnalgesicQuantity != 40 || out.AnalgesicIndex.AnalgesicShare != 0.4 {
		t.Errorf("Unexpected analgesic index %+v", out.AnalgesicIndex)
	}
	if !out.TimeLagIndicator.InHarvestWindow || out.TimeLagIndicator.HarvestAlignedRisk != RiskHigh {
		t.Errorf("Unexpected time lag indicator %+v", out.TimeLagIndicator)
	}

	if out.PharmacyID != "Tanda" {
		t.Errorf("Expected the record fields to pass through, got %s", out.PharmacyID)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	p, _ := NewDefaultPipeline()
	record := samplePeriod()

	first := p.Apply(record)
	second := p.Apply(record)

	if record.Departement != "" || record.TotalQuantity != 100 || len(record.Products) != 4 {
		t.Errorf("Input record was modified: %+v", record)
	}
	if first.HealthIndex == second.HealthIndex {
		t.Error("Expected each run to produce its own outputs")
	}

	// A layer re-run on an enriched period replaces the pointer, not the value behind it
	previous := first.HealthIndex
	rerun := HealthIndexLayer{}.Enrich(first)
	if rerun.HealthIndex == previous {
		t.Error("Expected a fresh health index")
	}
	if first.HealthIndex != previous || previous.AntimalarialQuantity != 20 {
		t.Error("Earlier layer output was modified")
	}
}

func TestHealthIndexUsesSummedTotalWhenUnset(t *testing.T) {
	record := samplePeriod()
	record.TotalQuantity = 0

	index := ComputeHealthIndex(record)
	if index.TotalQuantity != 100 {
		t.Errorf("Expected summed total 100, got %d", index.TotalQuantity)
	}
	if index.AntimalarialShare != 0.2 {
		t.Errorf("Expected share 0.2, got %f", index.AntimalarialShare)
	}

	expected := []string{"antimalarial", "antibiotic", "analgesic", "other"}
	if len(index.CategoryBreakdown) != len(expected) {
		t.Fatalf("Expected %d breakdown entries, got %d", len(expected), len(index.CategoryBreakdown))
	}
	for i, c := range expected {
		if index.CategoryBreakdown[i].Category != c {
			t.Errorf("Breakdown %d: expected %s, got %s", i, c, index.CategoryBreakdown[i].Category)
		}
	}
}

func TestHealthIndexEmptyPeriod(t *testing.T) {
	index := ComputeHealthIndex(entities.PeriodRecord{})
	if index.AntimalarialShare != 0 || index.TotalQuantity != 0 || len(index.CategoryBreakdown) != 0 {
		t.Errorf("Expected an empty index, got %+v", index)
	}
}

func TestRegionNormalizationUnknownPharmacy(t *testing.T) {
	out := RegionNormalizationLayer{}.Enrich(Period{PeriodRecord: entities.PeriodRecord{PharmacyID: "elsewhere"}})
	if out.RegionID != "unknown" || out.RegionLabel != "unknown" || out.IsCocoaRegion {
		t.Errorf("Unexpected region %+v", out.RegionInfo)
	}

	out = RegionNormalizationLayer{}.Enrich(Period{PeriodRecord: entities.PeriodRecord{PharmacyID: "OLYMPIQUE"}})
	if out.RegionID != "abidjan" || out.IsCocoaRegion {
		t.Errorf("Expected urban abidjan, got %+v", out.RegionInfo)
	}
}

func TestHarvestAlignedRisk(t *testing.T) {
	testCases := []struct {
		share    float64
		expected string
	}{
		{0.15, RiskHigh},
		{0.5, RiskHigh},
		{0.149, RiskMedium},
		{0.08, RiskMedium},
		{0.079, RiskLow},
		{0, RiskLow},
	}
	for _, tc := range testCases {
		if got := HarvestAlignedRisk(tc.share); got != tc.expected {
			t.Errorf("HarvestAlignedRisk(%f): expected %s, got %s", tc.share, tc.expected, got)
		}
	}
}

func TestTimeLagIndicatorWindow(t *testing.T) {
	testCases := []struct {
		start    string
		expected bool
	}{
		{"2024-08-01", true},
		{"2024-01-15", true},
		{"2024-03-31", true},
		{"2024-04-01", false},
		{"2024-07-01", false},
		{"garbage", false},
	}

	for _, tc := range testCases {
		p := Period{PeriodRecord: entities.PeriodRecord{PeriodStart: tc.start}}
		p.HealthIndex = &HealthIndex{AntimalarialShare: 0.1}
		out := TimeLagIndicatorLayer{}.Enrich(p)
		if out.TimeLagIndicator.InHarvestWindow != tc.expected {
			t.Errorf("Start %s: expected in window %v, got %v", tc.start, tc.expected, out.TimeLagIndicator.InHarvestWindow)
		}
		// Risk is graded regardless of the window
		if out.TimeLagIndicator.HarvestAlignedRisk != RiskMedium {
			t.Errorf("Start %s: expected medium risk, got %s", tc.start, out.TimeLagIndicator.HarvestAlignedRisk)
		}
	}
}

func TestProductTaxonomyDivergesFromClassification(t *testing.T) {
	testCases := []struct {
		designation string
		coarse      ProductCategory
		fine        classification.Category
	}{
		// Substring match here, word match in the fine taxonomy
		{"AMFOCINE 500", ProductAntibiotic, classification.Other},
		{"PARACETAMOL 500MG", ProductAnalgesic, classification.Other},
		{"QUININE SRO", ProductAntimalarial, classification.PediatricORSZinc},
		{"AZITHROMYCINE", ProductOther, classification.Antibiotics},
		{"ARTEFANOL", ProductAntimalarial, classification.Other},
	}

	for _, tc := range testCases {
		if got := ClassifyProduct("", tc.designation); got != tc.coarse {
			t.Errorf("ClassifyProduct(%q): expected %s, got %s", tc.designation, tc.coarse, got)
		}
		if got := classification.Classify("", tc.designation).Category; got != tc.fine {
			t.Errorf("Classify(%q): expected %s, got %s", tc.designation, tc.fine, got)
		}
	}

	if ClassifyProduct("8141390", "") != ProductAntimalarial {
		t.Error("Expected antimalarial code match")
	}
	if ClassifyProduct("", "diclofenac gel") != ProductAnalgesic {
		t.Error("Expected case-insensitive analgesic match")
	}
}

func TestEnrichedPeriodJSON(t *testing.T) {
	p, _ := NewDefaultPipeline()
	out := p.Apply(samplePeriod())

	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	body := string(raw)
	for _, key := range []string{`"pharmacyId"`, `"healthIndex"`, `"regionId"`, `"isCocoaRegion"`,
		`"antibioticIndex"`, `"analgesicIndex"`, `"timeLagIndicator"`} {
		if !strings.Contains(body, key) {
			t.Errorf("Expected %s in %s", key, body)
		}
	}

	bare, _ := json.Marshal(Period{PeriodRecord: samplePeriod()})
	if strings.Contains(string(bare), "regionId") || strings.Contains(string(bare), "healthIndex") {
		t.Errorf("Expected no layer fields before enrichment, got %s", bare)
	}

	if math.IsNaN(out.HealthIndex.AntimalarialShare) {
		t.Error("Share must be a number")
	}
}
