package validation

import (
	"strings"
	"testing"

	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

func validPeriod() entities.PeriodRecord {
	return entities.PeriodRecord{
		PharmacyID:  "tanda",
		Year:        2024,
		PeriodLabel: "Aug–Dec 2024",
		Products: []entities.ProductSale{
			{Code: "100", Designation: "COARTEM 80/480 CP", Quantity: 12},
			{Code: "200", Designation: "SAVON DE MARSEILLE", Quantity: 3},
		},
		TotalQuantity: 15,
	}
}

func TestValidatePeriod(t *testing.T) {
	v := NewDataValidator()

	tests := []struct {
		name    string
		mutate  func(p *entities.PeriodRecord)
		wantErr string
	}{
		{"valid", func(p *entities.PeriodRecord) {}, ""},
		{"empty pharmacy", func(p *entities.PeriodRecord) { p.PharmacyID = " " }, "empty pharmacy id"},
		{"year too old", func(p *entities.PeriodRecord) { p.Year = 1999 }, "year out of range"},
		{"empty label", func(p *entities.PeriodRecord) { p.PeriodLabel = "" }, "empty period label"},
		{"no products", func(p *entities.PeriodRecord) { p.Products = nil; p.TotalQuantity = 0 }, "no products"},
		{"zero quantity", func(p *entities.PeriodRecord) { p.Products[1].Quantity = 0; p.TotalQuantity = 12 }, "non-positive quantity"},
		{"total mismatch", func(p *entities.PeriodRecord) { p.TotalQuantity = 99 }, "does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPeriod()
			tt.mutate(&p)

			err := v.ValidatePeriod(&p)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if err := v.ValidatePeriod(nil); err == nil {
		t.Error("Expected error for nil period")
	}
}

func TestReportDataQuality(t *testing.T) {
	v := NewDataValidator()

	dup := validPeriod()
	mismatch := validPeriod()
	mismatch.Year = 2023
	mismatch.TotalQuantity = 1
	stranger := entities.PeriodRecord{PharmacyID: "nowhere", Year: 2024, PeriodLabel: "x"}

	report := v.ReportDataQuality([]entities.PeriodRecord{validPeriod(), dup, mismatch, stranger})

	if len(report.DuplicatePeriods) != 1 || report.DuplicatePeriods[0] != "tanda-2024" {
		t.Errorf("Expected duplicate tanda-2024, got %v", report.DuplicatePeriods)
	}
	if len(report.UnknownPharmacies) != 1 || report.UnknownPharmacies[0] != "nowhere" {
		t.Errorf("Expected unknown pharmacy nowhere, got %v", report.UnknownPharmacies)
	}
	if report.EmptyPeriods != 1 {
		t.Errorf("Expected 1 empty period, got %d", report.EmptyPeriods)
	}
	if report.TotalMismatches != 1 {
		t.Errorf("Expected 1 total mismatch, got %d", report.TotalMismatches)
	}
	// the soap line in each of the three non-empty periods
	if report.UnclassifiedProducts != 3 {
		t.Errorf("Expected 3 unclassified products, got %d", report.UnclassifiedProducts)
	}
}

func TestValidatePharmacyID(t *testing.T) {
	v := NewDataValidator()

	tests := []struct {
		input    string
		expected string
		hasError bool
	}{
		{"tanda", "tanda", false},
		{"PROLIFE", "prolife", false},
		{"pharma_01", "pharma_01", false},
		{"", "", true},
		{"-tanda", "", true},
		{"tanda;drop", "", true},
		{"../etc", "", true},
		{strings.Repeat("a", 33), "", true},
	}

	for _, tt := range tests {
		got, err := v.ValidatePharmacyID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("Expected error for %q, got none", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

func TestValidateYear(t *testing.T) {
	v := NewDataValidator()

	tests := []struct {
		input    string
		expected int
		hasError bool
	}{
		{"2024", 2024, false},
		{"2000", 2000, false},
		{"1999", 0, true},
		{"24", 0, true},
		{"20a4", 0, true},
		{" 2024", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := v.ValidateYear(tt.input)
		if tt.hasError && err == nil {
			t.Errorf("Expected error for %q, got none", tt.input)
		}
		if !tt.hasError && (err != nil || got != tt.expected) {
			t.Errorf("Expected %d for %q, got %d (%v)", tt.expected, tt.input, got, err)
		}
	}
}

func TestValidateAlertLevel(t *testing.T) {
	v := NewDataValidator()

	level, err := v.ValidateAlertLevel("Red")
	if err != nil || level != hwi.AlertRed {
		t.Errorf("Expected red, got %q (%v)", level, err)
	}

	if _, err := v.ValidateAlertLevel("purple"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := v.ValidateAlertLevel(strings.Repeat("r", 40)); err == nil {
		t.Error("Expected error for oversized input")
	}
}
