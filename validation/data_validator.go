// Package validation checks parsed periods and API input.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/giygas/hwi-pipeline/catalog"
	"github.com/giygas/hwi-pipeline/classification"
	"github.com/giygas/hwi-pipeline/hwi"
	"github.com/giygas/hwi-pipeline/interfaces"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/pipeline"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

var _ pipeline.PeriodValidator = (*DataValidatorImpl)(nil)

var pharmacyIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

const (
	minYear = 2000
	maxYear = 2100
)

type DataValidatorImpl struct{}

func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidatePeriod checks the invariants every parsed period must hold
func (v *DataValidatorImpl) ValidatePeriod(p *entities.PeriodRecord) error {
	if p == nil {
		return fmt.Errorf("period is nil")
	}

	if strings.TrimSpace(p.PharmacyID) == "" {
		return fmt.Errorf("empty pharmacy id")
	}

	if p.Year < minYear || p.Year > maxYear {
		return fmt.Errorf("year out of range for %s: %d", p.PharmacyID, p.Year)
	}

	if strings.TrimSpace(p.PeriodLabel) == "" {
		return fmt.Errorf("empty period label for %s-%d", p.PharmacyID, p.Year)
	}

	if len(p.Products) == 0 {
		return fmt.Errorf("no products for %s-%d", p.PharmacyID, p.Year)
	}

	for i, product := range p.Products {
		if product.Quantity <= 0 {
			return fmt.Errorf("non-positive quantity %d at line %d for %s-%d", product.Quantity, i+1, p.PharmacyID, p.Year)
		}
	}

	if sum := p.SumQuantities(); p.TotalQuantity != sum {
		return fmt.Errorf("total %d does not match product sum %d for %s-%d", p.TotalQuantity, sum, p.PharmacyID, p.Year)
	}

	return nil
}

// ReportDataQuality collects every issue instead of stopping at the first one
func (v *DataValidatorImpl) ReportDataQuality(periods []entities.PeriodRecord) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicatePeriods:  []string{},
		UnknownPharmacies: []string{},
	}

	seen := make(map[string]int)
	unknown := make(map[string]bool)

	for _, p := range periods {
		key := fmt.Sprintf("%s-%d", p.PharmacyID, p.Year)
		seen[key]++
		if seen[key] == 2 {
			report.DuplicatePeriods = append(report.DuplicatePeriods, key)
		}

		if _, ok := catalog.Lookup(p.PharmacyID); !ok && !unknown[p.PharmacyID] {
			unknown[p.PharmacyID] = true
			report.UnknownPharmacies = append(report.UnknownPharmacies, p.PharmacyID)
		}

		if len(p.Products) == 0 {
			report.EmptyPeriods++
			continue
		}

		if p.TotalQuantity != p.SumQuantities() {
			report.TotalMismatches++
		}

		for _, product := range p.Products {
			if product.Quantity <= 0 {
				report.NonPositiveQuantities++
			}
			if strings.TrimSpace(product.Code) == "" {
				report.MissingCodes++
			}
			if classification.Classify(product.Code, product.Designation).Category == classification.Other {
				report.UnclassifiedProducts++
			}
		}
	}

	sort.Strings(report.UnknownPharmacies)

	if len(report.DuplicatePeriods) > 0 || len(report.UnknownPharmacies) > 0 || report.TotalMismatches > 0 {
		logging.Warn("Data quality issues detected",
			"duplicate_periods", len(report.DuplicatePeriods),
			"unknown_pharmacies", report.UnknownPharmacies,
			"total_mismatches", report.TotalMismatches,
		)
	}

	return report
}

// ValidatePharmacyID normalises a pharmacy id path parameter to lower case.
// It does not require the pharmacy to be known.
func (v *DataValidatorImpl) ValidatePharmacyID(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("pharmacy id cannot be empty")
	}

	id := strings.ToLower(input)
	if !pharmacyIDRegex.MatchString(id) {
		return "", fmt.Errorf("pharmacy id must be 1-32 characters of letters, digits, '-' or '_'")
	}

	return id, nil
}

// ValidateYear parses a four digit year query parameter
func (v *DataValidatorImpl) ValidateYear(input string) (int, error) {
	if len(input) != 4 {
		return 0, fmt.Errorf("year should have 4 digits")
	}

	year, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("year contains invalid characters. Only numeric characters are allowed")
	}

	if year < minYear || year > maxYear {
		return 0, fmt.Errorf("year must be between %d and %d", minYear, maxYear)
	}

	return year, nil
}

func (v *DataValidatorImpl) ValidateAlertLevel(input string) (hwi.AlertLevel, error) {
	if len(input) > 16 {
		return "", fmt.Errorf("alert level too long")
	}
	return hwi.ParseAlertLevel(input)
}
