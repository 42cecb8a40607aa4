package enrichment

import (
	"strings"

	"github.com/giygas/hwi-pipeline/classification"
)

// ProductCategory is the coarse therapeutic grouping used by the share indices.
// It is independent of classification.Classify and may disagree with it.
type ProductCategory string

const (
	ProductAntimalarial ProductCategory = "antimalarial"
	ProductAntibiotic   ProductCategory = "antibiotic"
	ProductAnalgesic    ProductCategory = "analgesic"
	ProductOther        ProductCategory = "other"
)

var (
	antimalarialNames = []string{"ARTEFAN", "PLUFENTRINE", "ARTEMETHER", "LUMEFANTRINE", "COARTEM", "MALARONE", "QUININE"}
	antibioticNames   = []string{"AMOXICILL", "AMOXICIL", "ACLAV", "AMFOCIN", "METRONIDAZ", "CIPROFLOX", "PENICILL"}
	analgesicNames    = []string{"PARACETAMOL", "PARAMED", "NOVALG", "DICLO", "IBUPROF", "ANTALGEX", "LITACOLD"}
)

// ClassifyProduct matches the designation by plain substring.
func ClassifyProduct(code, designation string) ProductCategory {
	upperDesignation := strings.ToUpper(designation)

	if _, ok := classification.AntimalarialCodes[code]; ok {
		return ProductAntimalarial
	}
	if _, ok := classification.AntimalarialCodes[strings.ToUpper(code)]; ok {
		return ProductAntimalarial
	}

	switch {
	case containsAny(upperDesignation, antimalarialNames):
		return ProductAntimalarial
	case containsAny(upperDesignation, antibioticNames):
		return ProductAntibiotic
	case containsAny(upperDesignation, analgesicNames):
		return ProductAnalgesic
	default:
		return ProductOther
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
