// Package salesparser reads pharmacy point-of-sale extracts into period records.
package salesparser

import (
	"fmt"
	"strings"

	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

// VracSourceID identifies the pharmacy POS extract source.
const VracSourceID = "vrac"

// VracSource parses ETAT_2080QTE and ETAT_ListeProduitsVendus extracts.
type VracSource struct {
	mappings []entities.FileMapping
}

// NewVracSource builds the source over the given mappings, or the built-in ones when none are given.
func NewVracSource(mappings []entities.FileMapping) *VracSource {
	if len(mappings) == 0 {
		mappings = DefaultMappings()
	}
	return &VracSource{mappings: mappings}
}

func (s *VracSource) ID() string {
	return VracSourceID
}

func (s *VracSource) Description() string {
	return "Pharmacy sales CSV (ETAT_2080QTE, ETAT_ListeProduitsVendus)"
}

// Mappings returns the file mappings, top-20 extracts first.
func (s *VracSource) Mappings() []entities.FileMapping {
	out := make([]entities.FileMapping, len(s.mappings))
	copy(out, s.mappings)
	return out
}

// Parse turns one extract into a period record. It returns nil when the file holds no product rows.
func (s *VracSource) Parse(content string, mapping entities.FileMapping) *entities.PeriodRecord {
	return ParseContent(content, mapping, InferParserType(mapping.File))
}

// ParseContent parses an extract with an explicit layout.
func ParseContent(content string, mapping entities.FileMapping, pt entities.ParserType) *entities.PeriodRecord {
	products := parserFor(pt)(content)
	if len(products) == 0 {
		logging.Debug("No product rows found", "file", mapping.File, "subdir", mapping.Subdir, "parser", string(pt))
		return nil
	}

	total := 0
	for _, p := range products {
		total += p.Quantity
	}

	return &entities.PeriodRecord{
		PharmacyID:    InferPharmacy(mapping),
		Year:          mapping.Year,
		PeriodLabel:   mapping.PeriodLabel,
		PeriodStart:   fmt.Sprintf("%d-08-01", mapping.Year),
		PeriodEnd:     fmt.Sprintf("%d-12-10", mapping.Year),
		Products:      products,
		TotalQuantity: total,
	}
}

// InferPharmacy resolves the pharmacy a mapping belongs to, from its subdirectory first
// and then from the extract file number.
func InferPharmacy(m entities.FileMapping) string {
	if m.Subdir != "" {
		switch {
		case strings.Contains(m.Subdir, "PROLIFE"):
			return "prolife"
		case strings.Contains(m.Subdir, "TANDA"):
			return "tanda"
		case strings.Contains(m.Subdir, "OLYMPIQUE"):
			return "olympique"
		case strings.Contains(m.Subdir, "ATTOBROU"):
			return "attobrou"
		}
	}

	for _, n := range []string{"1", "2", "3", "4"} {
		if strings.Contains(m.File, "ETAT_2080QTE"+n) {
			return "prolife"
		}
	}
	for _, n := range []string{"5", "6", "7", "8"} {
		if strings.Contains(m.File, "ETAT_2080QTE"+n) {
			return "tanda"
		}
	}
	if strings.Contains(m.File, "ListeProduitsVendus") {
		return "tanda"
	}

	return "unknown"
}
