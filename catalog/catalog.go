// Package catalog holds the reference data of the pharmacy network: pharmacies,
// their departement and their region.
package catalog

import (
	"sort"
	"strings"

	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

const (
	UnknownRegion      = "unknown"
	UnknownDepartement = "Unknown"
)

type Pharmacy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Region      string `json:"region"`
	Location    string `json:"location"`
	RegionLabel string `json:"regionLabel"`
	Departement string `json:"departement"`
}

var pharmacies = map[string]Pharmacy{
	"tanda": {
		ID:          "tanda",
		Name:        "Grande Pharmacie de Tanda",
		Region:      "gontougo",
		Location:    "Tanda, Gontougo",
		RegionLabel: "Gontougo (cocoa)",
		Departement: "Gontougo",
	},
	"prolife": {
		ID:          "prolife",
		Name:        "Pharmacie Prolife",
		Region:      "gontougo",
		Location:    "Tabagne, Gontougo",
		RegionLabel: "Gontougo (cocoa)",
		Departement: "Gontougo",
	},
	"olympique": {
		ID:          "olympique",
		Name:        "Pharmacie Olympique",
		Region:      "abidjan",
		Location:    "Abidjan",
		RegionLabel: "Abidjan (urban)",
		Departement: "Abidjan",
	},
	"attobrou": {
		ID:          "attobrou",
		Name:        "Pharmacie Attobrou",
		Region:      "la_me",
		Location:    "La Mé",
		RegionLabel: "La Mé (cocoa)",
		Departement: "La Mé",
	},
}

var cocoaRegions = map[string]bool{
	"gontougo": true,
	"la_me":    true,
}

// Lookup returns the pharmacy with the given id, case-insensitively.
func Lookup(id string) (Pharmacy, bool) {
	p, ok := pharmacies[strings.ToLower(id)]
	return p, ok
}

// Pharmacies returns every known pharmacy ordered by id.
func Pharmacies() []Pharmacy {
	out := make([]Pharmacy, 0, len(pharmacies))
	for _, p := range pharmacies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RegionOf returns the region id of a pharmacy, or UnknownRegion.
func RegionOf(pharmacyID string) string {
	if p, ok := Lookup(pharmacyID); ok {
		return p.Region
	}
	return UnknownRegion
}

var regionLabels = map[string]string{
	"gontougo": "Gontougo (cocoa)",
	"la_me":    "La Mé (cocoa)",
	"abidjan":  "Abidjan (urban)",
}

// RegionLabel returns the display label of a region, or the region id itself when unknown.
func RegionLabel(regionID string) string {
	if label, ok := regionLabels[regionID]; ok {
		return label
	}
	return regionID
}

// DepartementOf returns the departement of a pharmacy, or UnknownDepartement.
func DepartementOf(pharmacyID string) string {
	if p, ok := Lookup(pharmacyID); ok {
		return p.Departement
	}
	return UnknownDepartement
}

// IsCocoaRegion reports whether a region is a cocoa growing region.
func IsCocoaRegion(regionID string) bool {
	return cocoaRegions[regionID]
}

// Locate returns a copy of the period with its departement and region filled in.
// Unknown pharmacies get UnknownDepartement and UnknownRegion.
func Locate(period entities.PeriodRecord) entities.PeriodRecord {
	located := period
	located.Departement = DepartementOf(period.PharmacyID)
	located.Region = RegionOf(period.PharmacyID)
	return located
}
