package salesparser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/giygas/hwi-pipeline/salesparser/entities"
	"gopkg.in/yaml.v3"
)

type mappingsFile struct {
	Mappings []entities.FileMapping `yaml:"mappings"`
}

// DefaultMappings is the built-in table of known extracts: the ETAT_2080QTE files by
// subdirectory, the same files at the data root, then the ETAT_ListeProduitsVendus files.
func DefaultMappings() []entities.FileMapping {
	var out []entities.FileMapping

	years := []int{2025, 2024, 2023, 2022}
	subdirs := []string{"PROLIFE/2080", "TANDA/2080"}

	for s, subdir := range subdirs {
		for i, year := range years {
			out = append(out, mapping(fmt.Sprintf("ETAT_2080QTE%d.csv", s*len(years)+i+1), subdir, year))
		}
	}
	for s := range subdirs {
		for i, year := range years {
			out = append(out, mapping(fmt.Sprintf("ETAT_2080QTE%d.csv", s*len(years)+i+1), "", year))
		}
	}
	for i, year := range years {
		out = append(out, mapping(fmt.Sprintf("ETAT_ListeProduitsVendus%d.csv", i+1), "TANDA", year))
	}

	return out
}

func mapping(file, subdir string, year int) entities.FileMapping {
	return entities.FileMapping{
		File:        file,
		Subdir:      subdir,
		SourceID:    VracSourceID,
		PeriodLabel: fmt.Sprintf("Aug–Dec %d", year),
		Year:        year,
	}
}

// LoadMappings reads a YAML mapping table. An empty path returns the built-in table.
func LoadMappings(path string) ([]entities.FileMapping, error) {
	if path == "" {
		return DefaultMappings(), nil
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file %s: %w", path, err)
	}

	var file mappingsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mappings file %s: %w", path, err)
	}

	for i, m := range file.Mappings {
		if m.File == "" {
			return nil, fmt.Errorf("mapping %d: file is required", i)
		}
		if m.Year <= 0 {
			return nil, fmt.Errorf("mapping %d (%s): year must be positive", i, m.File)
		}
		if m.PeriodLabel == "" {
			file.Mappings[i].PeriodLabel = fmt.Sprintf("Aug–Dec %d", m.Year)
		}
		if m.SourceID == "" {
			file.Mappings[i].SourceID = VracSourceID
		}
	}

	if len(file.Mappings) == 0 {
		return nil, fmt.Errorf("mappings file %s defines no mappings", path)
	}

	return file.Mappings, nil
}
