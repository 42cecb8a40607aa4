package pipeline

import (
	"fmt"
	"sort"

	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

// DeduplicatePeriods keeps one record per pharmacy and year: the one with the
// most products, the first seen on a tie. Records are never merged. The result
// is sorted by pharmacy id, then by year with the most recent first.
func DeduplicatePeriods(periods []entities.PeriodRecord) []entities.PeriodRecord {
	byKey := make(map[string]int, len(periods))
	kept := make([]entities.PeriodRecord, 0, len(periods))

	for _, p := range periods {
		key := fmt.Sprintf("%s-%d", p.PharmacyID, p.Year)
		idx, ok := byKey[key]
		if !ok {
			byKey[key] = len(kept)
			kept = append(kept, p)
			continue
		}
		if len(p.Products) > len(kept[idx].Products) {
			kept[idx] = p
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].PharmacyID != kept[j].PharmacyID {
			return kept[i].PharmacyID < kept[j].PharmacyID
		}
		return kept[i].Year > kept[j].Year
	})

	return kept
}
