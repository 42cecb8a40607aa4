package classification

import "math"

type CategoryWeight struct {
	Weight       float64 `json:"weight"`
	MaxThreshold float64 `json:"maxThreshold"`
	ESGFramework string  `json:"esgFramework"`
	Description  string  `json:"description"`
}

// Weights of the scored categories. They sum to 1.0. MaxThreshold is the sales
// share treated as a severe crisis for the category.
var Weights = map[Category]CategoryWeight{
	Antimalarial: {
		Weight:       0.25,
		MaxThreshold: 0.35,
		ESGFramework: "EUDR Article 3, ISSB S2, Living Income Benchmarks",
		Description:  "Workforce health - Malaria impacts agricultural productivity and family income",
	},
	PediatricORSZinc: {
		Weight:       0.20,
		MaxThreshold: 0.15,
		ESGFramework: "CSDDD Article 8, SDG 6, ICI Child Labor Standards",
		Description:  "Child welfare - Diarrheal disease indicates WASH crisis and household stress",
	},
	PrenatalVitamins: {
		Weight:       0.15,
		MaxThreshold: 0.08,
		ESGFramework: "Fairtrade 3.5, Rainforest Alliance Chapter 4, SDG 3",
		Description:  "Maternal health - Prenatal care access indicates women's healthcare quality",
	},
	Contraceptives: {
		Weight:       0.15,
		MaxThreshold: 0.05,
		ESGFramework: "UN Women Empowerment Principles, Gender Equity, SDG 5",
		Description:  "Women's empowerment - Family planning access enables economic participation",
	},
	Micronutrients: {
		Weight:       0.10,
		MaxThreshold: 0.12,
		ESGFramework: "SDG 2 (Zero Hunger), Living Income Gap Analysis",
		Description:  "Nutrition - Micronutrient needs indicate food insecurity and malnutrition",
	},
	ARV: {
		Weight:       0.10,
		MaxThreshold: 0.08,
		ESGFramework: "ILO Convention 111, SDG 3, Healthcare Access",
		Description:  "Chronic illness - HIV burden reflects healthcare system capacity",
	},
	Antibiotics: {
		Weight:       0.05,
		MaxThreshold: 0.20,
		ESGFramework: "WHO Antimicrobial Resistance Strategy",
		Description:  "Acute illness - Bacterial infection rates indicate general health conditions",
	},
}

const weightTolerance = 0.0001

// ValidateWeights reports whether the category weights sum to 1.0.
func ValidateWeights() bool {
	sum := 0.0
	for _, w := range Weights {
		sum += w.Weight
	}
	return math.Abs(sum-1.0) < weightTolerance
}

// Weight returns the composite weight of a category; Other weighs nothing.
func Weight(c Category) float64 {
	return Weights[c].Weight
}

// MaxThreshold returns the crisis share of a category; Other has 1.0.
func MaxThreshold(c Category) float64 {
	if w, ok := Weights[c]; ok {
		return w.MaxThreshold
	}
	return 1.0
}

// ComponentScore normalises a category share to 0..100, where 100 is the crisis level.
func ComponentScore(share float64, c Category) float64 {
	w, ok := Weights[c]
	if !ok {
		return 0
	}
	return math.Min(share/w.MaxThreshold*100, 100)
}
