// Package classification assigns pharmaceutical products to the therapeutic
// categories that make up the Household Welfare Index.
package classification

import (
	"regexp"
	"strings"
)

type Category string

const (
	Antimalarial     Category = "antimalarial"
	PediatricORSZinc Category = "pediatric_ors_zinc"
	PrenatalVitamins Category = "prenatal_vitamins"
	Contraceptives   Category = "contraceptives"
	Micronutrients   Category = "micronutrients"
	ARV              Category = "arv"
	Antibiotics      Category = "antibiotics"
	Other            Category = "other"
)

// Categories lists every category, scored ones first.
var Categories = []Category{
	Antimalarial,
	PediatricORSZinc,
	PrenatalVitamins,
	Contraceptives,
	Micronutrients,
	ARV,
	Antibiotics,
	Other,
}

type IndicatorType string

const (
	WorkforceHealth   IndicatorType = "workforce_health"
	ChildWelfare      IndicatorType = "child_welfare"
	WomensHealth      IndicatorType = "womens_health"
	WomensEmpowerment IndicatorType = "womens_empowerment"
	Nutrition         IndicatorType = "nutrition"
	ChronicIllness    IndicatorType = "chronic_illness"
	AcuteIllness      IndicatorType = "acute_illness"
	OtherIndicator    IndicatorType = "other"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Classification struct {
	Category      Category      `json:"category"`
	IndicatorType IndicatorType `json:"indicatorType"`
	Priority      Priority      `json:"priority"`
}

type rule struct {
	class    Classification
	patterns []*regexp.Regexp
	codes    map[string]struct{}
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)\b` + p)
	}
	return out
}

// AntimalarialCodes are the ARTEFAN and PLUFENTRINE product codes seen in the extracts.
var AntimalarialCodes = map[string]struct{}{
	"8076190": {}, // ARTEFAN 80/480 CP
	"8141390": {}, // PLUFENTRINE 80/480MG
	"1307641": {}, // ARTEFAN 20/120MG SUSP
	"2288927": {}, // ARTEFAN 20/120MG CPR
	"8145287": {}, // ARTEFAN 40/240MG CP
	"1307651": {}, // ARTEFAN 40/240MG SUSP
	"8145293": {}, // ARTEFAN 60/360 CP
	"1307661": {}, // ARTEFAN 60/360MG SUSP
	"1307671": {}, // ARTEFAN 80/480MG SUSP
	"1307681": {}, // ARTEFAN DT 40/240
	"8088164": {}, // ARTEFAN 180/1080MG SUSP
	"2298794": {}, // ARTEFAN 20/120 CP B/24
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{
		class: Classification{PediatricORSZinc, ChildWelfare, PriorityHigh},
		patterns: compile(`SRO\b`, `ORS\b`, `ADIARIL\b`, `PEDIALYTE\b`, `ORALYTE\b`, `REHYDRATE\b`,
			`ZINC.*SULFATE`, `ZINC.*DIARRH`, `ZINC.*ORS`, `DIARRH.*ZINC`),
	},
	{
		class: Classification{PrenatalVitamins, WomensHealth, PriorityHigh},
		patterns: compile(`ACIDE.*FOLIQUE`, `FOLIC.*ACID`, `FER.*FOLATE`, `FOLATE.*FER`, `PRENATAL`,
			`GROSSESSE`, `FER.*GROSSESSE`, `VITAMIN.*PRENATAL`, `FER.*B9`, `VITAMINE.*FEMME.*ENCEINTE`),
	},
	{
		class: Classification{Contraceptives, WomensEmpowerment, PriorityHigh},
		patterns: compile(`PREGNON\b`, `NORLEVO\b`, `POSTPILL\b`, `PILULE.*LENDEMAIN`, `CONTRACEPT`,
			`NORGESTREL`, `LEVONORGESTREL`, `ETHINYL.*ESTRADIOL`, `PLAN.*B\b`, `EMERGENCY.*CONTRACEPT`),
	},
	{
		class: Classification{ARV, ChronicIllness, PriorityMedium},
		patterns: compile(`TENOFOVIR`, `EFAVIRENZ`, `LAMIVUDINE`, `NEVIRAPINE`, `ZIDOVUDINE`, `ABACVIR`,
			`RITONAVIR`, `LOPINAVIR`, `DOLUTEGRAVIR`, `EMTRICITABINE`, `ARV\b`, `ANTIRETROVIRAL`, `TRI.*THERAP`),
	},
	{
		class: Classification{Antimalarial, WorkforceHealth, PriorityHigh},
		patterns: compile(`ARTEFAN\b`, `PLUFENTRINE\b`, `ARTEMETHER\b`, `LUMEFANTRINE\b`, `COARTEM\b`,
			`MALARONE\b`, `QUININE\b`, `MEFLOQUINE\b`, `ARTESUNATE\b`, `ARTEMISININ\b`),
		codes: AntimalarialCodes,
	},
	{
		class: Classification{Antibiotics, AcuteIllness, PriorityMedium},
		patterns: compile(`AMOXICILL`, `AMOXICIL\b`, `ACLAV\b`, `AMFOCIN\b`, `METRONIDAZ`, `CIPROFLOX`,
			`PENICILL`, `AZITHROMYCIN`, `CLARITHROMYCIN`, `CEFTRIAXON`, `GENTAMICIN`, `DOXYCYCLIN`,
			`COTRIMOXAZOLE`, `ERYTHROMYCIN`),
	},
	{
		// Diarrhoea zinc never reaches this rule, the first rule claims it
		class: Classification{Micronutrients, Nutrition, PriorityMedium},
		patterns: compile(`VITAMIN.*A\b`, `VITAMINE.*A\b`, `FER.*ELEM`, `IRON.*SUPPLEMENT`, `ZINC\b`,
			`CALCIUM\b`, `MAGNESIUM\b`, `MULTIVITAMIN`, `MICRONUTRIMENT`, `SUPPLEMENT.*NUTRITION`),
	},
}

var otherClassification = Classification{Other, OtherIndicator, PriorityLow}

// Classify returns the classification of a product from its code and designation.
// It is total: anything unmatched is Other.
func Classify(code, designation string) Classification {
	upperCode := strings.ToUpper(code)
	upperDesignation := strings.ToUpper(designation)

	for _, r := range rules {
		if r.codes != nil {
			if _, ok := r.codes[code]; ok {
				return r.class
			}
			if _, ok := r.codes[upperCode]; ok {
				return r.class
			}
		}
		for _, p := range r.patterns {
			if p.MatchString(upperDesignation) {
				return r.class
			}
		}
	}

	return otherClassification
}

var categoryLabels = map[Category]string{
	Antimalarial:     "Antimalarials",
	PediatricORSZinc: "Pediatric ORS/Zinc",
	PrenatalVitamins: "Prenatal Vitamins",
	Contraceptives:   "Contraceptives",
	Micronutrients:   "Micronutrients",
	ARV:              "ARVs (HIV)",
	Antibiotics:      "Antibiotics",
	Other:            "Other",
}

var esgMappings = map[Category]string{
	Antimalarial:     "EUDR, ISSB S2, Living Income",
	PediatricORSZinc: "CSDDD Art. 8, SDG 6, Child Labor Prevention",
	PrenatalVitamins: "Fairtrade 3.5, Rainforest Alliance Ch. 4, SDG 3",
	Contraceptives:   "UN Women, Gender Equity Standards, SDG 5",
	Micronutrients:   "SDG 2, Living Income Gap Analysis",
	ARV:              "ILO C111, SDG 3, Healthcare Access",
	Antibiotics:      "WHO AMR, Healthcare Quality Standards",
	Other:            "General Health",
}

var indicatorLabels = map[IndicatorType]string{
	WorkforceHealth:   "Workforce Health",
	ChildWelfare:      "Child Welfare",
	WomensHealth:      "Women's Health",
	WomensEmpowerment: "Women's Empowerment",
	Nutrition:         "Nutrition & Food Security",
	ChronicIllness:    "Chronic Illness Management",
	AcuteIllness:      "Acute Illness",
	OtherIndicator:    "Other",
}

func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[Other]
}

// ESGMapping names the ESG frameworks a category reports against.
func (c Category) ESGMapping() string {
	if mapping, ok := esgMappings[c]; ok {
		return mapping
	}
	return esgMappings[Other]
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (i IndicatorType) Label() string {
	if label, ok := indicatorLabels[i]; ok {
		return label
	}
	return indicatorLabels[OtherIndicator]
}
