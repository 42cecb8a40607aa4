package classification

import "testing"

func TestClassify(t *testing.T) {
	testCases := []struct {
		code        string
		designation string
		expected    Category
	}{
		{"8076190", "ANYTHING", Antimalarial},
		{"0000000", "ARTEFAN 20/120 SUSP", Antimalarial},
		{"0000000", "coartem 80/480", Antimalarial},
		{"0000000", "SRO SACHET ENFANT", PediatricORSZinc},
		{"0000000", "ZINC SULFATE 20MG CP", PediatricORSZinc},
		{"0000000", "DIARRHEE ZINC PEDIATRIQUE", PediatricORSZinc},
		{"0000000", "ACIDE FOLIQUE 5MG", PrenatalVitamins},
		{"0000000", "FER + B9 CP", PrenatalVitamins},
		{"0000000", "NORLEVO 1.5MG", Contraceptives},
		{"0000000", "PLAN B", Contraceptives},
		{"0000000", "TENOFOVIR/LAMIVUDINE", ARV},
		{"0000000", "AMOXICILLINE 500MG", Antibiotics},
		{"0000000", "METRONIDAZOLE 250", Antibiotics},
		{"0000000", "VITAMINE A 200000 UI", Micronutrients},
		{"0000000", "ZINC 10MG", Micronutrients},
		{"0000000", "CALCIUM D3", Micronutrients},
		{"0000000", "PARACETAMOL 500MG", Other},
		{"", "", Other},
	}

	for _, tc := range testCases {
		got := Classify(tc.code, tc.designation)
		if got.Category != tc.expected {
			t.Errorf("Classify(%q, %q): expected %s, got %s", tc.code, tc.designation, tc.expected, got.Category)
		}
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// Matches both the ORS and the micronutrient zinc patterns
	if got := Classify("", "ZINC SULFATE ORS"); got.Category != PediatricORSZinc {
		t.Errorf("Expected pediatric_ors_zinc, got %s", got.Category)
	}

	// An ARV designation wins over an antimalarial code
	if got := Classify("8076190", "TENOFOVIR 300MG"); got.Category != ARV {
		t.Errorf("Expected arv, got %s", got.Category)
	}

	// Prenatal wins over micronutrient iron
	if got := Classify("", "FER ELEMENT GROSSESSE"); got.Category != PrenatalVitamins {
		t.Errorf("Expected prenatal_vitamins, got %s", got.Category)
	}
}

func TestClassifyWordBoundaries(t *testing.T) {
	// ARTEFANOL is not ARTEFAN
	if got := Classify("", "ARTEFANOL"); got.Category != Other {
		t.Errorf("Expected other, got %s", got.Category)
	}
	// AMFOCINE does not match the word AMFOCIN
	if got := Classify("", "AMFOCINE 500"); got.Category != Other {
		t.Errorf("Expected other, got %s", got.Category)
	}
}

func TestClassificationFields(t *testing.T) {
	expected := map[Category]struct {
		indicator IndicatorType
		priority  Priority
	}{
		Antimalarial:     {WorkforceHealth, PriorityHigh},
		PediatricORSZinc: {ChildWelfare, PriorityHigh},
		PrenatalVitamins: {WomensHealth, PriorityHigh},
		Contraceptives:   {WomensEmpowerment, PriorityHigh},
		ARV:              {ChronicIllness, PriorityMedium},
		Antibiotics:      {AcuteIllness, PriorityMedium},
		Micronutrients:   {Nutrition, PriorityMedium},
	}

	designations := map[Category]string{
		Antimalarial:     "QUININE",
		PediatricORSZinc: "ORS",
		PrenatalVitamins: "PRENATAL",
		Contraceptives:   "CONTRACEPTIF",
		ARV:              "EFAVIRENZ",
		Antibiotics:      "CIPROFLOXACINE",
		Micronutrients:   "MAGNESIUM",
	}

	for category, designation := range designations {
		got := Classify("", designation)
		want := expected[category]
		if got.Category != category || got.IndicatorType != want.indicator || got.Priority != want.priority {
			t.Errorf("Classify(%q): expected %s/%s/%s, got %+v", designation, category, want.indicator, want.priority, got)
		}
	}

	other := Classify("", "DOLIPRANE")
	if other.IndicatorType != OtherIndicator || other.Priority != PriorityLow {
		t.Errorf("Expected other/low, got %+v", other)
	}
}

func TestLabels(t *testing.T) {
	if ARV.Label() != "ARVs (HIV)" {
		t.Errorf("Expected ARVs (HIV), got %s", ARV.Label())
	}
	if PediatricORSZinc.ESGMapping() != "CSDDD Art. 8, SDG 6, Child Labor Prevention" {
		t.Errorf("Unexpected ESG mapping %s", PediatricORSZinc.ESGMapping())
	}
	if Category("bogus").Label() != "Other" {
		t.Errorf("Expected unknown categories to read as Other")
	}
	if Category("bogus").Valid() {
		t.Error("Expected bogus category to be invalid")
	}
	for _, c := range Categories {
		if !c.Valid() {
			t.Errorf("Expected %s to be valid", c)
		}
	}
	if Nutrition.Label() != "Nutrition & Food Security" {
		t.Errorf("Unexpected indicator label %s", Nutrition.Label())
	}
}
