package classification

import (
	"math"
	"testing"
)

func TestValidateWeights(t *testing.T) {
	if !ValidateWeights() {
		t.Error("Expected category weights to sum to 1.0")
	}
}

func TestWeightsCoverScoredCategories(t *testing.T) {
	for _, c := range Categories {
		_, ok := Weights[c]
		if c == Other && ok {
			t.Error("Other must not carry a weight")
		}
		if c != Other && !ok {
			t.Errorf("Missing weight for %s", c)
		}
	}

	if Weight(Other) != 0 {
		t.Errorf("Expected weight 0 for other, got %f", Weight(Other))
	}
	if MaxThreshold(Other) != 1.0 {
		t.Errorf("Expected max threshold 1.0 for other, got %f", MaxThreshold(Other))
	}
	if MaxThreshold(Antimalarial) != 0.35 {
		t.Errorf("Expected max threshold 0.35, got %f", MaxThreshold(Antimalarial))
	}
	if len(Weights) != 7 {
		t.Errorf("Expected 7 weighted categories, got %d", len(Weights))
	}
}

func TestComponentScore(t *testing.T) {
	testCases := []struct {
		share    float64
		category Category
		expected float64
	}{
		{0.1, Antimalarial, 100.0 / 3.5},
		{0.35, Antimalarial, 100},
		{0.9, Antimalarial, 100},
		{0.025, Contraceptives, 50},
		{0, Antibiotics, 0},
		{0.5, Other, 0},
	}

	for _, tc := range testCases {
		got := ComponentScore(tc.share, tc.category)
		if math.Abs(got-tc.expected) > 1e-9 {
			t.Errorf("ComponentScore(%f, %s): expected %f, got %f", tc.share, tc.category, tc.expected, got)
		}
	}
}
