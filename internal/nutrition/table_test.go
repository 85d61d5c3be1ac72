package nutrition

import (
	"sort"
	"strings"
	"testing"
)

func TestLookup_KnownLabels(t *testing.T) {
	tests := []struct {
		label    string
		expected int
	}{
		{"arroz", 130},
		{"rice", 130},
		{"feijao", 347},
		{"feijão", 347},
		{"beans", 347},
		{"frango", 165},
		{"chicken", 165},
		{"alface", 15},
		{"salt", 0},
	}

	for _, tt := range tests {
		if got := Lookup(tt.label); got != tt.expected {
			t.Errorf("Lookup(%q) = %d, expected %d", tt.label, got, tt.expected)
		}
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	tests := []string{"Arroz", "ARROZ", "aRrOz"}
	for _, label := range tests {
		if got := Lookup(label); got != 130 {
			t.Errorf("Lookup(%q) = %d, expected 130", label, got)
		}
	}
}

func TestLookup_UnknownLabelReturnsZero(t *testing.T) {
	for _, label := range []string{"xyzfood", "", "utensil", "plate"} {
		if got := Lookup(label); got != 0 {
			t.Errorf("Lookup(%q) = %d, expected 0", label, got)
		}
	}
}

func TestLookup_DiacriticDuplicates(t *testing.T) {
	// Every accented entry must have an ASCII-folded twin with the same
	// value, so lookup never depends on accent normalization.
	pairs := []struct {
		accented, folded string
	}{
		{"feijão", "feijao"},
		{"maça", "maca"},
		{"limão", "limao"},
		{"pão", "pao"},
		{"macarrão", "macarrao"},
		{"açúcar", "acucar"},
	}
	for _, p := range pairs {
		if Lookup(p.accented) != Lookup(p.folded) {
			t.Errorf("Lookup(%q) = %d but Lookup(%q) = %d",
				p.accented, Lookup(p.accented), p.folded, Lookup(p.folded))
		}
	}
}

func TestLabels_SortedAndComplete(t *testing.T) {
	labels := Labels()

	if !sort.StringsAreSorted(labels) {
		t.Error("Labels() is not sorted")
	}

	if len(labels) != len(caloriesPer100g) {
		t.Errorf("Labels() has %d entries, table has %d", len(labels), len(caloriesPer100g))
	}

	for _, must := range []string{"arroz", "feijao", "rice", "beans"} {
		idx := sort.SearchStrings(labels, must)
		if idx >= len(labels) || labels[idx] != must {
			t.Errorf("Labels() missing %q", must)
		}
	}
}

func TestLabels_AllLowerCase(t *testing.T) {
	for _, label := range Labels() {
		if label != strings.ToLower(label) {
			t.Errorf("label %q is not lower-case", label)
		}
	}
}
