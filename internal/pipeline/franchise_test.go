package pipeline

import "testing"

func TestFranchiseKey(t *testing.T) {
	tests := []struct {
		title string
		words int
		want  string
	}{
		{"Warhammer 40,000: Darktide", 2, "warhammer 40"},
		{"Portal 2 - DLC Pack", 2, "portal 2"},
		{"Deep Rock Galactic", 2, "deep rock"},
		{"Deep Rock Galactic - Deluxe Edition", 3, "deep rock galactic"},
		{"Left 4 Dead 2", 2, "left 4"},
		{"A", 2, ""},           // single non-digit token
		{"!!! ---", 2, ""},     // nothing survives normalization
		{"Edition Bundle", 2, ""},
		{"It Takes Two", 2, "it takes"},
	}
	for _, tt := range tests {
		if got := FranchiseKey(tt.title, tt.words); got != tt.want {
			t.Errorf("FranchiseKey(%q, %d) = %q, want %q", tt.title, tt.words, got, tt.want)
		}
	}
}
