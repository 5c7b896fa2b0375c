package cli

import (
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to dot", "", []string{"dot"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "dot,json,svg", []string{"dot", "json", "svg"}},
		{"spaces trimmed", "dot, svg", []string{"dot", "svg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseFormats(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestSplitCommaList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"single", "Intro", 1},
		{"multiple", "Intro,free", 2},
		{"trailing comma", "Intro,", 1},
		{"only commas", ",,", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitCommaList(tt.input)
			if len(got) != tt.want {
				t.Errorf("splitCommaList(%q) length = %d, want %d", tt.input, len(got), tt.want)
			}
		})
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json extension", "pathway.json", "pathway"},
		{"nested path", "out/pathway.json", "out/pathway"},
		{"no extension", "pathway", "pathway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputBase(tt.input); got != tt.want {
				t.Errorf("outputBase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
