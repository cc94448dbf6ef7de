package analysis

import "testing"

func TestDetectRepetition(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"I I think", true},
		{"I think I", false},
		{"the the", true},
		{"The the", false},
		{"the, the", false},
		{"well   well", true},
		{"line\nline", true},
		{"", false},
		{"single", false},
		{"no repeated words here", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := DetectRepetition(tt.text); got != tt.want {
				t.Errorf("DetectRepetition(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
