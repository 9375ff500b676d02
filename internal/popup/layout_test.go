package popup

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		want     string
	}{
		{"fits", "Example", 10, "Example"},
		{"exact", "Example", 7, "Example"},
		{"cut", "Example Page", 8, "Example…"},
		{"multibyte", "Überschrift", 5, "Über…"},
		{"width one", "Example", 1, "…"},
		{"unlimited", "Example", 0, "Example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.text, tt.maxWidth); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.text, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestViewportOffset(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		total    int
		visible  int
		want     int
	}{
		{"no scroll needed", 2, 5, 10, 0},
		{"selection near start", 1, 20, 10, 0},
		{"selection in middle", 10, 20, 10, 5},
		{"selection near end", 18, 20, 10, 10},
		{"selection at end", 19, 20, 10, 10},
		{"unknown height", 7, 20, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := viewportOffset(tt.selected, tt.total, tt.visible)
			if got != tt.want {
				t.Errorf("viewportOffset(%d, %d, %d) = %d, want %d",
					tt.selected, tt.total, tt.visible, got, tt.want)
			}
		})
	}
}
