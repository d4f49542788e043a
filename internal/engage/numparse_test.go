package engage

import "testing"

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12.5k curtidas", 12500},
		{"3 comentários", 3},
		{"muitas curtidas", 0},
		{"1,2 mi", 1200000},
		{"850 mil", 850000},
		{"2b views", 2000000000},
		{"4.7m", 4700000},
		{"42", 42},
		{"", 0},
		{"curtir", 0},
	}

	for _, tt := range tests {
		if got := ParseCount(tt.in); got != tt.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
