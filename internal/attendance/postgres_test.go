package attendance

import "testing"

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		start, n int
		want     string
	}{
		{2, 1, "$2"},
		{2, 3, "$2, $3, $4"},
		{1, 2, "$1, $2"},
		{5, 0, ""},
	}
	for _, tt := range tests {
		if got := placeholders(tt.start, tt.n); got != tt.want {
			t.Fatalf("placeholders(%d, %d) = %q, want %q", tt.start, tt.n, got, tt.want)
		}
	}
}
