package memdocs

import (
	"math"
	"testing"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		def  int
		max  int
		want int
	}{
		{"search over max", "99", 5, 20, 20},
		{"list over max", "999", 10, 50, 50},
		{"within range string", "12", 10, 50, 12},
		{"within range int", 7, 5, 20, 7},
		{"json number", float64(15), 5, 20, 15},
		{"below minimum", "3", 5, 20, 5},
		{"non-numeric", "abc", 5, 20, 5},
		{"empty string", "", 10, 50, 10},
		{"absent", nil, 5, 20, 5},
		{"negative", "-4", 10, 50, 10},
		{"unsupported type", []string{"9"}, 5, 20, 5},
		{"huge float string", "1e30", 5, 20, 20},
		{"huge float value", float64(1e30), 5, 20, 20},
		{"huge negative", "-1e30", 10, 50, 10},
		{"nan", "NaN", 5, 20, 5},
		{"infinity", math.Inf(1), 5, 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLimit(tt.raw, tt.def, tt.max); got != tt.want {
				t.Errorf("ClampLimit(%v, %d, %d) = %d, want %d", tt.raw, tt.def, tt.max, got, tt.want)
			}
		})
	}
}
