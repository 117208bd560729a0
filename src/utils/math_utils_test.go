package utils

import "testing"

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		val       float64
		precision uint
		want      float64
	}{
		{10.567, 2, 10.57},
		{10.564, 2, 10.56},
		{-3.456, 2, -3.46},
		{1234.4, 0, 1234},
	}
	for _, tt := range tests {
		if got := RoundFloat(tt.val, tt.precision); got != tt.want {
			t.Errorf("RoundFloat(%g, %d) = %g, want %g", tt.val, tt.precision, got, tt.want)
		}
	}
}

func TestUnitRounding(t *testing.T) {
	if got := RoundToUnit(1234.5); got != 1235 {
		t.Errorf("RoundToUnit(1234.5) = %g, want 1235", got)
	}
	if got := FloorToUnit(317.9); got != 317 {
		t.Errorf("FloorToUnit(317.9) = %g, want 317", got)
	}
	if got := FloorToUnit(-0.5); got != -1 {
		t.Errorf("FloorToUnit(-0.5) = %g, want -1", got)
	}
}
