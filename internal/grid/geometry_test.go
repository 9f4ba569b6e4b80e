package grid

import "testing"

func TestCompute(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		padL, padT    float64
		columns, rows int
		effW, effH    float64
	}{
		{"exact fit", 1050, 530, 50, 30, 10, 20, 1000, 500},
		{"remainder dropped", 1099, 554, 50, 30, 10, 20, 1000, 500},
		{"no padding", 250, 60, 0, 0, 2, 2, 200, 50},
		{"zero container", 0, 0, 50, 30, 0, 0, 0, 0},
		{"smaller than padding", 40, 20, 50, 30, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Compute(tt.width, tt.height, 100, 25, tt.padL, tt.padT)
			if g.Columns != tt.columns || g.Rows != tt.rows {
				t.Errorf("Compute() = %d x %d, want %d x %d", g.Columns, g.Rows, tt.columns, tt.rows)
			}
			if g.EffectiveWidth() != tt.effW || g.EffectiveHeight() != tt.effH {
				t.Errorf("effective = %v x %v, want %v x %v",
					g.EffectiveWidth(), g.EffectiveHeight(), tt.effW, tt.effH)
			}
		})
	}
}

func TestComputeDegenerateCell(t *testing.T) {
	g := Compute(800, 600, 0, -5, 0, 0)
	if !g.Empty() {
		t.Errorf("expected empty geometry for non-positive cell size, got %+v", g)
	}
}

func TestComputeIdempotent(t *testing.T) {
	a := Compute(913, 477, 100, 25, 50, 30)
	b := Compute(913, 477, 100, 25, 50, 30)
	if a != b {
		t.Errorf("Compute not idempotent: %+v != %+v", a, b)
	}
}

func TestContains(t *testing.T) {
	g := Compute(200, 50, 100, 25, 0, 0)
	if !g.Contains(0, 0) || !g.Contains(199.9, 49.9) {
		t.Error("expected interior points to be contained")
	}
	if g.Contains(200, 10) || g.Contains(10, 50) || g.Contains(-0.1, 0) {
		t.Error("expected boundary/outside points to be excluded")
	}
}
