package gain

import (
	"math"
	"testing"
)

func TestDbConversion(t *testing.T) {
	tests := []struct {
		name    string
		linear  float64
		db      float64
		epsilon float64
	}{
		{"Unity gain", 1.0, 0.0, 0.001},
		{"Half amplitude", 0.5, -6.02, 0.01},
		{"Double amplitude", 2.0, 6.02, 0.01},
		{"Quarter amplitude", 0.25, -12.04, 0.01},
		{"Zero amplitude", 0.0, MinDB, 0.001},
		{"Negative amplitude", -1.0, MinDB, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDb := LinearToDb(tt.linear)
			if math.Abs(gotDb-tt.db) > tt.epsilon {
				t.Errorf("LinearToDb(%f) = %f, want %f", tt.linear, gotDb, tt.db)
			}

			if tt.db != MinDB {
				gotLinear := DbToLinear(tt.db)
				if math.Abs(gotLinear-math.Abs(tt.linear)) > tt.epsilon {
					t.Errorf("DbToLinear(%f) = %f, want %f", tt.db, gotLinear, math.Abs(tt.linear))
				}
			}
		})
	}
}

func TestDbToLinearEdges(t *testing.T) {
	if got := DbToLinear(MinDB); got != 0 {
		t.Errorf("DbToLinear(MinDB) = %f, want 0", got)
	}
	if got := DbToLinear(math.NaN()); got != 0 {
		t.Errorf("DbToLinear(NaN) = %f, want 0", got)
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0.5, 0.5},
		{1.5, 1.0},
		{-1.5, -1.0},
		{0.0, 0.0},
	}

	for _, tt := range tests {
		if result := Clip(tt.input); result != tt.expected {
			t.Errorf("Clip(%f) = %f, want %f", tt.input, result, tt.expected)
		}
	}
}

func TestClipBuffer(t *testing.T) {
	buffer := []float32{2, -2, float32(math.NaN()), float32(math.Inf(-1)), 0.25}
	expected := []float32{1, -1, 0, 0, 0.25}

	ClipBuffer(buffer)

	for i, v := range buffer {
		if v != expected[i] {
			t.Errorf("ClipBuffer: buffer[%d] = %f, want %f", i, v, expected[i])
		}
	}
}

func TestSanitize(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := Sanitize(v); got != 0 {
			t.Errorf("Sanitize(%f) = %f, want 0", v, got)
		}
	}
	if got := Sanitize(-0.3); got != -0.3 {
		t.Errorf("Sanitize(-0.3) = %f", got)
	}
}

func BenchmarkDbToLinear(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DbToLinear(-6.0)
	}
}
