package param

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestBuilder(t *testing.T) {
	p := New(1, "Gain").
		Range(-96, 12).
		Default(0).
		Unit("dB").
		Formatter(DecibelFormatter, DecibelParser).
		Build()

	if p.Value() != 0 {
		t.Errorf("Expected default 0, got %v", p.Value())
	}
	if p.Flags&CanAutomate == 0 {
		t.Error("Expected CanAutomate by default")
	}
	if got := p.FormatValue(); got != "0.0 dB" {
		t.Errorf("Unexpected format %q", got)
	}

	v, err := p.ParseValue("-6 dB")
	if err != nil || v != -6 {
		t.Errorf("ParseValue: got %v, %v", v, err)
	}
	v, err = p.ParseValue("40 dB")
	if err != nil || v != 12 {
		t.Errorf("ParseValue should clamp: got %v, %v", v, err)
	}
}

func TestParameterClamp(t *testing.T) {
	p := New(2, "Pan").Range(-1, 1).Default(0).Build()

	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{-4, -1},
		{4, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
	}
	for _, tt := range tests {
		if got := p.SetValue(tt.in); got != tt.want {
			t.Errorf("SetValue(%v): expected %v, got %v", tt.in, tt.want, got)
		}
		if p.Value() != tt.want {
			t.Errorf("Stored %v, expected %v", p.Value(), tt.want)
		}
	}

	p.Reset()
	if p.Value() != 0 || p.Normalized() != 0.5 {
		t.Errorf("Reset: got %v (%v normalized)", p.Value(), p.Normalized())
	}
}

func TestParameterToggle(t *testing.T) {
	p := New(3, "Reverse").Toggle().Build()

	p.SetValue(0.7)
	if !p.Bool() || p.Value() != 1 {
		t.Errorf("Expected toggle on, got %v", p.Value())
	}
	if p.FormatValue() != "on" {
		t.Errorf("Expected \"on\", got %q", p.FormatValue())
	}
	p.SetValue(0.2)
	if p.Bool() {
		t.Error("Expected toggle off")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := New(1, "A").Build()
	b := New(2, "B").Build()

	if err := r.Add(a, b); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if r.Count() != 2 {
		t.Errorf("Expected 2 parameters, got %d", r.Count())
	}
	if r.Get(2) != b {
		t.Error("Get returned the wrong parameter")
	}
	if r.Get(9) != nil {
		t.Error("Expected nil for an unknown id")
	}

	all := r.All()
	if len(all) != 2 || all[0] != a || all[1] != b {
		t.Error("All did not preserve registration order")
	}

	if err := r.Add(New(1, "Dup").Build()); errors.Cause(err) != ErrDuplicateID {
		t.Errorf("Expected ErrDuplicateID, got %v", err)
	}
	if err := r.Add(New(5, "C").Build(), New(5, "D").Build()); errors.Cause(err) != ErrDuplicateID {
		t.Errorf("Expected ErrDuplicateID within one call, got %v", err)
	}
	if r.Count() != 2 || r.Get(5) != nil {
		t.Error("A rejected Add should register nothing")
	}

	if v, err := r.Set(2, 3); err != nil || v != 1 || b.Value() != 1 {
		t.Errorf("Set should clamp to 1, got %v, %v", v, err)
	}
	if _, err := r.Set(9, 0); errors.Cause(err) != ErrUnknownID {
		t.Errorf("Expected ErrUnknownID, got %v", err)
	}
}

func TestFormatters(t *testing.T) {
	if got := SecondsFormatter(0.25); got != "250.0 ms" {
		t.Errorf("Unexpected %q", got)
	}
	if got := SecondsFormatter(2); got != "2.000 s" {
		t.Errorf("Unexpected %q", got)
	}
	if got := PanFormatter(-0.5); got != "L50" {
		t.Errorf("Unexpected %q", got)
	}
	if got := PanFormatter(0); got != "C" {
		t.Errorf("Unexpected %q", got)
	}
	if got := DecibelFormatter(-120); got != "-inf dB" {
		t.Errorf("Unexpected %q", got)
	}
}

func TestParsers(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) (float64, error)
		in    string
		want  float64
	}{
		{"DecibelSuffix", DecibelParser, "-6 dB", -6},
		{"DecibelInf", DecibelParser, "-inf", -96},
		{"SecondsMs", SecondsParser, "250 ms", 0.25},
		{"SecondsS", SecondsParser, "1.5 s", 1.5},
		{"SecondsBare", SecondsParser, "2", 2},
		{"PanLeft", PanParser, "L50", -0.5},
		{"PanRight", PanParser, "r25", 0.25},
		{"PanCenter", PanParser, "C", 0},
		{"PanBare", PanParser, "-0.75", -0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.in)
			if err != nil {
				t.Fatalf("Parse %q failed: %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Parse %q: expected %v, got %v", tt.in, tt.want, got)
			}
		})
	}

	if _, err := PanParser("Lx"); err == nil {
		t.Error("Expected an error for malformed pan text")
	}
}

func TestBuilderPresets(t *testing.T) {
	gain := New(1, "Gain").Decibels(-96, 12).Default(-6).Build()
	if gain.Unit != "dB" || gain.FormatValue() != "-6.0 dB" {
		t.Errorf("Unexpected gain parameter: unit %q, %q", gain.Unit, gain.FormatValue())
	}

	trim := New(2, "Trim").Seconds(10).Default(0.5).Build()
	if v, err := trim.ParseValue("20 s"); err != nil || v != 10 {
		t.Errorf("Seconds parameter should clamp to 10, got %v, %v", v, err)
	}

	pan := New(3, "Pan").Bipolar().Default(-0.25).Build()
	if pan.FormatValue() != "L25" {
		t.Errorf("Unexpected pan text %q", pan.FormatValue())
	}
	if v, err := pan.ParseValue("R100"); err != nil || v != 1 {
		t.Errorf("Expected R100 to parse as 1, got %v, %v", v, err)
	}

	stepped := New(5, "Stepped").Range(0, 10).Steps(4).Build()
	if got := stepped.SetValue(3.4); got != 2.5 {
		t.Errorf("Expected 3.4 to step to 2.5, got %v", got)
	}

	swapped := New(4, "Swapped").Range(5, -5).Build()
	if swapped.Min != -5 || swapped.Max != 5 {
		t.Errorf("Range should order its bounds, got %v..%v", swapped.Min, swapped.Max)
	}
}
