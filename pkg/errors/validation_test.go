package errors

import (
	"math"
	"reflect"
	"testing"
)

func TestValidateColumnName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "value", false},
		{"with space", "cell area", false},
		{"with unit", "Intensity (a.u.)", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", string(make([]byte, 300)), true},
		{"control char", "val\x01ue", true},
		{"newline", "val\nue", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumnName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColumnName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"None", nil},
		{"a", []string{"a"}},
		{"ctrl, drug A, drug B", []string{"ctrl", "drug A", "drug B"}},
		{"a,b , c", []string{"a", "b", "c"}},
		{"a, , b", []string{"a", "b"}},
	}

	for _, tt := range tests {
		got := ParseList(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseList(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

func TestValidateOrder(t *testing.T) {
	if err := ValidateOrder([]string{"a", "b"}); err != nil {
		t.Errorf("unique order should pass: %v", err)
	}
	if err := ValidateOrder([]string{"a", "b", "a"}); err == nil {
		t.Error("duplicate group should fail")
	}
	if err := ValidateOrder(nil); err != nil {
		t.Errorf("empty order should pass: %v", err)
	}
}

func TestParseLimits(t *testing.T) {
	tests := []struct {
		input   string
		lo, hi  float64
		ok      bool
		wantErr bool
	}{
		{"None", 0, 0, false, false},
		{"", 0, 0, false, false},
		{"0, 10", 0, 10, true, false},
		{"-1.5,2.5", -1.5, 2.5, true, false},
		{"10, 0", 0, 0, false, true},
		{"1", 0, 0, false, true},
		{"a, b", 0, 0, false, true},
	}

	for _, tt := range tests {
		lo, hi, ok, err := ParseLimits(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLimits(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if ok != tt.ok || lo != tt.lo || hi != tt.hi {
			t.Errorf("ParseLimits(%q) = (%v, %v, %v), want (%v, %v, %v)", tt.input, lo, hi, ok, tt.lo, tt.hi, tt.ok)
		}
	}
}

func TestValidateBandwidth(t *testing.T) {
	tests := []struct {
		bw      float64
		wantErr bool
	}{
		{0, false},
		{0.3, false},
		{2, false},
		{-0.1, true},
		{math.NaN(), true},
		{math.Inf(1), true},
	}
	for _, tt := range tests {
		if err := ValidateBandwidth(tt.bw); (err != nil) != tt.wantErr {
			t.Errorf("ValidateBandwidth(%v) error = %v, wantErr %v", tt.bw, err, tt.wantErr)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "plot.svg", false},
		{"nested", "out/plot.svg", false},
		{"empty", "", true},
		{"traversal", "../plot.svg", true},
		{"null byte", "plot\x00.svg", true},
		{"too long", string(make([]byte, 501)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePath(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
