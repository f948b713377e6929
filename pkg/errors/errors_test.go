package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "test message: %s", "value")

	if err.Code != ErrCodeInvalidConfig {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidConfig)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_CONFIG: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDensityFit, cause, "fit replicate")

	if err.Code != ErrCodeDensityFit {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeDensityFit)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeNormalization,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeStatisticalTest, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeStatisticalTest,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("layout: %w", New(ErrCodeDegenerateDomain, "span")),
			code:     ErrCodeDegenerateDomain,
			expected: true,
		},
		{
			name:     "missing columns",
			err:      &MissingColumnsError{Columns: []string{"value"}},
			code:     ErrCodeMissingColumn,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeInsufficientData, "test"), ErrCodeInsufficientData},
		{"missing columns", &MissingColumnsError{Columns: []string{"a", "b"}}, ErrCodeMissingColumn},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidInput, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
		{"one missing column", &MissingColumnsError{Columns: []string{"value"}}, "Variable not found: value"},
		{"two missing columns", &MissingColumnsError{Columns: []string{"value", "replicate"}}, "Missing variables: value, replicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	recoverable := []Code{
		ErrCodeInsufficientData, ErrCodeDensityFit, ErrCodeDegenerateDomain,
		ErrCodeNormalization, ErrCodeStatisticalTest,
	}
	for _, c := range recoverable {
		if !IsRecoverable(New(c, "x")) {
			t.Errorf("IsRecoverable(%s) = false, want true", c)
		}
	}
	if IsRecoverable(New(ErrCodeInvalidConfig, "x")) {
		t.Error("config errors must not be recoverable")
	}
	if IsRecoverable(&MissingColumnsError{Columns: []string{"x"}}) {
		t.Error("missing columns must not be recoverable")
	}
}

func TestProblems(t *testing.T) {
	var p Problems
	if p.Err() != nil {
		t.Error("empty Problems should have nil Err")
	}

	p.Add(nil)
	p.Add(New(ErrCodeDensityFit, "replicate r1"))
	p.Add(New(ErrCodeDensityFit, "replicate r1"))
	p.Add(New(ErrCodeNormalization, "group a"))

	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
	all := p.All()
	if GetCode(all[0]) != ErrCodeDensityFit || GetCode(all[1]) != ErrCodeNormalization {
		t.Errorf("All() order = %v", all)
	}
	if !Is(p.Err(), ErrCodeNormalization) {
		t.Error("joined error should match a contained code")
	}
}
