package tools

import (
	"context"
	"strings"
	"testing"
)

func calc(t *testing.T, expression string) string {
	t.Helper()
	out, err := handleCalculator(context.Background(), map[string]any{"expression": expression})
	if err != nil {
		t.Fatalf("handleCalculator(%q) error: %v", expression, err)
	}
	return out
}

func TestCalculator(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"3 + 5", "3 + 5 = 8"},
		{"(2 + 3) * 4", "(2 + 3) * 4 = 20"},
		{"10 - 4", "10 - 4 = 6"},
		{"15 / 3", "15 / 3 = 5"},
		{"7 / 2", "7 / 2 = 3.5"},
		{"2 ** 10", "2 ** 10 = 1024"},
		{"2 ** -1", "2 ** -1 = 0.5"},
		{"10 % 3", "10 % 3 = 1"},
		{"-7 % 3", "-7 % 3 = 2"},
		{"-(2 + 3)", "-(2 + 3) = -5"},
		{"1/3", "1/3 = 0.3333333333"},
		{"2 * (3 + (4 - 1))", "2 * (3 + (4 - 1)) = 12"},
	}
	for _, tt := range tests {
		if got := calc(t, tt.expr); got != tt.want {
			t.Errorf("calc(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}

func TestCalculator_PowerRightAssociative(t *testing.T) {
	// 2 ** 3 ** 2 is 2 ** 9, not 8 ** 2.
	if got := calc(t, "2 ** 3 ** 2"); got != "2 ** 3 ** 2 = 512" {
		t.Errorf("got %q", got)
	}
}

func TestCalculator_UnaryMinusBindsLooserThanPower(t *testing.T) {
	if got := calc(t, "-2 ** 2"); got != "-2 ** 2 = -4" {
		t.Errorf("got %q", got)
	}
}

func TestCalculator_DivisionByZero(t *testing.T) {
	for _, expr := range []string{"5 / 0", "10 % 0", "1 / (2 - 2)"} {
		if got := calc(t, expr); got != "Error: Division by zero" {
			t.Errorf("calc(%q) = %q, want division-by-zero error text", expr, got)
		}
	}
}

func TestCalculator_InvalidCharacters(t *testing.T) {
	got := calc(t, "abc + def")
	if !strings.HasPrefix(got, "Invalid expression: 'abc + def'") {
		t.Errorf("got %q", got)
	}
}

func TestCalculator_InvalidSyntax(t *testing.T) {
	for _, expr := range []string{"3 +", "(2 + 3", "1..2 + 1", "()"} {
		got := calc(t, expr)
		if !strings.HasPrefix(got, "Invalid expression syntax:") {
			t.Errorf("calc(%q) = %q, want syntax error text", expr, got)
		}
	}
}

func TestCalculator_EmptyExpression(t *testing.T) {
	for _, expr := range []string{"", "   "} {
		if got := calc(t, expr); got != "Empty expression provided" {
			t.Errorf("calc(%q) = %q", expr, got)
		}
	}
}

func TestCalculator_Deterministic(t *testing.T) {
	first := calc(t, "(2 + 3) * 4 - 10 / 5")
	for i := 0; i < 5; i++ {
		if got := calc(t, "(2 + 3) * 4 - 10 / 5"); got != first {
			t.Fatalf("result changed between runs: %q vs %q", got, first)
		}
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{8, "8"},
		{-5, "-5"},
		{3.5, "3.5"},
		{0.30000000000000004, "0.3"},
	}
	for _, tt := range tests {
		if got := formatResult(tt.in); got != tt.want {
			t.Errorf("formatResult(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
