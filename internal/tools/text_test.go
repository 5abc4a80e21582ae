package tools

import (
	"context"
	"strings"
	"testing"
)

func processText(t *testing.T, text, operation string) string {
	t.Helper()
	out, err := handleTextProcessor(context.Background(), map[string]any{"text": text, "operation": operation})
	if err != nil {
		t.Fatalf("handleTextProcessor(%q, %q) error: %v", text, operation, err)
	}
	return out
}

func TestTextProcessor(t *testing.T) {
	tests := []struct {
		text, operation, want string
	}{
		{"hello world", "uppercase", "HELLO WORLD"},
		{"HELLO WORLD", "lowercase", "hello world"},
		{"the quick brown fox", "word_count", "Word count: 4"},
		{"  spaced   out  ", "word_count", "Word count: 2"},
		{"hello", "char_count", "Character count: 5"},
		{"héllo", "char_count", "Character count: 5"},
		{"hello", "reverse", "olleh"},
		{"new york city", "title_case", "New York City"},
		{"o'BRIEN", "title_case", "O'Brien"},
		{"MiXeD", "UPPERCASE", "MIXED"},
		{"MiXeD", "  uppercase  ", "MIXED"},
	}
	for _, tt := range tests {
		if got := processText(t, tt.text, tt.operation); got != tt.want {
			t.Errorf("processText(%q, %q) = %q, want %q", tt.text, tt.operation, got, tt.want)
		}
	}
}

func TestTextProcessor_ReverseTwiceIsIdentity(t *testing.T) {
	original := "héllo wörld 123"
	once := processText(t, original, "reverse")
	twice := processText(t, once, "reverse")
	if twice != original {
		t.Errorf("double reverse = %q, want %q", twice, original)
	}
}

func TestTextProcessor_UnknownOperation(t *testing.T) {
	got := processText(t, "hello", "shout")
	if !strings.HasPrefix(got, "Unknown operation 'shout'") {
		t.Errorf("got %q", got)
	}
	for _, op := range textOperations {
		if !strings.Contains(got, op) {
			t.Errorf("message %q should list operation %q", got, op)
		}
	}
}
