package tools

import (
	"context"
	"strings"
	"testing"
)

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	want := []string{"text_processor", "calculator", "weather_mock"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	list := r.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d entries", len(list))
	}
	for i, entry := range list {
		if entry["type"] != "function" {
			t.Errorf("List()[%d] type = %v", i, entry["type"])
		}
		fn, ok := entry["function"].(map[string]any)
		if !ok {
			t.Fatalf("List()[%d] function is %T", i, entry["function"])
		}
		for _, key := range []string{"name", "description", "parameters"} {
			if _, ok := fn[key]; !ok {
				t.Errorf("List()[%d] function missing %q", i, key)
			}
		}
	}
}

func TestRegistry_Execute(t *testing.T) {
	r := NewRegistry()
	out, err := r.Execute(context.Background(), "calculator", map[string]any{"expression": "3 + 5"})
	if err != nil {
		t.Fatalf("Execute(calculator) error: %v", err)
	}
	if !strings.Contains(out, "= 8") {
		t.Errorf("Execute(calculator) = %q", out)
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "file_system", nil)
	if err == nil {
		t.Fatal("Execute should reject an unknown tool name")
	}
	if !strings.Contains(err.Error(), "unknown tool: file_system") {
		t.Errorf("error = %q", err)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	if NewRegistry().Get("nope") != nil {
		t.Error("Get should return nil for an unknown name")
	}
}
