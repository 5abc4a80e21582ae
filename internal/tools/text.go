package tools

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// textOperations lists the valid operations in the order they are
// reported to the user when an unknown one is requested.
var textOperations = []string{"uppercase", "lowercase", "word_count", "char_count", "reverse", "title_case"}

func textProcessorTool() *Tool {
	return &Tool{
		Name:        "text_processor",
		Description: "Process text with various operations: uppercase, lowercase, word_count, char_count, reverse, title_case.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The text to process",
				},
				"operation": map[string]any{
					"type":        "string",
					"description": "One of: uppercase, lowercase, word_count, char_count, reverse, title_case",
				},
			},
			"required": []string{"text", "operation"},
		},
		Handler: handleTextProcessor,
	}
}

func handleTextProcessor(ctx context.Context, args map[string]any) (string, error) {
	text, _ := args["text"].(string)
	operation, _ := args["operation"].(string)
	operation = strings.ToLower(strings.TrimSpace(operation))

	switch operation {
	case "uppercase":
		return strings.ToUpper(text), nil
	case "lowercase":
		return strings.ToLower(text), nil
	case "word_count":
		return fmt.Sprintf("Word count: %d", len(strings.Fields(text))), nil
	case "char_count":
		return fmt.Sprintf("Character count: %d", utf8.RuneCountInString(text)), nil
	case "reverse":
		return reverseString(text), nil
	case "title_case":
		return titleCase(text), nil
	default:
		return fmt.Sprintf("Unknown operation '%s'. Available operations: %s",
			operation, strings.Join(textOperations, ", ")), nil
	}
}

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// titleCase uppercases the first letter of every run of letters and
// lowercases the rest, so "new york" becomes "New York" and
// "o'BRIEN" becomes "O'Brien".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
