package conv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownToTelegramHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain", input: "Your cart is empty", expected: "Your cart is empty\n"},
		{name: "bold header line", input: "**Cart** (3 items)", expected: "<strong>Cart</strong> (3 items)\n"},
		{name: "italic", input: "*offline estimates*", expected: "<em>offline estimates</em>\n"},
		{name: "inline code id", input: "`/add 42`", expected: "<code>/add 42</code>\n"},
		{name: "headers stripped", input: "# Catalog", expected: "Catalog\n"},
		{name: "script sanitized", input: "<script>alert('xss')</script>", expected: "\n"},
		{name: "strikethrough", input: "~~sold out~~", expected: "<del>sold out</del>\n"},
		{name: "escaped product name", input: EscapeMarkdown("2*Pack"), expected: "2*Pack\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MarkdownToTelegramHTML([]byte(tt.input)))
		})
	}
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `Ben\_and\_Jerry \*Cookie\* \[XL\]`, EscapeMarkdown("Ben_and_Jerry *Cookie* [XL]"))
	assert.Equal(t, "Tomatoes", EscapeMarkdown("Tomatoes"))
}

func TestSplitMessage(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, SplitMessage("hello", 10))
	})

	t.Run("prefers newlines", func(t *testing.T) {
		text := "line one\nline two\nline three"
		chunks := SplitMessage(text, 20)
		assert.Equal(t, []string{"line one\nline two", "line three"}, chunks)
	})

	t.Run("hard cut without newline", func(t *testing.T) {
		text := strings.Repeat("x", 25)
		chunks := SplitMessage(text, 10)
		assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, chunks)
	})

	t.Run("chunks respect limit", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 300; i++ {
			b.WriteString("- Product with a fairly long name\n")
		}
		for _, c := range SplitMessage(b.String(), 4000) {
			assert.LessOrEqual(t, len(c), 4000)
		}
	})
}
