package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Remove by hand.", "Remove by hand."},
		{"bullets", "- one\n* two\n+ three", "one two three"},
		{"numbers", "1. first\n2) second", "first second"},
		{"quote and nested markers", "> - 1. deep", "deep"},
		{"heading and emphasis", "## Treatment\n**Apply** mulch", "Treatment Apply mulch"},
		{"blank lines", "a\n\n\n\nb", "a b"},
		{"whitespace", "  a \t  b  ", "a b"},
		{"period runs", "Wait... then act..", "Wait. then act."},
		{"marker revealed by period collapse", "1.. foo", "foo"},
		{"crlf", "- a\r\n- b", "a b"},
		{"empty", "", ""},
		{"hyphen mid line kept", "well-drained soil - loam", "well-drained soil - loam"},
		{"bare numbers kept", "1.\n2.", "1. 2."},
		{"horizontal rule kept", "* * *", "* * *"},
		{"greater-than without space kept", ">50% loss", ">50% loss"},
		{"lone bullet dropped", "- ", ""},
		{"quote needs space", "> >50% loss", ">50% loss"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"- - nested bullet",
		"1.. 2.. 3.. counted",
		"> > quoted\n\n> again...",
		"* **bold** point\n   \n  - 10. odd",
		"Some text.\n\n\n- item one\n- item two....",
		"• unicode bullet\n\t# heading",
		"1.\n2.",
		"* * *",
		">50% loss",
		"1.\nfoo",
		"- 2.\n3) x",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
	}
}
