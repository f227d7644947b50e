package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindJSONCandidates(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"none", "no braces here", nil},
		{"single", `x {"a":1} y`, []string{`{"a":1}`}},
		{"nested stays whole", `{"a":{"b":2}}`, []string{`{"a":{"b":2}}`}},
		{"two objects", `{"a":1} and {"b":2}`, []string{`{"a":1}`, `{"b":2}`}},
		{"brace inside string", `{"a":"}{"}`, []string{`{"a":"}{"}`}},
		{"escaped quote", `{"a":"x\"}"}`, []string{`{"a":"x\"}"}`}},
		{"unclosed brace skipped", "Note {see below\n{\"a\":1} end", []string{`{"a":1}`}},
		{"unclosed brace at end", `{"a":1} then {oops`, []string{`{"a":1}`}},
		{"apostrophe in prose", `it's {"a":1}`, []string{`{"a":1}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findJSONCandidates(tt.in))
		})
	}
}
