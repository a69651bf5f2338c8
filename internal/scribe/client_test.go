package scribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONStripsFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanJSON(tc.in))
	}
}
