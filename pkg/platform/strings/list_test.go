package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanList(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil", nil, []string{}},
		{"blanks dropped", []string{"", "  "}, []string{}},
		{"trimmed and deduplicated", []string{" k1:9092", "k2:9092", "k1:9092 "}, []string{"k1:9092", "k2:9092"}},
		{"comma joined value split", []string{"k1:9092, k2:9092,,k1:9092"}, []string{"k1:9092", "k2:9092"}},
		{"order preserved", []string{"c", "a", "b"}, []string{"c", "a", "b"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanList(tc.input))
		})
	}
}
