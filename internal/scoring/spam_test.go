package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpamFilterBoundary(t *testing.T) {
	f := DefaultSpamFilter()

	tests := []struct {
		reputation int
		admissible bool
	}{
		{-11, false},
		{-10, true}, // boundary is inclusive
		{-9, true},
		{0, true},
		{100, true},
		{-1000, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.admissible, f.Admissible(tc.reputation), "reputation=%d", tc.reputation)
	}
}
