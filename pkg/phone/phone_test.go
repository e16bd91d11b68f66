package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer("US")

	cases := map[string]string{
		"(202) 555-0143":   "+12025550143",
		"+1 202 555 0143":  "+12025550143",
		"+44 20 7946 0958": "+442079460958",
	}
	for input, want := range cases {
		got, err := n.Normalize(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestNormalizeBlankAndInvalid(t *testing.T) {
	n := NewNormalizer("")

	got, err := n.Normalize("  ")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = n.Normalize("12")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestRegion(t *testing.T) {
	n := NewNormalizer("US")
	assert.Equal(t, "GB", n.Region("+442079460958"))
}
