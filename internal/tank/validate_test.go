package tank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	v, err := ValidateText("Player", "  Anna  ", 64)
	require.NoError(t, err)
	assert.Equal(t, "Anna", v)

	_, err = ValidateText("Player", strings.Repeat("x", 65), 64)
	assert.EqualError(t, err, "Player is too long (max 64 chars).")

	_, err = ValidateText("Player", strings.Repeat("ä", 64), 64)
	assert.NoError(t, err, "Length is counted in characters, not bytes")

	_, err = ValidateText("Player", "a\tb", 64)
	assert.EqualError(t, err, "Player must be a single line.")

	_, err = ValidateText("Player", "a\x07b", 64)
	assert.EqualError(t, err, "Player contains invalid control characters.")

	_, err = ValidateText("Player", "", 64)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeType(t *testing.T) {
	got, err := NormalizeType(" TD ")
	require.NoError(t, err)
	assert.Equal(t, TD, got)

	_, err = NormalizeType("arty")
	assert.EqualError(t, err, "Type must be one of: light, medium, heavy, td.")
}

func TestValidateScore(t *testing.T) {
	assert.NoError(t, ValidateScore(1, 100))
	assert.NoError(t, ValidateScore(100, 100))
	assert.EqualError(t, ValidateScore(0, 100), "Score must be between 1 and 100.")
	assert.ErrorIs(t, ValidateScore(101, 100), ErrValidation)
}

func TestNormalizePlayer(t *testing.T) {
	assert.Equal(t, "anna", NormalizePlayer("  ANNA "))
	assert.Equal(t, "\u00e9mile", NormalizePlayer("E\u0301mile"), "Decomposed input folds to the composed form")
}

func TestTypeLabels(t *testing.T) {
	assert.Equal(t, "Tank Destroyer", TD.Label())
	assert.Equal(t, "Tank Destroyers", TD.PluralLabel())
	assert.Equal(t, "Heavy Tanks", Heavy.PluralLabel())
}
