package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNameValidator(t *testing.T) {
	for _, name := range []string{"A1", "a1", "AB12", "zz999"} {
		assert.True(t, DefaultNameValidator(name), name)
	}
	for _, name := range []string{"", "A", "1", "A0", "A01", "1A", "A1B", "A 1", "A_1"} {
		assert.False(t, DefaultNameValidator(name), name)
	}
}

func TestNormalizerByName(t *testing.T) {
	tests := map[string]string{
		"":         "aB1",
		"none":     "aB1",
		"identity": "aB1",
		"Upper":    "AB1",
		" lower ":  "ab1",
	}
	for name, expected := range tests {
		n, err := NormalizerByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, n("aB1"), name)
	}

	_, err := NormalizerByName("title")
	assert.Error(t, err)
}

func TestPatternPolicy(t *testing.T) {
	policy, err := PatternPolicy(`^[A-Z]+[0-9]+$`)
	require.NoError(t, err)
	assert.Equal(t, `^[A-Z]+[0-9]+$`, policy.Description)
	assert.True(t, policy.IsValid("AB12"))
	assert.False(t, policy.IsValid("ab12"))
	// the pattern narrows the cell syntax, it cannot widen it
	assert.False(t, policy.IsValid("A0"))

	open, err := PatternPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ".*", open.Description)
	assert.True(t, open.IsValid("q7"))
	assert.False(t, open.IsValid("q"))

	_, err = PatternPolicy("[")
	assert.Error(t, err)
}

func TestWithValidator(t *testing.T) {
	s := NewSpreadsheet(WithValidator(func(name string) bool { return name == "A1" || name == "B1" }))
	assert.Equal(t, CellNamePattern, s.ValidatorDescription())

	_, err := s.SetCell("A1", "1")
	require.NoError(t, err)
	_, err = s.SetCell("C1", "1")
	assert.ErrorIs(t, err, ErrInvalidName)
}
