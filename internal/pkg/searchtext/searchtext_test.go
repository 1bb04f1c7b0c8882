package searchtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "бампер", Normalize("  БАМПЕР "))
	assert.Equal(t, "nissan", Normalize("Nissan"))

	// Precomposed ё folds to е.
	assert.Equal(t, "елка", Normalize("ёлка"))
	// Decomposed form (е + combining diaeresis U+0308) composes under NFC
	// first and then folds identically.
	assert.Equal(t, "елка", Normalize("ёлка"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"бампер nissan",
		"ё ё ё",
		"  mixed Кейс 42  ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", EscapeLike("plain"))
	assert.Equal(t, `100\%`, EscapeLike("100%"))
	assert.Equal(t, `a\_b`, EscapeLike("a_b"))
	assert.Equal(t, `c\\d`, EscapeLike(`c\d`))
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"nissan", "бампер"}, Words(" Nissan  БАМПЕР "))
	assert.Empty(t, Words("   "))
}

func TestNumericValue(t *testing.T) {
	n, ok := NumericValue("482")
	assert.True(t, ok)
	assert.Equal(t, int64(482), n)

	_, ok = NumericValue("48a")
	assert.False(t, ok)
	_, ok = NumericValue("")
	assert.False(t, ok)
	_, ok = NumericValue("-5")
	assert.False(t, ok)
}
