package shortlink_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/shortlink"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		id   uint64
		code string
	}{
		{0, "0"},
		{9, "9"},
		{10, "A"},
		{42, "g"},
		{63, "_"},
		{64, "10"},
		{4095, "__"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, shortlink.Encode(tt.id), "id %d", tt.id)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, id := range []uint64{0, 1, 42, 63, 64, 1000, 123456789, math.MaxUint32, math.MaxUint64} {
		decoded, err := shortlink.Decode(shortlink.Encode(id))
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}

	decoded, err := shortlink.Decode(shortlink.Encode(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), decoded)
}

func TestDecode_RejectsCharactersOutsideAlphabet(t *testing.T) {
	for _, code := range []string{"", "a+b", "abc=", "12 3", "рецепт", "a/b"} {
		_, err := shortlink.Decode(code)
		assert.ErrorIs(t, err, shortlink.ErrInvalidCode, "code %q", code)
	}
}

func TestDecode_Overflow(t *testing.T) {
	_, err := shortlink.Decode("___________")
	assert.ErrorIs(t, err, shortlink.ErrOverflow)
}
