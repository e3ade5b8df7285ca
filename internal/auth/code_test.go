package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}

	// Too-short requests are clamped to a usable minimum.
	code, err = GenerateCode(1)
	require.NoError(t, err)
	assert.Len(t, code, 4)
}

func TestCodeHashing(t *testing.T) {
	code, err := GenerateCode(6)
	require.NoError(t, err)

	hash, err := HashCode(code)
	require.NoError(t, err)
	assert.NotEqual(t, code, hash)

	assert.True(t, CheckCode(hash, code))
	assert.False(t, CheckCode(hash, "000000"))
}
