package services

import (
	"testing"
	"time"

	"notemate/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResetToken(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tok, err := NewResetToken(now)
	require.NoError(t, err)

	assert.Len(t, tok.Raw, utils.ResetTokenBytes*2)
	assert.Equal(t, utils.HashString(tok.Raw), tok.Hash)
	assert.NotEqual(t, tok.Raw, tok.Hash)
	assert.Equal(t, now.Add(10*time.Minute), tok.Expires)
	assert.Equal(t, "http://localhost:3000/reset-password/"+tok.Raw, ResetLink("http://localhost:3000", tok.Raw))
}
