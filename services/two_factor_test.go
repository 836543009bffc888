package services

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoFactor(t *testing.T) {
	tf := NewTwoFactor("NoteMate")
	setup, err := tf.Generate("ada@uni.edu")
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.URL, "otpauth://totp/")
	assert.Contains(t, setup.URL, "issuer=NoteMate")
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	code, err := totp.GenerateCode(setup.Secret, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, tf.Validate(code, setup.Secret))

	stale, err := totp.GenerateCode(setup.Secret, time.Now().UTC().Add(-5*time.Minute))
	require.NoError(t, err)
	if stale != code {
		assert.False(t, tf.Validate(stale, setup.Secret))
	}

	assert.False(t, tf.Validate("", setup.Secret))
	assert.False(t, tf.Validate(code, ""))
}
