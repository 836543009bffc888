package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailerFallsBackToLog(t *testing.T) {
	m := NewMailer("", "NoteMate", "no-reply@notemate.app")
	_, ok := m.(LogMailer)
	require.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), Message{ToEmail: "a@b.c", Subject: "hi"}))

	_, ok = NewMailer("key", "NoteMate", "no-reply@notemate.app").(*SendgridMailer)
	assert.True(t, ok)
}

func TestSendgridPrepare(t *testing.T) {
	m := NewSendgridMailer("key", "NoteMate", "no-reply@notemate.app")
	mail := m.prepare(PasswordResetMessage("<Ada>", "ada@uni.edu", "http://localhost:3000/reset-password/abc"))

	require.Len(t, mail.Personalizations, 1)
	assert.Equal(t, "[NoteMate] Password reset", mail.Personalizations[0].Subject)
	assert.Equal(t, "ada@uni.edu", mail.Personalizations[0].To[0].Address)
	assert.Equal(t, "no-reply@notemate.app", mail.From.Address)
	require.Len(t, mail.Content, 2)
	assert.Contains(t, mail.Content[0].Value, "/reset-password/abc")
	assert.Contains(t, mail.Content[1].Value, "&lt;Ada&gt;")
}
