package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Generate("b1", "Acme Corp", "buyer")
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "b1", claims.UserID)
	assert.Equal(t, "Acme Corp", claims.Name)
	assert.Equal(t, "buyer", claims.Role)
	assert.Equal(t, "b1", claims.Subject)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).Generate("b1", "Acme", "buyer")
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager("test-secret", time.Minute)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.Generate("s1", "Jiwoo", "seller")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := NewManager("test-secret", time.Hour).Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
