package jwt

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCookie(t *testing.T) {
	exp := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c := CreateCookie(AccessCookie, "token-value", "/", exp)

	assert.Equal(t, "accessToken", c.Name)
	assert.Equal(t, "token-value", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.Expires.Equal(exp))
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestDeleteCookie(t *testing.T) {
	c := DeleteCookie(RefreshCookie, "/")

	assert.Equal(t, "refreshToken", c.Name)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.Expires.Before(time.Now()))
	assert.True(t, c.HttpOnly)

	header := c.String()
	assert.Contains(t, header, "Max-Age=0")
}

func TestSha256Hex(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Sha256Hex(""))
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Sha256Hex("abc"))
	assert.Len(t, Sha256Hex("refresh-token"), 64)
}

func TestNewJTI(t *testing.T) {
	a, b := NewJTI(), NewJTI()
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}
