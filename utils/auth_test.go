package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	SetJWTSecret("test-secret")
}

func TestAccessToken(t *testing.T) {
	token, err := GenerateJWTToken("abc", PrincipalProject)
	require.NoError(t, err)

	claims, err := ParseJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.ID)
	assert.Equal(t, PrincipalProject, claims.Status)
}

func TestTokenUsesAreSeparate(t *testing.T) {
	access, err := GenerateJWTToken("abc", PrincipalUser)
	require.NoError(t, err)
	refresh, err := GenerateRefreshToken("abc", PrincipalUser)
	require.NoError(t, err)
	state, err := GenerateStateToken("abc", "discord")
	require.NoError(t, err)

	_, err = ParseJWTToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseJWTToken(state)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseStateToken(state, "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.ID)
	claims, err = ParseStateToken(state, "discord")
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.ID)
}

func TestExpiredToken(t *testing.T) {
	token, err := signClaims("abc", PrincipalUser, useAccess, -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWTToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenWithOtherSecret(t *testing.T) {
	claims := &Claims{ID: "abc", Status: PrincipalAdmin, Use: useAccess}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("someone-else"))
	require.NoError(t, err)
	_, err = ParseJWTToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseJWTToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("hunter2hunter2", hash))
	assert.False(t, CheckPasswordHash("hunter3hunter3", hash))
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(32)
	require.NoError(t, err)
	b, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 44)
}

func TestInviteMessageEscapesLink(t *testing.T) {
	msg := string(inviteMessage("new@nexura.io", "Nexura", "noreply@nexura.io", `https://app/x?token=a&b="c"`))
	assert.Contains(t, msg, "To: new@nexura.io\r\n")
	assert.Contains(t, msg, "From: Nexura <noreply@nexura.io>\r\n")
	assert.Contains(t, msg, "token=a&amp;b=&#34;c&#34;")
}

func TestSendInviteWithoutSMTP(t *testing.T) {
	var m *SMTPMailer
	assert.NoError(t, m.SendAdminInvite("a@b.c", "https://link"))
	assert.NoError(t, (&SMTPMailer{}).SendAdminInvite("a@b.c", "https://link"))
}
