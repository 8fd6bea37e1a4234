package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenVerifier_Enabled(t *testing.T) {
	t.Parallel()

	var nilVerifier *TokenVerifier
	assert.False(t, nilVerifier.Enabled())
	assert.False(t, NewTokenVerifier("").Enabled())
	assert.True(t, NewTokenVerifier("secret").Enabled())
}

func TestTokenVerifier_RoundTrip(t *testing.T) {
	t.Parallel()

	v := NewTokenVerifier("secret")
	token, err := v.Sign(Identity{UserID: "u1", Name: "Ripley"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "u1", Name: "Ripley"}, id)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	t.Parallel()

	v := NewTokenVerifier("secret")

	past := identityClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, past).SignedString([]byte("secret"))
	require.NoError(t, err)

	otherKey, err := NewTokenVerifier("other").Sign(Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	noSubject, err := v.Sign(Identity{Name: "anon"}, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"expired", expired},
		{"wrong key", otherKey},
		{"missing subject", noSubject},
		{"alg none", none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, err := v.Verify(tt.token)
			assert.Error(t, err)
			assert.Nil(t, id)
		})
	}

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
