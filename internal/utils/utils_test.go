package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, time.Hour)

	token, err := issuer.IssueAdmin("a-1", "ana")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "a-1", claims.AdminID)

	other := NewTokenIssuer("other", time.Hour, time.Hour)
	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute, time.Hour)
	token, err := issuer.IssueUser("alice")
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.True(t, CheckPassword("hunter22", hash))
	assert.False(t, CheckPassword("hunter23", hash))
}

func TestValidateStruct(t *testing.T) {
	type signup struct {
		Username string  `json:"username" validate:"required,username"`
		Amount   float64 `json:"amount" validate:"gt=0"`
	}

	assert.Empty(t, ValidateStruct(signup{Username: "alice", Amount: 10}))

	errs := ValidateStruct(signup{Username: "admin", Amount: 0})
	require.Len(t, errs, 2)
	assert.Equal(t, "username", errs[0].Field)
	assert.Equal(t, "amount", errs[1].Field)
}
