package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockUserLookup struct {
	userID int32
	err    error
}

func (m *mockUserLookup) GetUserIDByAuth0ID(auth0ID string) (int32, error) {
	return m.userID, m.err
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{}
	assert.NoError(t, claims.Validate(nil))
}

func TestNewAuth0JWTValidator_Success(t *testing.T) {
	lookup := &mockUserLookup{userID: 1}

	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.finora.app", lookup)
	assert.NoError(t, err)
	assert.NotNil(t, validator)
	assert.NotNil(t, validator.validator)
	assert.Equal(t, lookup, validator.userLookup)
}

func TestAuth0JWTValidator_ValidateToken_InvalidJWT(t *testing.T) {
	lookup := &mockUserLookup{userID: 1}

	validator, err := NewAuth0JWTValidator("test.auth0.com", "https://api.finora.app", lookup)
	assert.NoError(t, err)

	userID, err := validator.ValidateToken("invalid-token")
	assert.Error(t, err)
	assert.Equal(t, int32(0), userID)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
