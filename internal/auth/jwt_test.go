package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.Generate("player-a", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "player-a", claims.PlayerID)
	assert.Equal(t, "alice", claims.Nickname)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-one", time.Hour).Generate("player-a", "alice")
	require.NoError(t, err)

	_, err = NewJWTManager("secret-two", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)

	token, err := manager.Generate("player-a", "alice")
	require.NoError(t, err)

	_, err = manager.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	_, err := manager.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
