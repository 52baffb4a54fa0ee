package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthService(db)
}

func TestCreateAndValidateUser(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.CreateUser("alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret", user.Password, "password is stored hashed")

	got, err := svc.ValidateUser("alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.ValidateUser("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.ValidateUser("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDuplicateUsername(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateUser("alice", "one")
	require.NoError(t, err)
	_, err = svc.CreateUser("alice", "two")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tokens := NewSessionTokens([]byte("test-secret"), time.Hour)

	signed, err := tokens.Issue(&User{ID: "u1", Username: "alice"})
	require.NoError(t, err)

	userID, username, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "alice", username)
}

func TestSessionTokenRejectsWrongKey(t *testing.T) {
	signed, err := NewSessionTokens([]byte("key-a"), time.Hour).Issue(&User{ID: "u1", Username: "alice"})
	require.NoError(t, err)

	_, _, err = NewSessionTokens([]byte("key-b"), time.Hour).Parse(signed)
	assert.Error(t, err)
}

func TestSessionTokenRejectsGarbage(t *testing.T) {
	_, _, err := NewSessionTokens([]byte("k"), time.Hour).Parse("not-a-token")
	assert.Error(t, err)
}
