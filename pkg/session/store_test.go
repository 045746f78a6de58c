package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.yaml"))

	token, err := s.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
	require.NoError(t, s.Clear())
}

func TestFileStoreOverwritesBothTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	s := NewFileStore(path)

	require.NoError(t, s.SetTokens("t1", "r1"))
	require.NoError(t, s.SetTokens("a", "b"))

	token, err := s.Token()
	require.NoError(t, err)
	refresh, err := s.RefreshToken()
	require.NoError(t, err)
	assert.Equal(t, "a", token)
	assert.Equal(t, "b", refresh)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// a second store on the same path sees the persisted values
	token, err = NewFileStore(path).Token()
	require.NoError(t, err)
	assert.Equal(t, "a", token)

	require.NoError(t, s.Clear())
	token, err = s.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0600))

	_, err := NewFileStore(path).Token()
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, err := TokenExpiry(signed)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	_, err = TokenExpiry("not-a-jwt")
	assert.Error(t, err)
}
