package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyPasswordMismatch(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)

	ok, err := VerifyPassword("hunter3hunter3", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)
	require.NotEqual(t, first, second, "each hash should use a fresh salt")
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not phc", "plainly-not-a-hash"},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=16$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=19456,t=2,p=1$!!!!$aGFzaA"},
		{"truncated", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := VerifyPassword("whatever", tc.hash)
			require.ErrorIs(t, err, errMalformedHash)
			require.False(t, ok)
		})
	}
}

func TestSecureCompare(t *testing.T) {
	t.Parallel()

	require.True(t, SecureCompare("admin-code-123", "admin-code-123"))
	require.True(t, SecureCompare("", ""))
	require.False(t, SecureCompare("admin-code-123", "admin-code-124"))
	require.False(t, SecureCompare("short", "a-much-longer-value"))
	require.False(t, SecureCompare("abc", ""))
}
