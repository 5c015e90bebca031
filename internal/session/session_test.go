package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("empty token", func(t *testing.T) {
		_, err := New("   ")
		require.ErrorIs(t, err, ErrNoToken)
	})

	t.Run("jwt claims are exposed", func(t *testing.T) {
		s, err := New(signedToken(t, "buyer-42", exp))
		require.NoError(t, err)

		assert.Equal(t, "buyer-42", s.Subject())
		got, ok := s.ExpiresAt()
		require.True(t, ok)
		assert.True(t, exp.Equal(got))
		assert.False(t, s.Expired(exp.Add(-time.Second)))
		assert.True(t, s.Expired(exp))
	})

	t.Run("opaque token has no claims", func(t *testing.T) {
		s, err := New("sanctum|abcdef")
		require.NoError(t, err)

		assert.Equal(t, "sanctum|abcdef", s.Token())
		assert.Empty(t, s.Subject())
		_, ok := s.ExpiresAt()
		assert.False(t, ok)
		assert.False(t, s.Expired(time.Now()))
	})
}

func TestFromAuthorization(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer abc", want: "abc"},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer", wantErr: true},
		{header: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			s, err := FromAuthorization(tt.header)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Token())
		})
	}
}

func TestAuthorizeAndContext(t *testing.T) {
	s, err := New("abc")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart-preview", nil)
	s.Authorize(req)
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	got, ok := FromContext(NewContext(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewFileStore(path)

	_, err := store.Load()
	require.ErrorIs(t, err, ErrNoToken)

	require.ErrorIs(t, store.Save(""), ErrNoToken)
	require.NoError(t, store.Save("abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", s.Token())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Load()
	require.ErrorIs(t, err, ErrNoToken)
}

func TestFileStore_ZeroValue(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "session.yaml")}

	require.NoError(t, store.Save("abc"))
	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", s.Token())
}

func TestFileStore_TightensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: old\n"), 0o644))

	require.NoError(t, NewFileStore(path).Save("new"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVerifier(t *testing.T) {
	_, err := NewVerifier(VerifierConfig{})
	require.Error(t, err)

	v, err := NewVerifier(VerifierConfig{Secret: "test-secret"})
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour)
	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "valid", token: signedToken(t, "buyer-42", exp), want: "buyer-42"},
		{
			name:    "other key",
			token:   sign(jwt.RegisteredClaims{Subject: "victim", ExpiresAt: jwt.NewNumericDate(exp)}, jwt.SigningMethodHS256, []byte("attacker-chosen-key")),
			wantErr: true,
		},
		{
			name:    "unsigned",
			token:   sign(jwt.RegisteredClaims{Subject: "victim", ExpiresAt: jwt.NewNumericDate(exp)}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
			wantErr: true,
		},
		{name: "no subject", token: signedToken(t, "", exp), wantErr: true},
		{name: "expired", token: signedToken(t, "buyer-42", time.Now().Add(-time.Minute)), wantErr: true},
		{name: "opaque", token: "any-opaque-string", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.token)
			require.NoError(t, err)

			got, err := v.Subject(s)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnverified)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifier_Issuer(t *testing.T) {
	v, err := NewVerifier(VerifierConfig{Secret: "test-secret", Issuer: "tumana"})
	require.NoError(t, err)

	s, err := New(signedToken(t, "buyer-42", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	_, err = v.Subject(s)
	require.ErrorIs(t, err, ErrUnverified)
}
