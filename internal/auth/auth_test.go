package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

type fakeAdmins struct {
	byName map[string]Admin
	err    error
}

func (f *fakeAdmins) GetAdminByUsername(_ context.Context, username string) (*Admin, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.byName[username]
	if !ok {
		return nil, ErrAdminNotFound
	}
	return &a, nil
}

func (f *fakeAdmins) InsertAdmin(_ context.Context, a *Admin) error {
	if _, ok := f.byName[a.Username]; ok {
		return apperr.ErrConflict
	}
	a.ID = int64(len(f.byName) + 1)
	f.byName[a.Username] = *a
	return nil
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret"))
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue("admin")
	require.NoError(t, err)

	subject, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue("admin")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("one", time.Hour).Issue("admin")
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	repo := &fakeAdmins{byName: map[string]Admin{}}
	issuer := NewTokenIssuer("secret", time.Hour)
	svc := NewService(repo, issuer)

	_, err := svc.CreateAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	subject, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", subject)

	_, err = svc.Login(ctx, "admin", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ghost", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_LoginStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(&fakeAdmins{err: boom}, NewTokenIssuer("secret", time.Hour))

	_, err := svc.Login(context.Background(), "admin", "admin123")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_CreateAdminDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeAdmins{byName: map[string]Admin{}}, NewTokenIssuer("secret", time.Hour))

	_, err := svc.CreateAdmin(ctx, "admin", "pw")
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, "admin", "pw")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.CreateAdmin(ctx, " ", "pw")
	assert.True(t, apperr.IsValidation(err))
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	valid, err := issuer.Issue("admin")
	require.NoError(t, err)

	var seen string
	h := Middleware(issuer, OpenPaths...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
		body   string
	}{
		{name: "open path", path: "/health", want: http.StatusNoContent},
		{name: "login is open", path: "/auth/login", want: http.StatusNoContent},
		{name: "missing header", path: "/patients", want: http.StatusUnauthorized, body: "unauthorized"},
		{name: "wrong scheme", path: "/patients", header: "Basic abc", want: http.StatusUnauthorized, body: "unauthorized"},
		{name: "bad token", path: "/patients", header: "Bearer garbage", want: http.StatusUnauthorized, body: "invalid or expired token"},
		{name: "valid token", path: "/patients", header: "Bearer " + valid, want: http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.body != "" {
				assert.Contains(t, rec.Body.String(), tc.body)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "admin", seen)
}
