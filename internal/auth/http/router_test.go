package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/domain"
	"github.com/Auth-ism/ann-ai-backend/internal/auth/service"
	"github.com/Auth-ism/ann-ai-backend/internal/auth/store/storetest"
	"github.com/Auth-ism/ann-ai-backend/pkg/httpx"
	"github.com/Auth-ism/ann-ai-backend/pkg/jwtx"
)

const testAdminCode = "router-test-admin-code"

type testEnv struct {
	router *Router
	store  *storetest.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := storetest.NewStore()
	bl := storetest.NewBlacklist()
	codec := jwtx.NewCodec([]byte("router-test-secret"))

	router := NewRouter(codec, "test", st, bl, slog.New(slog.DiscardHandler))
	router.SessionService = &service.SessionService{
		Store:     st,
		Blacklist: bl,
		Codec:     codec,
		AdminCode: testAdminCode,
	}
	router.UserService = &service.UserService{Store: st}
	router.ApplyRoutes()

	return &testEnv{router: router, store: st}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, username, email, adminCode string) domain.User {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username":   username,
		"full_name":  "Test " + username,
		"email":      email,
		"password":   "a-long-password",
		"admin_code": adminCode,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user domain.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	return user
}

func (e *testEnv) login(t *testing.T, identifier string) domain.Session {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": identifier,
		"password":   "a-long-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session domain.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	return session
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpx.APIError {
	t.Helper()
	var envelope httpx.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	user := env.register(t, "alice", "alice@example.com", "")
	require.Equal(t, domain.RoleUser, user.Role)

	session := env.login(t, "alice")
	require.NotEmpty(t, session.Token)
	require.Equal(t, user.ID, session.UserID)

	// The token is accepted while live.
	rec := env.do(t, http.MethodGet, "/api/auth/test-auth", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var identity identityResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&identity))
	require.Equal(t, user.ID, identity.UserID)
	require.Equal(t, "user", identity.Role)

	// Logout revokes it.
	rec = env.do(t, http.MethodPost, "/api/auth/logout", session.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Replaying the revoked token is rejected.
	rec = env.do(t, http.MethodGet, "/api/auth/test-auth", session.Token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid or expired token", decodeError(t, rec).Message)
}

func TestRegisterRejections(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "")

	t.Run("duplicate", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username":  "alice",
			"full_name": "Alice Again",
			"email":     "alice2@example.com",
			"password":  "a-long-password",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		envelope := decodeError(t, rec)
		require.Equal(t, http.StatusText(http.StatusConflict), envelope.Status)
	})

	t.Run("wrong admin code", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username":   "mallory",
			"full_name":  "Mallory M",
			"email":      "mallory@example.com",
			"password":   "a-long-password",
			"admin_code": "guessing",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username":  "x",
			"full_name": "Too Short",
			"email":     "not-an-email",
			"password":  "short",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginRejections(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "")

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid credentials", decodeError(t, rec).Message)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "nobody",
		"password":   "a-long-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "")
	userToken := env.login(t, "alice").Token

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/users/email/alice@example.com"},
		{http.MethodGet, "/api/users/search/alice"},
		{http.MethodGet, "/api/users/recent"},
		{http.MethodPut, "/api/users/1/role"},
		{http.MethodDelete, "/api/users/1"},
		{http.MethodPost, "/api/users/1/activate"},
	}
	for _, p := range paths {
		rec := env.do(t, p.method, p.path, userToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code, "%s %s", p.method, p.path)

		rec = env.do(t, p.method, p.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s without token", p.method, p.path)
	}
}

func TestUserListingAndSearch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t, "root", "root@example.com", testAdminCode)
	env.register(t, "alice", "alice@example.com", "")
	env.register(t, "bob", "bob@example.com", "")
	adminToken := env.login(t, "root").Token

	t.Run("paginated list", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users?page=0&page_size=2", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var list userListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
		require.Equal(t, int64(3), list.Total)
		require.Len(t, list.Users, 2)
		require.Equal(t, int64(2), list.PageSize)
	})

	t.Run("search", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/search/bob", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var list userListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
		require.Len(t, list.Users, 1)
		require.Equal(t, "bob", list.Users[0].Username)
	})

	t.Run("by email", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/email/alice@example.com", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var user domain.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
		require.Equal(t, "alice", user.Username)
	})

	t.Run("recent", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/recent?days=7&limit=10", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var users []domain.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
		require.Len(t, users, 3)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/email/ghost@example.com", adminToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetUserSelfOrAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t, "root", "root@example.com", testAdminCode)
	alice := env.register(t, "alice", "alice@example.com", "")
	bob := env.register(t, "bob", "bob@example.com", "")

	aliceToken := env.login(t, "alice").Token
	adminToken := env.login(t, "root").Token

	// Self access.
	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", alice.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Cross-user access as non-admin.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Admin can read anyone.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d", bob.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched domain.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fetched))
	require.Equal(t, "bob", fetched.Username)
	require.Empty(t, fetched.PasswordHash, "password hash must never serialize")
}

func TestProfileUpdateAndPasswordChange(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.register(t, "root", "root@example.com", testAdminCode)
	alice := env.register(t, "alice", "alice@example.com", "")
	bob := env.register(t, "bob", "bob@example.com", "")

	aliceToken := env.login(t, "alice").Token
	adminToken := env.login(t, "root").Token

	t.Run("self update defaults to caller", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/users", aliceToken, map[string]string{
			"full_name": "Alice Renamed",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated domain.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
		require.Equal(t, alice.ID, updated.ID)
		require.Equal(t, "Alice Renamed", updated.FullName)
	})

	t.Run("non-admin cannot update another user", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/users", aliceToken, map[string]any{
			"id":        bob.ID,
			"full_name": "Hacked",
		})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin can update another user", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/users", adminToken, map[string]any{
			"id":        bob.ID,
			"full_name": "Bob Renamed",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("password change", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/users/password", aliceToken, map[string]string{
			"current_password": "a-long-password",
			"new_password":     "an-even-longer-password",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)

		// Old password no longer works.
		rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"identifier": "alice",
			"password":   "a-long-password",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"identifier": "alice",
			"password":   "an-even-longer-password",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong current password", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/users/password", adminToken, map[string]string{
			"current_password": "not-it",
			"new_password":     "whatever-else-works",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRoleAndActivationAdministration(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	admin := env.register(t, "root", "root@example.com", testAdminCode)
	alice := env.register(t, "alice", "alice@example.com", "")
	adminToken := env.login(t, "root").Token

	t.Run("role update", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d/role", alice.ID), adminToken,
			map[string]string{"role": "admin"})
		require.Equal(t, http.StatusNoContent, rec.Code)

		stored, err := env.store.Users().GetUserByID(t.Context(), alice.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, stored.Role)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, fmt.Sprintf("/api/users/%d/role", alice.ID), adminToken,
			map[string]string{"role": "superuser"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("deactivate and reactivate", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", alice.ID), adminToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		// Deactivated accounts cannot log in; the failure is
		// indistinguishable from bad credentials.
		loginRec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"identifier": "alice",
			"password":   "a-long-password",
		})
		require.Equal(t, http.StatusUnauthorized, loginRec.Code)

		rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/activate", alice.ID), adminToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		loginRec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"identifier": "alice",
			"password":   "a-long-password",
		})
		require.Equal(t, http.StatusOK, loginRec.Code)
	})

	t.Run("self-deactivation rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", admin.ID), adminToken, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "cannot deactivate your own account", decodeError(t, rec).Message)
	})
}

func TestVerifyEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.register(t, "alice", "alice@example.com", "")
	bob := env.register(t, "bob", "bob@example.com", "")
	aliceToken := env.login(t, "alice").Token

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/verify-email", alice.ID), aliceToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := env.store.Users().GetUserByID(t.Context(), alice.ID)
	require.NoError(t, err)
	require.True(t, stored.EmailVerified)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d/verify-email", bob.ID), aliceToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)

	rec = env.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
