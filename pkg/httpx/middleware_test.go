package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Auth-ism/ann-ai-backend/pkg/jwtx"
)

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsBlacklisted(_ context.Context, token string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[token], nil
}

func okHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok, "handler should see an identity")
		WriteJSON(w, http.StatusOK, map[string]int64{"user_id": id.UserID})
	})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var envelope APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func TestAuthnMiddlewareAcceptsValidToken(t *testing.T) {
	t.Parallel()

	codec := jwtx.NewCodec([]byte("secret"))
	token, err := codec.Issue(7, "user")
	require.NoError(t, err)

	h := AuthnMiddleware(codec, &fakeRevocations{})(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthnMiddlewareMissingHeader(t *testing.T) {
	t.Parallel()

	codec := jwtx.NewCodec([]byte("secret"))
	h := AuthnMiddleware(codec, &fakeRevocations{})(okHandler(t))

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		envelope := decodeEnvelope(t, rec)
		require.Equal(t, http.StatusText(http.StatusUnauthorized), envelope.Status)
	}
}

func TestAuthnMiddlewareExpiredAndInvalidCollapse(t *testing.T) {
	t.Parallel()

	codec := jwtx.NewCodecTTL([]byte("secret"), -time.Minute)
	expired, err := codec.Issue(7, "user")
	require.NoError(t, err)

	h := AuthnMiddleware(jwtx.NewCodec([]byte("secret")), &fakeRevocations{})(okHandler(t))

	for _, token := range []string{expired, "not.a.token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid or expired token", decodeEnvelope(t, rec).Message)
	}
}

func TestAuthnMiddlewareRevokedToken(t *testing.T) {
	t.Parallel()

	codec := jwtx.NewCodec([]byte("secret"))
	token, err := codec.Issue(7, "user")
	require.NoError(t, err)

	h := AuthnMiddleware(codec, &fakeRevocations{
		revoked: map[string]bool{token: true},
	})(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid or expired token", decodeEnvelope(t, rec).Message)
}

func TestAuthnMiddlewareFailsClosedOnStoreError(t *testing.T) {
	t.Parallel()

	codec := jwtx.NewCodec([]byte("secret"))
	token, err := codec.Issue(7, "user")
	require.NoError(t, err)

	h := AuthnMiddleware(codec, &fakeRevocations{
		err: errors.New("connection refused"),
	})(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireRole("admin")(next)

	t.Run("no identity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := ContextWithIdentity(req.Context(), Identity{UserID: 1, Role: "user"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req.WithContext(ctx))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("allowed role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := ContextWithIdentity(req.Context(), Identity{UserID: 1, Role: "admin"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req.WithContext(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}
