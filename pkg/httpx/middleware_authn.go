package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Auth-ism/ann-ai-backend/pkg/jwtx"
	"github.com/Auth-ism/ann-ai-backend/pkg/slogx"
)

// RevocationChecker answers whether a token has been blacklisted. Store
// unavailability must surface as an error, never as "not revoked".
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// AuthnMiddleware gates protected endpoints. It extracts the bearer token,
// verifies signature and expiry, checks the revocation store, and attaches
// the resulting Identity to the request context.
//
// All rejection paths respond 401 with the same envelope; only the log line
// distinguishes expired from invalid from revoked. A revocation-store
// failure fails closed with a 500.
func AuthnMiddleware(codec *jwtx.Codec, revoked RevocationChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				log.Debug("authn rejected", "reason", "missing or malformed bearer header")
				ErrUnauthorized("missing or invalid authorization header").WriteError(w)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := codec.Verify(raw)
			if err != nil {
				if errors.Is(err, jwtx.ErrTokenExpired) {
					log.Debug("authn rejected", "reason", "token expired")
				} else {
					log.Debug("authn rejected", "reason", "token invalid")
				}
				ErrUnauthorized("invalid or expired token").WriteError(w)
				return
			}

			isRevoked, err := revoked.IsBlacklisted(ctx, raw)
			if err != nil {
				log.Error("revocation check failed", "err", err)
				ErrInternal("authentication check failed").WriteError(w)
				return
			}
			if isRevoked {
				log.Debug("authn rejected", "reason", "token revoked", "user_id", claims.UserID)
				ErrUnauthorized("invalid or expired token").WriteError(w)
				return
			}

			ctx = ContextWithIdentity(ctx, Identity{
				UserID: claims.UserID,
				Role:   claims.Role,
				Claims: claims,
				Token:  raw,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
