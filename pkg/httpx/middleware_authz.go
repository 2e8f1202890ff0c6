package httpx

import "net/http"

// RequireRole rejects authenticated callers whose role is not in the allowed
// set. It must run after AuthnMiddleware; a request with no identity is
// treated as unauthenticated.
func RequireRole(allowed ...string) Middleware {
	want := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				ErrUnauthorized("authentication required").WriteError(w)
				return
			}

			if _, ok := want[id.Role]; !ok {
				ErrForbidden("insufficient role").WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
