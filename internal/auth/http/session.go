package http

import (
	"encoding/json"
	"net/http"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/service"
	"github.com/Auth-ism/ann-ai-backend/pkg/httpx"
	"github.com/Auth-ism/ann-ai-backend/pkg/slogx"
)

// SessionHandler serves the public authentication endpoints: registration,
// login, logout and the token sanity-check.
type SessionHandler struct {
	SessionService *service.SessionService
}

type registerRequest struct {
	Username    string  `json:"username"`
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	AdminCode   string  `json:"admin_code,omitempty"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type identityResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// HandleRegister creates a new account. Supplying the correct admin
// registration code grants the admin role; a wrong code is rejected
// outright rather than silently downgraded.
func (h *SessionHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrBadRequest("invalid request body").WriteError(w)
		return
	}

	user, err := h.SessionService.Register(r.Context(), service.RegisterParams{
		Username:    req.Username,
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		AdminCode:   req.AdminCode,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, user)
}

// HandleLogin exchanges a username-or-email plus password for a bearer token.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrBadRequest("invalid request body").WriteError(w)
		return
	}

	session, err := h.SessionService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, session)
}

// HandleLogout revokes the presented token for the remainder of its
// lifetime. Logging out twice with the same token is a no-op.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.ErrUnauthorized("missing or invalid authorization header").WriteError(w)
		return
	}

	if err := h.SessionService.Logout(r.Context(), id.Claims, id.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleTestAuth echoes the authenticated identity. Useful for clients
// to confirm a stored token is still accepted.
func (h *SessionHandler) HandleTestAuth(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.ErrUnauthorized("missing or invalid authorization header").WriteError(w)
		return
	}

	slogx.FromContext(r.Context()).Debug("token check passed", "user_id", id.UserID)

	httpx.WriteJSON(w, http.StatusOK, identityResponse{
		UserID: id.UserID,
		Role:   id.Role,
	})
}
