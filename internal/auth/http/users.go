package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Auth-ism/ann-ai-backend/internal/auth/domain"
	"github.com/Auth-ism/ann-ai-backend/internal/auth/service"
	"github.com/Auth-ism/ann-ai-backend/pkg/httpx"
	"github.com/Auth-ism/ann-ai-backend/pkg/slogx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	defaultRecentDays  = 7
	defaultRecentLimit = 20
)

// UsersHandler serves the user management endpoints. Admin-only routes are
// gated by middleware; the self-or-admin rules that depend on the target
// user id are enforced here.
type UsersHandler struct {
	UserService *service.UserService
}

type userListResponse struct {
	Users    []domain.User `json:"users"`
	Total    int64         `json:"total"`
	Page     int64         `json:"page"`
	PageSize int64         `json:"page_size"`
}

type updateProfileRequest struct {
	ID          *int64  `json:"id,omitempty"`
	Username    *string `json:"username,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// HandleGet returns a single user. Non-admin callers may only fetch
// themselves.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}
	if !allowSelfOrAdmin(w, r, userID) {
		return
	}

	user, err := h.UserService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// HandleGetByEmail returns a single user by exact email match.
func (h *UsersHandler) HandleGetByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if email == "" {
		httpx.ErrBadRequest("email is required").WriteError(w)
		return
	}

	user, err := h.UserService.GetByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// HandleList returns a page of users with the total count.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	users, total, err := h.UserService.List(r.Context(), page, pageSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}

	httpx.WriteJSON(w, http.StatusOK, userListResponse{
		Users:    users,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// HandleSearch returns users matching the query against username, full
// name, or email.
func (h *UsersHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.PathValue("query")
	if query == "" {
		httpx.ErrBadRequest("search query is required").WriteError(w)
		return
	}
	page, pageSize := pagination(r)

	users, err := h.UserService.Search(r.Context(), query, page, pageSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}

	httpx.WriteJSON(w, http.StatusOK, userListResponse{
		Users:    users,
		Total:    int64(len(users)),
		Page:     page,
		PageSize: pageSize,
	})
}

// HandleRecent returns users registered within the last N days.
func (h *UsersHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", defaultRecentDays)
	limit := queryInt(r, "limit", defaultRecentLimit)
	if days <= 0 || limit <= 0 {
		httpx.ErrBadRequest("days and limit must be positive").WriteError(w)
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	users, err := h.UserService.Recent(r.Context(), days, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

// HandleUpdateProfile applies a partial profile update. The target id
// defaults to the caller; non-admins may only update themselves.
func (h *UsersHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.ErrUnauthorized("missing or invalid authorization header").WriteError(w)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrBadRequest("invalid request body").WriteError(w)
		return
	}

	targetID := id.UserID
	if req.ID != nil {
		targetID = *req.ID
	}
	if targetID != id.UserID && !id.IsAdmin() {
		httpx.ErrForbidden("cannot update another user's profile").WriteError(w)
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), domain.UserUpdate{
		ID:          targetID,
		Username:    req.Username,
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// HandleChangePassword lets the authenticated user rotate their own
// password after proving knowledge of the current one.
func (h *UsersHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.ErrUnauthorized("missing or invalid authorization header").WriteError(w)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrBadRequest("invalid request body").WriteError(w)
		return
	}

	err := h.UserService.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("password changed", "user_id", id.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateRole sets a user's role. Tokens issued before the change
// carry the old role until they expire or are revoked.
func (h *UsersHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.ErrBadRequest("invalid request body").WriteError(w)
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		httpx.ErrBadRequest("role must be one of user, admin, guest").WriteError(w)
		return
	}

	if err := h.UserService.UpdateRole(r.Context(), userID, role); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("role updated", "user_id", userID, "role", role)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeactivate disables an account. Admins cannot deactivate
// themselves; that would be a soft lockout of the caller.
func (h *UsersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	if id, ok := httpx.IdentityFromContext(r.Context()); ok && id.UserID == userID {
		httpx.ErrBadRequest("cannot deactivate your own account").WriteError(w)
		return
	}

	if err := h.UserService.Deactivate(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("user deactivated", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleActivate re-enables a deactivated account.
func (h *UsersHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.UserService.Reactivate(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("user reactivated", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerifyEmail marks the target user's email as verified. Non-admin
// callers may only verify their own address.
func (h *UsersHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}
	if !allowSelfOrAdmin(w, r, userID) {
		return
	}

	if err := h.UserService.MarkEmailVerified(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.ErrBadRequest("invalid user id").WriteError(w)
		return 0, false
	}
	return id, true
}

// allowSelfOrAdmin writes a 401/403 and returns false unless the caller
// is the target user or holds the admin role.
func allowSelfOrAdmin(w http.ResponseWriter, r *http.Request, targetID int64) bool {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		httpx.ErrUnauthorized("missing or invalid authorization header").WriteError(w)
		return false
	}
	if id.UserID != targetID && !id.IsAdmin() {
		httpx.ErrForbidden("insufficient role").WriteError(w)
		return false
	}
	return true
}

func pagination(r *http.Request) (page, pageSize int64) {
	page = queryInt(r, "page", 0)
	if page < 0 {
		page = 0
	}
	pageSize = queryInt(r, "page_size", defaultPageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func queryInt(r *http.Request, key string, fallback int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
