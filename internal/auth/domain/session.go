package domain

// Session is what a successful login returns: the signed bearer token plus a
// summary of the authenticated user. The server keeps no session table; the
// token is self-contained and only a revocation record is ever stored.
type Session struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
