package models

// Session is the connected user as seen by the controllers.
type Session struct {
	Type  UserType `json:"type"`
	Email string   `json:"email"`

	// Token is the bearer token forwarded to the bill store.
	Token string `json:"-"`
}

// IsAdmin reports whether the session belongs to a back-office user.
func (s Session) IsAdmin() bool {
	return s.Type == UserTypeAdmin
}
