package models

// LoginInput holds the credentials submitted on the sign-in form.
type LoginInput struct {
	Email      string `json:"email" form:"email" validate:"required,email"`
	Password   string `json:"password" form:"password" validate:"required"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

// LogoutAllInput carries the step-up password for revoking every session.
type LogoutAllInput struct {
	CurrentPassword string `json:"current_password" form:"current_password" validate:"required"`
}

// Tokens is the token material issued by the upstream on login or refresh.
// RefreshToken is only granted when a persistent session was requested.
type Tokens struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshExpiresIn int64  `json:"refresh_expires_in,omitempty"`
}

// HasRefreshToken reports whether the upstream granted a refresh token.
func (t *Tokens) HasRefreshToken() bool {
	return t != nil && t.RefreshToken != ""
}

// LogoutAllResult reports how many sessions the upstream revoked.
type LogoutAllResult struct {
	Message         string `json:"message,omitempty"`
	RevokedSessions int    `json:"revoked_sessions"`
}
