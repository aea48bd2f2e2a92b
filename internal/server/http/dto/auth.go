package dto

// AuthRequest is the register and login body.
type AuthRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse returns the issued token for clients that send it as a
// Bearer header instead of relying on the cookie.
type AuthResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
}

// NewAuthResponse wraps token as a Bearer credential.
func NewAuthResponse(token string) AuthResponse {
	return AuthResponse{Token: token, TokenType: "Bearer"}
}
