package session

// TokenPair is what the backend hands out on login, registration
// confirmation and refresh.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Claim names carried in the access token payload.
const (
	ClaimSubject = "sub"
	ClaimRole    = "rol"
	ClaimEmail   = "email"
)
