package auth

import (
	"math"
	"time"
)

// Credential is the OAuth state for one Questrade login.
//
// ExpiresAt is absolute (seconds since the Unix epoch), never a duration.
type Credential struct {
	AccessToken  string  `yaml:"access_token"`
	RefreshToken string  `yaml:"refresh_token"`
	TokenType    string  `yaml:"token_type"`
	APIServer    string  `yaml:"api_server"`
	ExpiresAt    float64 `yaml:"expires_at"`
}

// Expiry returns ExpiresAt as a time.Time.
func (c Credential) Expiry() time.Time {
	sec, frac := math.Modf(c.ExpiresAt)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// Valid reports whether an access token is present and unexpired at now.
func (c Credential) Valid(now time.Time) bool {
	return c.AccessToken != "" && c.ExpiresAt > epochSeconds(now)
}

// Authorization returns the value for the Authorization header.
func (c Credential) Authorization() string {
	tokenType := c.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return tokenType + " " + c.AccessToken
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
