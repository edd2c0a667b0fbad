package domain

import "strings"

// Settings is the singleton holding user-level configuration.
type Settings struct {
	GitHubToken string      `json:"githubToken"`
	TokenStatus TokenStatus `json:"tokenStatus"`
}

// TokenStatus describes what is known about the stored GitHub token.
type TokenStatus string

// TokenStatusLoading is only ever set by clients while a test is in flight.
const (
	TokenStatusValid   TokenStatus = "valid"
	TokenStatusInvalid TokenStatus = "invalid"
	TokenStatusMissing TokenStatus = "missing"
	TokenStatusUnknown TokenStatus = "unknown"
	TokenStatusLoading TokenStatus = "loading"
)

// Masked returns a copy safe to send to clients.
func (s Settings) Masked() Settings {
	out := s
	out.GitHubToken = MaskToken(s.GitHubToken)
	return out
}

// MaskPrefix starts every masked token.
const MaskPrefix = "****"

// MaskToken keeps the last four characters of a token.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return MaskPrefix
	}
	return MaskPrefix + token[len(token)-4:]
}

// IsMaskedToken reports whether token is a value produced by MaskToken
// rather than a real credential.
func IsMaskedToken(token string) bool {
	return strings.HasPrefix(token, MaskPrefix)
}

// TokenTestResult is returned by the token test endpoint.
type TokenTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
