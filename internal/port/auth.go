package port

import "context"

// TokenVerifier checks a GitHub token against the provider.
// A nil error with ok=false means the provider rejected the token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (login string, ok bool, err error)
}
