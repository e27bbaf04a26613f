package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned when the trust provider rejects a credential
// or the credential is unusable. The HTTP layer maps it to 401.
var ErrInvalidToken = errors.New("invalid token")

// Identity is a verified caller: the stable uid the trust provider binds to
// the credential, plus the email attached to it when one is known.
type Identity struct {
	UID   string
	Email string
}

// Verifier checks a bearer credential against the trust provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Service adapts a Verifier to the HTTP layer. Tokens are never stored;
// every request is verified against the provider.
type Service struct {
	verifier Verifier
}

func NewService(verifier Verifier) *Service {
	return &Service{verifier: verifier}
}
