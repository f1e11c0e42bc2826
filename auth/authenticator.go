package auth

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"strings"
)

// Authenticator validates the bearer credential of an inbound connection
// before any presence registry mutation. Side effect-free and idempotent;
// safe to retry.
type Authenticator struct {
	tokens *Tokens
	log    *slog.Logger
}

func NewAuthenticator(tokens *Tokens, log *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, log: log}
}

// Authenticate decodes the identity carried by a handshake credential.
// An empty credential fails with ErrMissingCredential; a credential that does
// not verify against the shared secret fails with ErrInvalidCredential.
func (a *Authenticator) Authenticate(credential string) (domain.UserID, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", errors.ErrMissingCredential
	}

	// Accept both a raw token and the standard "Bearer <token>" header form.
	credential = strings.TrimPrefix(credential, "Bearer ")

	claims, err := a.tokens.Validate(credential)
	if err != nil {
		a.log.Debug("Credential rejected", "error", err)
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidCredential, err)
	}
	if claims.UserID == "" {
		return "", errors.ErrInvalidCredential
	}
	return domain.UserID(claims.UserID), nil
}
