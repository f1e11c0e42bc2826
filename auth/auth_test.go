package auth

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestTokens_GenerateValidate(t *testing.T) {
	t.Run("should round-trip the user identity", func(t *testing.T) {
		req := require.New(t)
		tokens := NewTokens("test-secret", time.Hour)

		token, err := tokens.Generate(domain.UserID("alice"))
		req.NoError(err)

		claims, err := tokens.Validate(token)
		req.NoError(err)
		req.Equal("alice", claims.UserID)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		req := require.New(t)
		tokens := NewTokens("test-secret", time.Hour)
		other := NewTokens("other-secret", time.Hour)

		forged, err := other.Generate(domain.UserID("alice"))
		req.NoError(err)

		_, err = tokens.Validate(forged)
		req.Error(err)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		req := require.New(t)
		tokens := NewTokens("test-secret", -time.Minute)

		expired, err := tokens.Generate(domain.UserID("alice"))
		req.NoError(err)

		_, err = tokens.Validate(expired)
		req.Error(err)
	})
}

func TestAuthenticator_Authenticate(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	tokens := NewTokens("test-secret", time.Hour)
	authenticator := NewAuthenticator(tokens, log)

	t.Run("should accept a bearer-prefixed credential", func(t *testing.T) {
		req := require.New(t)
		token, err := tokens.Generate(domain.UserID("alice"))
		req.NoError(err)

		userID, err := authenticator.Authenticate("Bearer " + token)

		req.NoError(err)
		req.Equal(domain.UserID("alice"), userID)
	})

	t.Run("should accept a raw token without the prefix", func(t *testing.T) {
		req := require.New(t)
		token, err := tokens.Generate(domain.UserID("alice"))
		req.NoError(err)

		userID, err := authenticator.Authenticate(token)

		req.NoError(err)
		req.Equal(domain.UserID("alice"), userID)
	})

	t.Run("should reject an empty credential", func(t *testing.T) {
		req := require.New(t)

		_, err := authenticator.Authenticate("")

		req.ErrorIs(err, errors.ErrMissingCredential)
	})

	t.Run("should reject garbage", func(t *testing.T) {
		req := require.New(t)

		_, err := authenticator.Authenticate("Bearer not-a-token")

		req.ErrorIs(err, errors.ErrInvalidCredential)
	})
}

func TestPasswordHashing(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Secret123456!")
	req.NoError(err)
	req.NotEqual("Secret123456!", hash)

	match, err := ComparePassword("Secret123456!", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPass123!", hash)
	req.NoError(err)
	req.False(match)
}

func TestValidateRegister(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{"valid input", "user@example.com", "ComplexPass123!", false},
		{"invalid email", "not-an-email", "ComplexPass123!", true},
		{"too short", "user@example.com", "Short1!", true},
		{"missing uppercase", "user@example.com", "complexpass123!", true},
		{"missing digit", "user@example.com", "ComplexPassword!", true},
		{"missing special", "user@example.com", "ComplexPass1234", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateRegister(RegisterRequest{Email: tc.email, Password: tc.password})
			if tc.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}
