package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/go-json-experiment/json"

	"github.com/padlockapp/padlock-server/internal/domain"
	"github.com/padlockapp/padlock-server/internal/id"
)

const (
	tokenIssuer   = "padlock-server"
	tokenAudience = "padlock-client"

	// PASETO v4 symmetric key requirements.
	keyBytesSize = 32 // 256 bits
)

// ErrTokenExpired is returned when a session token is past its expiration.
var ErrTokenExpired = errors.New("token expired")

// SessionClaims represents the claims stored in a PASETO session token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type SessionClaims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"sid"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// TokenService handles PASETO session token generation and verification.
type TokenService struct {
	symmetricKey         paseto.V4SymmetricKey
	sessionTokenDuration time.Duration
}

// NewTokenService creates a new token service with the given key and session lifetime.
func NewTokenService(key []byte, sessionDuration time.Duration) (*TokenService, error) {
	if len(key) != keyBytesSize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyBytesSize, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:         symmetricKey,
		sessionTokenDuration: sessionDuration,
	}, nil
}

// GenerateSessionToken creates a new PASETO v4.local session token for the user.
// The token is encrypted and carries the server-side session ID, so possession
// of the token alone is not enough once the session row is deleted.
func (s *TokenService) GenerateSessionToken(user *domain.User, sessionID string) (string, error) {
	now := time.Now()

	token := paseto.NewToken()

	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.sessionTokenDuration))

	tokenID, err := id.Generate("token")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("user_id", user.ID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("sid", sessionID)

	encrypted := token.V4Encrypt(s.symmetricKey, nil)
	return encrypted, nil
}

// VerifySessionToken verifies and parses a PASETO session token.
// Returns the claims if valid, ErrTokenExpired for a structurally valid but
// expired token, or another error for anything unparseable.
func (s *TokenService) VerifySessionToken(tokenString string) (*SessionClaims, error) {
	parser := paseto.NewParser()

	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		// Distinguish expiry from tampering: re-parse with only the
		// structural rules and check the expiration claim ourselves.
		lenient := paseto.NewParser()
		lenient.AddRule(paseto.ForAudience(tokenAudience))
		lenient.AddRule(paseto.IssuedBy(tokenIssuer))
		if parsed, lerr := lenient.ParseV4Local(s.symmetricKey, tokenString, nil); lerr == nil {
			if exp, eerr := parsed.GetExpiration(); eerr == nil && time.Now().After(exp) {
				return nil, ErrTokenExpired
			}
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims SessionClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &claims, nil
}

// HashSessionToken returns the hex-encoded SHA-256 of a session token.
// Session rows store this hash so a database leak doesn't hand out live tokens.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionTokenDuration returns the configured session token lifetime.
func (s *TokenService) SessionTokenDuration() time.Duration {
	return s.sessionTokenDuration
}
