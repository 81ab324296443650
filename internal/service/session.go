package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/padlockapp/padlock-server/internal/auth"
	"github.com/padlockapp/padlock-server/internal/domain"
	domainerrors "github.com/padlockapp/padlock-server/internal/errors"
	"github.com/padlockapp/padlock-server/internal/id"
	"github.com/padlockapp/padlock-server/internal/store"
	"github.com/padlockapp/padlock-server/internal/store/sqlite"
)

// SessionService manages server-side session rows and their PASETO tokens.
// A token is only as good as its row: deleting the row revokes the token
// no matter how long it has left on the clock.
type SessionService struct {
	store        *sqlite.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(store *sqlite.Store, tokenService *auth.TokenService, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// SessionResponse contains a freshly minted session token.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateSession creates a session row and a matching PASETO token for the user.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User) (*SessionResponse, error) {
	sessionID, err := id.Generate("session")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	token, err := s.tokenService.GenerateSessionToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenService.SessionTokenDuration())
	session := &domain.Session{
		ID:         sessionID,
		UserID:     user.ID,
		TokenHash:  auth.HashSessionToken(token),
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve verifies a session token and returns the authenticated user plus
// the live session. Every failure mode collapses to Unauthorized or
// TokenExpired; callers never learn which check tripped.
func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	claims, err := s.tokenService.VerifySessionToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, domainerrors.TokenExpired("session expired")
		}
		return nil, nil, domainerrors.Unauthorized("invalid session")
	}

	session, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Row deleted = session revoked.
			return nil, nil, domainerrors.Unauthorized("invalid session")
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}

	// The token must be the one this row was minted for.
	if subtle.ConstantTimeCompare([]byte(session.TokenHash), []byte(auth.HashSessionToken(token))) != 1 {
		return nil, nil, domainerrors.Unauthorized("invalid session")
	}

	if session.IsExpired() {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("Failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, nil, domainerrors.TokenExpired("session expired")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("invalid session")
		}
		return nil, nil, fmt.Errorf("load session user: %w", err)
	}

	session.Touch()
	if err := s.store.TouchSession(ctx, session.ID, session.LastSeenAt); err != nil {
		// Activity tracking only; never fails the request.
		s.logger.Warn("Failed to touch session", "session_id", session.ID, "error", err)
	}

	return user, session, nil
}

// Revoke deletes a session row, invalidating its token immediately.
// Revoking an already-gone session is not an error.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes all expired session rows and returns the count.
func (s *SessionService) CleanupExpired(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		s.logger.Debug("Cleaned up expired sessions", "count", n)
	}
	return n, nil
}
