package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// CreateSession stores a new login session for the user and returns the session id
func (s *Service) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	sess := &Session{
		SessionID: uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return sess.SessionID, nil
}

// Validate returns the session if the id is valid and not expired
func (s *Service) Validate(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		// cleanup expired session
		_ = s.repo.DeleteBySessionID(ctx, sessionID)
		return nil, nil
	}
	return sess, nil
}

func (s *Service) Delete(ctx context.Context, sessionID string) error {
	return s.repo.DeleteBySessionID(ctx, sessionID)
}

// CleanupExpired removes expired sessions and returns how many were deleted.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}
