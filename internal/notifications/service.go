package notifications

import (
	"context"
	"errors"

	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

var ErrNotFound = errors.New("notification not found")

// defaultListLimit caps the bell menu payload.
const defaultListLimit = 50

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID, kind, message string) (*Notification, error) {
	n := &Notification{UserID: userID, Type: kind, Message: message}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Notify is the fire-and-forget variant used by other services. Failures are
// logged and swallowed; a lost notification must never fail the operation
// that produced it.
func (s *Service) Notify(ctx context.Context, userID, kind, message string) {
	if _, err := s.Create(ctx, userID, kind, message); err != nil {
		logger.Warnf("notification dropped (type=%s): %v", kind, err)
	}
}

func (s *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	out, err := s.repo.ListByUser(ctx, userID, defaultListLimit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Notification{}
	}
	return out, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	ok, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
