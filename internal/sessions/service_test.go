package sessions

import (
	"context"
	"testing"
	"time"
)

// fake repo for testing
type fakeRepo struct {
	store map[string]*Session
}

func (f *fakeRepo) Create(ctx context.Context, s *Session) error {
	if f.store == nil {
		f.store = map[string]*Session{}
	}
	f.store[s.SessionID] = s
	return nil
}
func (f *fakeRepo) GetBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	if f.store == nil {
		return nil, nil
	}
	s, ok := f.store[sessionID]
	if !ok {
		return nil, nil
	}
	return s, nil
}
func (f *fakeRepo) DeleteBySessionID(ctx context.Context, sessionID string) error {
	if f.store == nil {
		return nil
	}
	delete(f.store, sessionID)
	return nil
}
func (f *fakeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64
	for id, s := range f.store {
		if time.Now().UTC().After(s.ExpiresAt) {
			delete(f.store, id)
			n++
		}
	}
	return n, nil
}

func TestCreateAndValidateSession(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	id, err := svc.CreateSession(ctx, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id == "" {
		t.Fatalf("expected session id")
	}
	sess, err := svc.Validate(ctx, id)
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if sess == nil || sess.UserID != "user-1" {
		t.Fatalf("unexpected session: %v", sess)
	}
	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	sess2, _ := svc.Validate(ctx, id)
	if sess2 != nil {
		t.Fatalf("expected session removed")
	}
}

func TestValidateExpiredSessionIsCleanedUp(t *testing.T) {
	repo := &fakeRepo{store: map[string]*Session{
		"stale": {SessionID: "stale", UserID: "user-2", ExpiresAt: time.Now().UTC().Add(-time.Minute)},
	}}
	svc := NewService(repo)

	sess, err := svc.Validate(context.Background(), "stale")
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil for expired session")
	}
	if _, ok := repo.store["stale"]; ok {
		t.Fatalf("expired session should be deleted on validate")
	}
}

func TestCleanupExpired(t *testing.T) {
	repo := &fakeRepo{store: map[string]*Session{
		"live":  {SessionID: "live", UserID: "u", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		"stale": {SessionID: "stale", UserID: "u", ExpiresAt: time.Now().UTC().Add(-time.Hour)},
	}}
	svc := NewService(repo)

	n, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("cleanup error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}
	if _, ok := repo.store["live"]; !ok {
		t.Fatalf("live session must survive cleanup")
	}
}
