package posts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fakeRepo struct {
	mu      sync.Mutex
	posts   map[string]*ScheduledPost
	history []StatusHistory
	nextID  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{posts: make(map[string]*ScheduledPost)}
}

func (f *fakeRepo) Insert(_ context.Context, p *ScheduledPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	if p.ID == "" {
		p.ID = time.Now().Format("150405") + string(rune('a'+f.nextID))
	}
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context) ([]ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ScheduledPost
	for _, p := range f.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepo) ListByUsername(ctx context.Context, username string) ([]ScheduledPost, error) {
	all, _ := f.List(ctx)
	var out []ScheduledPost
	for _, p := range all {
		if p.Username == username {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ClaimDue(_ context.Context, now time.Time, limit int) ([]ScheduledPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var claimed []ScheduledPost
	for _, p := range f.posts {
		if len(claimed) >= limit {
			break
		}
		if p.Status == StatusScheduled && !p.ScheduledAt.After(now) {
			p.Status = StatusPosting
			claimed = append(claimed, *p)
		}
	}
	return claimed, nil
}

func (f *fakeRepo) UpdateFields(_ context.Context, id string, fields bson.M) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	if v, ok := fields["caption"]; ok {
		p.Caption = v.(string)
	}
	if v, ok := fields["scheduledAt"]; ok {
		p.ScheduledAt = v.(time.Time)
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRepo) SetStatus(_ context.Context, id string, status Status, errorMessage, mediaID string, attemptAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	p.Status = status
	p.ErrorMessage = errorMessage
	p.MediaID = mediaID
	p.LastAttemptAt = attemptAt
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakeRepo) AppendHistory(_ context.Context, h *StatusHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, *h)
	return nil
}

func (f *fakeRepo) ListHistory(_ context.Context, postID string) ([]StatusHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []StatusHistory
	for _, h := range f.history {
		if h.PostID == postID {
			out = append(out, h)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	kinds []string
}

func (r *recordingNotifier) Notify(_ context.Context, _, kind, _ string) {
	r.kinds = append(r.kinds, kind)
}

func newTestService(repo *fakeRepo) (*Service, *recordingNotifier) {
	n := &recordingNotifier{}
	svc := NewService(repo, n)
	return svc, n
}

func TestCreateFansOutBothPlatformsWithSharedCampaignID(t *testing.T) {
	repo := newFakeRepo()
	svc, notifier := newTestService(repo)

	created, immediate, err := svc.Create(context.Background(), CreateRequest{
		Username:      "cafe",
		MediaURLs:     []string{"https://cdn.example/1.jpg"},
		MediaType:     "image",
		Caption:       "Grand opening",
		ScheduledTime: time.Now().UTC().Add(2 * time.Hour).Format(time.RFC3339),
		Instagram:     true,
		Facebook:      true,
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.False(t, immediate)

	assert.NotEmpty(t, created[0].CampaignID)
	assert.Equal(t, created[0].CampaignID, created[1].CampaignID)
	assert.NotEqual(t, created[0].IsFacebook, created[1].IsFacebook)
	for _, p := range created {
		assert.Equal(t, StatusScheduled, p.Status)
		assert.Equal(t, LabelBoth, p.PlatformLabel)
	}
	assert.Equal(t, []string{"post_scheduled"}, notifier.kinds)
}

func TestCreateImmediateWhenDueWithinAMinute(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	created, immediate, err := svc.Create(context.Background(), CreateRequest{
		Username:      "cafe",
		MediaURLs:     []string{"https://cdn.example/1.jpg"},
		MediaType:     "image",
		Caption:       "Now",
		ScheduledTime: time.Now().UTC().Add(10 * time.Second).Format(time.RFC3339),
		Instagram:     true,
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.True(t, immediate)
	assert.False(t, created[0].IsFacebook)
	assert.Equal(t, PlatformInstagram, created[0].PlatformLabel)
}

func TestCreateValidation(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()
	future := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)

	_, _, err := svc.Create(ctx, CreateRequest{MediaURLs: nil, ScheduledTime: future, Instagram: true})
	assert.ErrorIs(t, err, ErrNoMedia)

	_, _, err = svc.Create(ctx, CreateRequest{MediaURLs: []string{"u"}, ScheduledTime: future})
	assert.ErrorIs(t, err, ErrNoPlatform)

	past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	_, _, err = svc.Create(ctx, CreateRequest{MediaURLs: []string{"u"}, ScheduledTime: past, Instagram: true})
	assert.ErrorIs(t, err, ErrBadScheduledTime)

	_, _, err = svc.Create(ctx, CreateRequest{MediaURLs: []string{"u"}, ScheduledTime: "tomorrow-ish", Instagram: true})
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestCreateAllowsSlightlyPastTimes(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, immediate, err := svc.Create(context.Background(), CreateRequest{
		MediaURLs:     []string{"u"},
		ScheduledTime: time.Now().UTC().Add(-2 * time.Minute).Format(time.RFC3339),
		Instagram:     true,
	})
	require.NoError(t, err)
	assert.True(t, immediate)
}

func TestParseScheduledTimeNaiveIsInterpretedAsIST(t *testing.T) {
	got, err := ParseScheduledTime("2026-06-01T18:30:00")
	require.NoError(t, err)
	// 18:30 IST is 13:00 UTC.
	assert.Equal(t, time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC), got)

	got, err = ParseScheduledTime("2026-06-01T13:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC), got)
}

func TestUpdateRejectsFinishedPosts(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	p := &ScheduledPost{Caption: "done", Status: StatusPosted, ScheduledAt: time.Now()}
	require.NoError(t, repo.Insert(ctx, p))

	caption := "edited"
	_, err := svc.Update(ctx, p.ID, UpdateRequest{Caption: &caption})
	assert.ErrorIs(t, err, ErrNotCancelable)
}

func TestCancelRecordsHistory(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	p := &ScheduledPost{Caption: "pending", Status: StatusScheduled, ScheduledAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Insert(ctx, p))

	require.NoError(t, svc.Cancel(ctx, p.ID))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, got.Status)

	hist, err := svc.History(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, StatusScheduled, hist[0].PreviousStatus)
	assert.Equal(t, StatusCanceled, hist[0].NewStatus)

	assert.ErrorIs(t, svc.Cancel(ctx, p.ID), ErrNotCancelable)
}

func TestDeleteUnknownPost(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), ErrPostNotFound)
}

func TestListGroupedFiltersByUsername(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	mine := &ScheduledPost{Username: "cafe_one", Caption: "ours", Status: StatusScheduled, ScheduledAt: time.Now().Add(time.Hour)}
	theirs := &ScheduledPost{Username: "cafe_two", Caption: "theirs", Status: StatusScheduled, ScheduledAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Insert(ctx, mine))
	require.NoError(t, repo.Insert(ctx, theirs))

	all, err := svc.ListGrouped(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := svc.ListGrouped(ctx, "cafe_one")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "ours", scoped[0].Caption)
}
