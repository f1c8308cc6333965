package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrNoMedia          = errors.New("at least one media url is required")
	ErrNoPlatform       = errors.New("at least one platform must be selected")
	ErrBadScheduledTime = errors.New("scheduled_time must not be more than 5 minutes in the past")
	ErrInvalidTime      = errors.New("scheduled_time is not a recognized timestamp")
	ErrPostNotFound     = errors.New("post not found")
	ErrNotCancelable    = errors.New("post is not in a cancelable state")
)

// pastGrace is how far in the past a scheduled time may lie before the
// request is rejected; clock skew between clients and the server makes a
// hard cutoff at "now" too strict.
const pastGrace = 5 * time.Minute

// immediateWindow marks campaigns due within this window as immediate so the
// caller can trigger the publisher without waiting for the next poll.
const immediateWindow = 60 * time.Second

// Notifier receives user-facing events. The notifications service satisfies
// this; tests plug in a recorder.
type Notifier interface {
	Notify(ctx context.Context, userID, kind, message string)
}

// CreateRequest is one user-authored post, possibly targeting both platforms.
type CreateRequest struct {
	UserID        string
	Username      string
	MediaURLs     []string
	MediaType     string
	StorageKeys   []string
	Caption       string
	ScheduledTime string
	Instagram     bool
	Facebook      bool
}

type UpdateRequest struct {
	Caption       *string
	ScheduledTime *string
}

type Service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier, now: time.Now}
}

// naiveLocation interprets timestamps arriving without a zone offset. The
// dashboard's user base enters local Indian time.
var naiveLocation = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}()

// ParseScheduledTime accepts RFC 3339 timestamps, or naive ones which are
// interpreted in IST. The result is always UTC.
func ParseScheduledTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, raw, naiveLocation); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidTime
}

// Create fans the request out into one record per selected platform, all
// sharing a freshly minted campaign id. It returns the created records and
// whether the campaign is due for immediate publishing.
func (s *Service) Create(ctx context.Context, req CreateRequest) ([]ScheduledPost, bool, error) {
	if len(req.MediaURLs) == 0 {
		return nil, false, ErrNoMedia
	}
	if !req.Instagram && !req.Facebook {
		return nil, false, ErrNoPlatform
	}

	scheduledAt, err := ParseScheduledTime(req.ScheduledTime)
	if err != nil {
		return nil, false, err
	}
	now := s.now().UTC()
	if scheduledAt.Before(now.Add(-pastGrace)) {
		return nil, false, ErrBadScheduledTime
	}

	label := PlatformInstagram
	switch {
	case req.Instagram && req.Facebook:
		label = LabelBoth
	case req.Facebook:
		label = PlatformFacebook
	}

	campaignID := uuid.NewString()
	var created []ScheduledPost
	for _, isFacebook := range platformFanout(req.Instagram, req.Facebook) {
		p := ScheduledPost{
			CampaignID:    campaignID,
			UserID:        req.UserID,
			Username:      req.Username,
			MediaURLs:     req.MediaURLs,
			MediaType:     req.MediaType,
			StorageKeys:   req.StorageKeys,
			Caption:       req.Caption,
			ScheduledAt:   scheduledAt,
			Status:        StatusScheduled,
			IsFacebook:    isFacebook,
			PlatformLabel: label,
			CreatedAt:     now,
		}
		if err := s.repo.Insert(ctx, &p); err != nil {
			return created, false, fmt.Errorf("insert scheduled post: %w", err)
		}
		created = append(created, p)
	}

	immediate := !scheduledAt.After(now.Add(immediateWindow))
	if s.notifier != nil {
		s.notifier.Notify(ctx, req.UserID, "post_scheduled",
			fmt.Sprintf("Post scheduled for %s on %s", scheduledAt.Format(time.RFC1123), label))
	}
	return created, immediate, nil
}

func platformFanout(instagram, facebook bool) []bool {
	var out []bool
	if instagram {
		out = append(out, false)
	}
	if facebook {
		out = append(out, true)
	}
	return out
}

// ListGrouped returns the campaign view of scheduled posts, newest first.
// A non-empty username restricts the view to that account's posts.
func (s *Service) ListGrouped(ctx context.Context, username string) ([]Campaign, error) {
	var records []ScheduledPost
	var err error
	if username != "" {
		records, err = s.repo.ListByUsername(ctx, username)
	} else {
		records, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return GroupPosts(records), nil
}

func (s *Service) Get(ctx context.Context, id string) (*ScheduledPost, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	return p, nil
}

// Update edits caption and/or scheduled time of a single record. Finished
// posts stay immutable.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*ScheduledPost, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusPosted || p.Status == StatusPosting {
		return nil, ErrNotCancelable
	}

	fields := bson.M{}
	if req.Caption != nil {
		fields["caption"] = *req.Caption
	}
	if req.ScheduledTime != nil {
		scheduledAt, err := ParseScheduledTime(*req.ScheduledTime)
		if err != nil {
			return nil, err
		}
		if scheduledAt.Before(s.now().UTC().Add(-pastGrace)) {
			return nil, ErrBadScheduledTime
		}
		fields["scheduledAt"] = scheduledAt
	}
	if len(fields) == 0 {
		return p, nil
	}
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Cancel marks a pending record canceled and records the transition.
func (s *Service) Cancel(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != StatusScheduled {
		return ErrNotCancelable
	}
	if err := s.repo.SetStatus(ctx, id, StatusCanceled, "", "", time.Time{}); err != nil {
		return err
	}
	return s.repo.AppendHistory(ctx, &StatusHistory{
		PostID:         id,
		PreviousStatus: p.Status,
		NewStatus:      StatusCanceled,
	})
}

// Delete removes a record outright. Cancel is preferred for pending posts;
// this exists for cleaning up failed and canceled records.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) History(ctx context.Context, postID string) ([]StatusHistory, error) {
	return s.repo.ListHistory(ctx, postID)
}
