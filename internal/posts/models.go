package posts

import "time"

// Status is the lifecycle state of a physical per-platform post record.
// Aggregate-only states (partial_posted, partial_failed) never appear on a
// record; they are computed per campaign by AggregateStatus.
type Status string

const (
	StatusScheduled     Status = "scheduled"
	StatusPosting       Status = "posting_in_progress"
	StatusPosted        Status = "posted"
	StatusFailed        Status = "failed"
	StatusCanceled      Status = "canceled"
	StatusPartialPosted Status = "partial_posted"
	StatusPartialFailed Status = "partial_failed"
)

// Platform labels. A record belongs to exactly one platform, derived from the
// IsFacebook flag; "Both" only appears as a campaign-level label.
const (
	PlatformInstagram = "Instagram"
	PlatformFacebook  = "Facebook"
	LabelBoth         = "Both"
)

// ScheduledPost is one platform's physical copy of a user-authored post.
// Posts targeting "Both" are fanned out into two records sharing a CampaignID.
type ScheduledPost struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	CampaignID    string    `bson:"campaignId,omitempty" json:"campaign_id,omitempty"`
	UserID        string    `bson:"userId,omitempty" json:"user_id,omitempty"`
	Username      string    `bson:"username" json:"username"`
	MediaURLs     []string  `bson:"mediaUrls" json:"media_urls"`
	MediaType     string    `bson:"mediaType" json:"media_type"`
	StorageKeys   []string  `bson:"storageKeys,omitempty" json:"storage_keys,omitempty"`
	Caption       string    `bson:"caption" json:"caption"`
	ScheduledAt   time.Time `bson:"scheduledAt" json:"scheduled_time"`
	Status        Status    `bson:"status" json:"status"`
	IsFacebook    bool      `bson:"isFacebook" json:"is_facebook"`
	PlatformLabel string    `bson:"platforms" json:"platforms"`
	ErrorMessage  string    `bson:"errorMessage,omitempty" json:"error_message,omitempty"`
	MediaID       string    `bson:"mediaId,omitempty" json:"media_id,omitempty"`
	LastAttemptAt time.Time `bson:"lastAttemptAt,omitempty" json:"last_attempt_at,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updated_at"`
}

// Platform returns the platform name implied by the IsFacebook flag.
func (p ScheduledPost) Platform() string {
	if p.IsFacebook {
		return PlatformFacebook
	}
	return PlatformInstagram
}

// StatusHistory records one status transition of a post (kept append-only).
type StatusHistory struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	PostID         string    `bson:"postId" json:"post_id"`
	PreviousStatus Status    `bson:"previousStatus" json:"previous_status"`
	NewStatus      Status    `bson:"newStatus" json:"new_status"`
	ErrorMessage   string    `bson:"errorMessage,omitempty" json:"error_message,omitempty"`
	MediaID        string    `bson:"mediaId,omitempty" json:"media_id,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"created_at"`
}
