package posts

import (
	"sort"
	"time"
)

// captionKeyRunes is how much of the caption participates in the legacy
// grouping key for records written before campaign ids existed.
const captionKeyRunes = 50

// SubPost is one platform's slice of a campaign in the grouped view.
type SubPost struct {
	PostID        string    `json:"post_id"`
	Platform      string    `json:"platform"`
	Status        Status    `json:"status"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	MediaID       string    `json:"media_id,omitempty"`
	LastAttemptAt time.Time `json:"last_attempt_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Campaign is the merged, user-facing view of one logical post across
// platforms.
type Campaign struct {
	CampaignID    string    `json:"campaign_id"`
	Username      string    `json:"username"`
	Caption       string    `json:"caption"`
	MediaURLs     []string  `json:"media_urls"`
	MediaType     string    `json:"media_type"`
	ScheduledAt   time.Time `json:"scheduled_time"`
	PlatformLabel string    `json:"platforms"`
	Status        Status    `json:"status"`
	SubPosts      []SubPost `json:"sub_posts"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// groupKey identifies the campaign a record belongs to. Records carrying a
// campaign id group on it; legacy records fall back to a heuristic of the
// scheduled time plus a caption prefix.
func groupKey(p ScheduledPost) string {
	if p.CampaignID != "" {
		return "c:" + p.CampaignID
	}
	prefix := p.Caption
	if runes := []rune(prefix); len(runes) > captionKeyRunes {
		prefix = string(runes[:captionKeyRunes])
	}
	ts := ""
	if !p.ScheduledAt.IsZero() {
		ts = p.ScheduledAt.UTC().Format(time.RFC3339)
	}
	return "h:" + ts + "|" + prefix
}

// GroupPosts merges per-platform records into campaigns. Within a group each
// platform contributes at most one sub-post; when duplicates occur the record
// with the newer UpdatedAt wins in place. Groups are returned newest first by
// the latest of UpdatedAt, ScheduledAt and CreatedAt.
func GroupPosts(records []ScheduledPost) []Campaign {
	byKey := make(map[string]int)
	groups := make([]Campaign, 0, len(records))

	for _, rec := range records {
		key := groupKey(rec)
		idx, ok := byKey[key]
		if !ok {
			byKey[key] = len(groups)
			groups = append(groups, Campaign{
				CampaignID:    rec.CampaignID,
				Username:      rec.Username,
				Caption:       rec.Caption,
				MediaURLs:     rec.MediaURLs,
				MediaType:     rec.MediaType,
				ScheduledAt:   rec.ScheduledAt,
				PlatformLabel: rec.PlatformLabel,
				CreatedAt:     rec.CreatedAt,
				UpdatedAt:     rec.UpdatedAt,
				SubPosts:      []SubPost{subPostOf(rec)},
			})
			continue
		}

		g := &groups[idx]
		if rec.UpdatedAt.After(g.UpdatedAt) {
			g.UpdatedAt = rec.UpdatedAt
		}
		sub := subPostOf(rec)
		replaced := false
		for i := range g.SubPosts {
			if g.SubPosts[i].Platform == sub.Platform {
				if sub.UpdatedAt.After(g.SubPosts[i].UpdatedAt) {
					g.SubPosts[i] = sub
				}
				replaced = true
				break
			}
		}
		if !replaced {
			g.SubPosts = append(g.SubPosts, sub)
		}
	}

	for i := range groups {
		g := &groups[i]
		g.PlatformLabel = labelFor(g.PlatformLabel, g.SubPosts)
		g.Status = AggregateStatus(g.SubPosts)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return sortTime(groups[i]).After(sortTime(groups[j]))
	})
	return groups
}

func subPostOf(rec ScheduledPost) SubPost {
	return SubPost{
		PostID:        rec.ID,
		Platform:      rec.Platform(),
		Status:        rec.Status,
		ErrorMessage:  rec.ErrorMessage,
		MediaID:       rec.MediaID,
		LastAttemptAt: rec.LastAttemptAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}

// labelFor keeps the claimed label for single-platform groups and forces
// "Both" once two platforms are present.
func labelFor(claimed string, subs []SubPost) string {
	if len(subs) > 1 {
		return LabelBoth
	}
	if claimed != "" {
		return claimed
	}
	if len(subs) == 1 {
		return subs[0].Platform
	}
	return ""
}

// AggregateStatus folds per-platform statuses into one campaign status. Any
// failure downgrades the campaign to partial_failed even when the other
// platform succeeded; a lone success among pending work is partial_posted.
func AggregateStatus(subs []SubPost) Status {
	if len(subs) == 0 {
		return StatusScheduled
	}
	var posted, failed, posting, canceled int
	for _, s := range subs {
		switch s.Status {
		case StatusPosted:
			posted++
		case StatusFailed:
			failed++
		case StatusPosting:
			posting++
		case StatusCanceled:
			canceled++
		}
	}
	switch {
	case posted == len(subs):
		return StatusPosted
	case failed > 0:
		return StatusPartialFailed
	case posted > 0:
		return StatusPartialPosted
	case posting > 0:
		return StatusPosting
	case canceled == len(subs):
		return StatusCanceled
	default:
		return StatusScheduled
	}
}

// sortTime picks the most recent known timestamp of a campaign. Missing
// timestamps are the zero time, which sorts as oldest.
func sortTime(c Campaign) time.Time {
	t := c.UpdatedAt
	if c.ScheduledAt.After(t) {
		t = c.ScheduledAt
	}
	if c.CreatedAt.After(t) {
		t = c.CreatedAt
	}
	return t
}
