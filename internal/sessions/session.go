package sessions

import "time"

// DefaultTTL matches the login session lifetime the frontend expects.
const DefaultTTL = 24 * time.Hour

// Session represents a server-side login session. The opaque SessionID is the
// only credential the browser holds.
type Session struct {
	SessionID string    `bson:"sessionId" json:"sessionId"`
	UserID    string    `bson:"userId" json:"userId"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
