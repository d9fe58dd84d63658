package store

import "time"

// Session statuses reported by the sandbox API.
const (
	StatusPending  = "UpdatesPending"
	StatusComplete = "UpdatesComplete"
)

// Session is the state of one sandbox pricing session.
//
// Session is a value type; the store hands out copies, so callers may keep
// or modify them freely.
type Session struct {
	// ID is the session key used in the poll URL.
	ID string `json:"id"`

	// Query holds the form fields the session was created with.
	Query map[string]string `json:"query"`

	// Status is StatusPending until PollsNeeded polls were answered.
	Status string `json:"status"`

	// Polls counts the polls that were answered with a session body.
	Polls int `json:"polls"`

	// PollsNeeded is the number of polls after which the session completes.
	PollsNeeded int `json:"polls_needed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Complete reports whether the session has finished updating.
func (s Session) Complete() bool {
	return s.Status == StatusComplete
}

// Store defines the interface for storing sessions and subscribing to
// their status changes.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Create stores a new pending session and notifies all subscribers.
	// An empty ID is replaced by a generated one. Returns the stored copy.
	Create(s Session) Session

	// Get returns the session with the given ID.
	Get(id string) (Session, bool)

	// Advance records one answered poll. When the poll count reaches
	// PollsNeeded the session completes and subscribers are notified.
	Advance(id string) (Session, bool)

	// GetAll returns all stored sessions.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []Session

	// Subscribe returns a channel that receives sessions on creation and
	// on completion. The channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Session

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Session)
}
