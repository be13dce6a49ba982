package notify

import "context"

// Preferences are a recipient's opt-outs. The zero value is not the default;
// use DefaultPreferences.
type Preferences struct {
	SessionUpdates bool `json:"session_reminders"`
	Reviews        bool `json:"review_notifications"`
}

// DefaultPreferences enables every kind.
func DefaultPreferences() Preferences {
	return Preferences{SessionUpdates: true, Reviews: true}
}

// Allows reports whether a notification of kind should reach the recipient.
// Unknown kinds are always delivered.
func (p Preferences) Allows(kind Kind) bool {
	switch kind {
	case KindSessionRequested, KindSessionRescheduled, KindSessionStatus:
		return p.SessionUpdates
	case KindReviewReceived:
		return p.Reviews
	}
	return true
}

// PreferenceSource looks up a recipient's preferences.
type PreferenceSource interface {
	Preferences(ctx context.Context, r Recipient) (Preferences, error)
}
