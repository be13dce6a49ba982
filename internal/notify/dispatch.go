package notify

import (
	"context"
	"log/slog"
)

// Dispatcher delivers a notification to its recipient's inbox.
type Dispatcher interface {
	Deliver(ctx context.Context, n Notification) error
}

// DeliveryObserver is told about every delivery attempt.
type DeliveryObserver interface {
	ObserveNotification(kind string, err error)
}

// LogDispatcher writes notifications to a logger. It is used when no inbox
// backend is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher returns a dispatcher that logs at info level.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

// Deliver implements Dispatcher.
func (d *LogDispatcher) Deliver(ctx context.Context, n Notification) error {
	d.logger.InfoContext(ctx, "notification",
		"notification_id", n.ID,
		"kind", string(n.Kind),
		"recipient_id", n.Recipient.UserID,
		"recipient_role", string(n.Recipient.Role),
		"session_id", n.SessionID,
		"title", n.Title,
	)
	return nil
}

// Notifier sends notifications after a committed operation. Delivery is best
// effort: failures are logged and counted, never returned.
//
// When the dispatcher is also a PreferenceSource, notifications the recipient
// opted out of are dropped before delivery.
type Notifier struct {
	dispatcher Dispatcher
	prefs      PreferenceSource
	logger     *slog.Logger
	observer   DeliveryObserver
}

// NewNotifier wires a dispatcher with logging and an optional observer.
func NewNotifier(dispatcher Dispatcher, logger *slog.Logger, observer DeliveryObserver) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if dispatcher == nil {
		dispatcher = NewLogDispatcher(logger)
	}
	prefs, _ := dispatcher.(PreferenceSource)
	return &Notifier{dispatcher: dispatcher, prefs: prefs, logger: logger, observer: observer}
}

// Send delivers every notification and returns how many succeeded.
func (n *Notifier) Send(ctx context.Context, notes ...Notification) int {
	delivered := 0
	for _, note := range notes {
		if !n.wanted(ctx, note) {
			continue
		}
		err := n.dispatcher.Deliver(ctx, note)
		if n.observer != nil {
			n.observer.ObserveNotification(string(note.Kind), err)
		}
		if err != nil {
			n.logger.WarnContext(ctx, "notification delivery failed",
				"notification_id", note.ID,
				"kind", string(note.Kind),
				"recipient_id", note.Recipient.UserID,
				"error", err,
			)
			continue
		}
		delivered++
	}
	return delivered
}

// wanted consults the recipient's preferences. A failed lookup delivers.
func (n *Notifier) wanted(ctx context.Context, note Notification) bool {
	if n.prefs == nil {
		return true
	}
	prefs, err := n.prefs.Preferences(ctx, note.Recipient)
	if err != nil {
		n.logger.WarnContext(ctx, "notification preferences unavailable",
			"recipient_id", note.Recipient.UserID,
			"error", err,
		)
		return true
	}
	if !prefs.Allows(note.Kind) {
		n.logger.DebugContext(ctx, "notification suppressed by preferences",
			"notification_id", note.ID,
			"kind", string(note.Kind),
			"recipient_id", note.Recipient.UserID,
		)
		return false
	}
	return true
}
