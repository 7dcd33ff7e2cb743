// Package event defines the post-commit notification boundary. The engine
// publishes lifecycle events after a transaction commits, never before, so a
// subscriber can trust that the state it is told about is durable.
package event

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Event types published by the consent core
const (
	TypeConsentAuthorized = "consent_authorized"
	TypeConsentAmended    = "consent_amended"
	TypeConsentRevoked    = "consent_revoked"
	TypeConsentExpired    = "consent_expired"
	TypeConsentSuperseded = "consent_superseded"
)

// Event carries one committed consent lifecycle change.
type Event struct {
	ConsentID string
	OrgID     string
	EventType string
	Timestamp int64
}

// Notifier receives committed lifecycle events. Implementations must not
// assume they run on the request path's transaction; the change is already
// durable when ConsentEvent is called.
type Notifier interface {
	ConsentEvent(ctx context.Context, e Event)
}

// LogNotifier writes events to the structured log. The default notifier when
// no external subscriber is wired.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// ConsentEvent logs the event with structured fields.
func (n *LogNotifier) ConsentEvent(_ context.Context, e Event) {
	n.logger.WithFields(logrus.Fields{
		"consent_id": e.ConsentID,
		"org_id":     e.OrgID,
		"event_type": e.EventType,
		"timestamp":  e.Timestamp,
	}).Info("Consent lifecycle event")
}

// NopNotifier discards events. Used by tests that assert nothing else.
type NopNotifier struct{}

// ConsentEvent implements Notifier.
func (NopNotifier) ConsentEvent(context.Context, Event) {}
