// Package notifications provides Notifier implementations for workflow
// events. Delivery is fire-and-forget from the engine's perspective; a
// failed send never rolls back the approval mutation that triggered it.
package notifications

import (
	"context"
	"sync"

	"github.com/goliatone/go-approvals/internal/logging"
	"github.com/goliatone/go-approvals/pkg/interfaces"
)

// NoOp discards every notification. It is the default sink when the host
// application has not wired a delivery channel.
type NoOp struct{}

func NewNoOp() *NoOp { return &NoOp{} }

func (n *NoOp) Send(ctx context.Context, notification interfaces.Notification) error {
	return nil
}

// LogSink writes each notification to the structured log. Useful while a
// real mail channel is not configured, and in development environments.
type LogSink struct {
	logger interfaces.Logger
}

// NewLogSink builds a sink over the provider's notifications logger.
func NewLogSink(provider interfaces.LoggerProvider) *LogSink {
	return &LogSink{logger: logging.NotificationsLogger(provider)}
}

func (s *LogSink) Send(ctx context.Context, notification interfaces.Notification) error {
	s.logger.Info("workflow notification",
		"kind", notification.Kind,
		"correlation_id", notification.CorrelationID,
		"node_id", notification.NodeID,
		"author_id", notification.AuthorID,
		"group", notification.GroupName,
		"step_index", notification.StepIndex,
		"status", notification.Status,
	)
	return nil
}

// Recorder captures notifications in memory so tests can assert on dispatch
// counts and payloads.
type Recorder struct {
	mu   sync.Mutex
	sent []interfaces.Notification
	fail error
}

func NewRecorder() *Recorder { return &Recorder{} }

// FailWith makes every subsequent Send return err, simulating a broken
// delivery channel.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func (r *Recorder) Send(ctx context.Context, notification interfaces.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, notification)
	return nil
}

// Sent returns a copy of every recorded notification in dispatch order.
func (r *Recorder) Sent() []interfaces.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interfaces.Notification(nil), r.sent...)
}

// SentOfKind returns the recorded notifications matching kind.
func (r *Recorder) SentOfKind(kind interfaces.NotificationKind) []interfaces.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []interfaces.Notification
	for _, notification := range r.sent {
		if notification.Kind == kind {
			matched = append(matched, notification)
		}
	}
	return matched
}
