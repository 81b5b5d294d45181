package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-adp-api/pkg/jobs"
)

// Notification types published after enrollment workflows commit.
const (
	NotificationEnrollmentCreated  = "enrollment.created"
	NotificationPromotionCompleted = "promotion.completed"
)

// Notification describes a committed enrollment event. It never carries credentials.
type Notification struct {
	Type          string    `json:"type"`
	StudentID     string    `json:"student_id,omitempty"`
	EnrollmentID  string    `json:"enrollment_id,omitempty"`
	GroupID       string    `json:"group_id,omitempty"`
	PromotedCount int       `json:"promoted_count,omitempty"`
	SkippedCount  int       `json:"skipped_count,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier delivers notifications to an external channel.
type Notifier interface {
	Deliver(ctx context.Context, notification Notification) error
}

// LogNotifier records notifications in the application log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Deliver logs the notification.
func (n *LogNotifier) Deliver(ctx context.Context, notification Notification) error {
	n.logger.Info("notification delivered",
		zap.String("type", notification.Type),
		zap.String("student_id", notification.StudentID),
		zap.String("enrollment_id", notification.EnrollmentID),
		zap.String("group_id", notification.GroupID),
		zap.Int("promoted_count", notification.PromotedCount),
		zap.Int("skipped_count", notification.SkippedCount))
	return nil
}

// NotificationDispatcher hands notifications to a background queue so delivery never blocks a request.
type NotificationDispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationDispatcher builds the dispatcher and its worker queue.
func NewNotificationDispatcher(notifier Notifier, cfg jobs.QueueConfig) *NotificationDispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(Notification)
		if !ok {
			return fmt.Errorf("unexpected notification payload %T", job.Payload)
		}
		return notifier.Deliver(ctx, notification)
	}
	return &NotificationDispatcher{
		queue:  jobs.NewQueue("notifications", handler, cfg),
		logger: cfg.Logger,
	}
}

// Start launches the delivery workers.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains workers.
func (d *NotificationDispatcher) Stop() {
	d.queue.Stop()
}

// Publish enqueues a notification. Failures are logged and returned but callers treat them as best effort.
func (d *NotificationDispatcher) Publish(ctx context.Context, notification Notification) error {
	if notification.OccurredAt.IsZero() {
		notification.OccurredAt = time.Now().UTC()
	}
	err := d.queue.TryEnqueue(jobs.Job{ID: uuid.NewString(), Type: notification.Type, Payload: notification})
	if err != nil {
		d.logger.Warn("notification dropped", zap.String("type", notification.Type), zap.Error(err))
	}
	return err
}
