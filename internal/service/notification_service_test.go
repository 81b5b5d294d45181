package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/academy-adp-api/pkg/jobs"
)

type recordingNotifier struct {
	mu       sync.Mutex
	received []Notification
	done     chan struct{}
}

func (r *recordingNotifier) Deliver(ctx context.Context, n Notification) error {
	r.mu.Lock()
	r.received = append(r.received, n)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return nil
}

func TestNotificationDispatcherDelivers(t *testing.T) {
	notifier := &recordingNotifier{done: make(chan struct{}, 1)}
	dispatcher := NewNotificationDispatcher(notifier, jobs.QueueConfig{Workers: 1})
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	require.NoError(t, dispatcher.Publish(context.Background(), Notification{Type: NotificationEnrollmentCreated, StudentID: "s1", EnrollmentID: "e1"}))

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.received, 1)
	assert.Equal(t, "e1", notifier.received[0].EnrollmentID)
	assert.False(t, notifier.received[0].OccurredAt.IsZero())
}

func TestNotificationDispatcherNotStarted(t *testing.T) {
	dispatcher := NewNotificationDispatcher(&recordingNotifier{}, jobs.QueueConfig{})
	assert.Error(t, dispatcher.Publish(context.Background(), Notification{Type: NotificationPromotionCompleted}))
}

func TestLogNotifierLogsEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	notifier := NewLogNotifier(zap.New(core))
	require.NoError(t, notifier.Deliver(context.Background(), Notification{Type: NotificationPromotionCompleted, GroupID: "g1", PromotedCount: 2, SkippedCount: 1}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "g1", logs.All()[0].ContextMap()["group_id"])
}
