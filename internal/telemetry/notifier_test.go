package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleanAfricaNow/civic-service/internal/config"
)

func TestNewNotifierDisabledIsInert(t *testing.T) {
	n, err := NewNotifier(config.NotifierConfig{})
	require.NoError(t, err)

	// Publish on a disabled notifier must not block or panic.
	done := make(chan struct{})
	go func() {
		n.Publish(Event{Type: EventPasswordReset})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on disabled notifier")
	}
}

func TestNewNotifierValidatesConfig(t *testing.T) {
	_, err := NewNotifier(config.NotifierConfig{Enabled: true})
	assert.Error(t, err)

	_, err = NewNotifier(config.NotifierConfig{Enabled: true, Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)
}

// The queue never exerts backpressure on callers: once full, further
// events are dropped, not queued and not blocked on.
func TestPublishDropsWhenQueueFull(t *testing.T) {
	n, err := NewNotifier(config.NotifierConfig{
		Enabled:       true,
		Brokers:       []string{"localhost:9092"},
		Topic:         "civic-events",
		QueueCapacity: 2,
	})
	require.NoError(t, err)
	// Never started: nothing consumes the channel.

	for i := 0; i < 10; i++ {
		done := make(chan struct{})
		go func() {
			n.Publish(Event{Type: EventReportStatusChanged})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked on full queue")
		}
	}
	assert.Equal(t, 2, len(n.ch))
}

func TestPublishStampsTimestamp(t *testing.T) {
	n, err := NewNotifier(config.NotifierConfig{
		Enabled:       true,
		Brokers:       []string{"localhost:9092"},
		Topic:         "civic-events",
		QueueCapacity: 4,
	})
	require.NoError(t, err)

	n.Publish(Event{Type: EventRegistrationDecided})
	ev := <-n.ch
	assert.False(t, ev.Timestamp.IsZero())
}
