package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/CleanAfricaNow/civic-service/internal/config"
	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

// EmailSender delivers a rendered notification. The production sender sits
// behind a mail provider; LogSender is used in development.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs instead of sending.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, _ string) error {
	logger.Infof("email (log only) to=%s subject=%q", to, subject)
	return nil
}

// EmailWorker consumes notification events from Kafka and dispatches email.
// One reader in a consumer group; delivery failures are logged and the
// offset committed anyway (at-most-once, consistent with fire-and-forget).
type EmailWorker struct {
	cfg    config.NotifierConfig
	sender EmailSender
}

func NewEmailWorker(cfg config.NotifierConfig, sender EmailSender) *EmailWorker {
	if sender == nil {
		sender = LogSender{}
	}
	return &EmailWorker{cfg: cfg, sender: sender}
}

// Start launches the consume loop; it exits when ctx is canceled.
func (w *EmailWorker) Start(ctx context.Context) {
	if !w.cfg.Enabled {
		return
	}
	go w.consume(ctx)
}

func (w *EmailWorker) consume(ctx context.Context) {
	group := w.cfg.GroupID
	if group == "" {
		group = "civic-email-worker"
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  w.cfg.Brokers,
		GroupID:  group,
		Topic:    w.cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10_000_000,
		MaxWait:  time.Second,
	})
	defer func() { _ = reader.Close() }()

	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("email worker: read: %v", err)
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return
			}
			continue
		}

		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			logger.Errorf("email worker: bad event at offset %d: %v", m.Offset, err)
			continue
		}
		w.handle(ctx, ev)
	}
}

func (w *EmailWorker) handle(ctx context.Context, ev Event) {
	if ev.Email == "" {
		return
	}

	var subject, body string
	switch ev.Type {
	case EventReportStatusChanged:
		subject = "Your report status changed"
		body = fmt.Sprintf("Your report is now %s.", ev.Status)
	case EventPasswordReset:
		subject = "Password reset requested"
		body = "Follow the link in this message to choose a new password."
	case EventRegistrationDecided:
		subject = "Your registration request was reviewed"
		body = fmt.Sprintf("Decision: %s. %s", ev.Status, ev.Detail)
	default:
		return
	}

	if err := w.sender.Send(ctx, ev.Email, subject, body); err != nil {
		logger.Errorf("email worker: send %s to %s: %v", ev.Type, ev.Email, err)
	}
}
