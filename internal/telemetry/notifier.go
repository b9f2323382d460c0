package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/CleanAfricaNow/civic-service/internal/config"
	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

// Notifier publishes notification events to Kafka fire-and-forget.
// Publish never blocks the caller: events queue on a buffered channel and a
// single flush goroutine writes them out; on backpressure the event is
// dropped with a log line. Publish failures never propagate to the
// operation that triggered the notification.
type Notifier struct {
	cfg    config.NotifierConfig
	writer *kafka.Writer
	ch     chan Event
	stop   chan struct{}
}

// NewNotifier builds the notifier. A disabled config yields an inert
// notifier whose Publish is a cheap no-op.
func NewNotifier(cfgIn config.NotifierConfig) (*Notifier, error) {
	cfg := cfgIn
	if !cfg.Enabled {
		return &Notifier{cfg: cfg, ch: make(chan Event), stop: make(chan struct{})}, nil
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("notifier: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("notifier: no topic configured")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 2 * time.Second
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = cfg.BatchSize * 4
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	tr := &kafka.Transport{DialTimeout: cfg.DialTimeout}
	if cfg.TLS {
		tr.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Transport:    tr,
		Async:        true,
		BatchTimeout: cfg.FlushEvery,
		BatchSize:    cfg.BatchSize,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Notifier{
		cfg:    cfg,
		writer: writer,
		ch:     make(chan Event, cfg.QueueCapacity),
		stop:   make(chan struct{}),
	}, nil
}

// Start launches the flush goroutine.
func (n *Notifier) Start() {
	if !n.cfg.Enabled {
		return
	}
	go n.loop()
}

// Stop drains briefly and closes the writer.
func (n *Notifier) Stop(ctx context.Context) {
	if !n.cfg.Enabled {
		return
	}
	close(n.stop)
	drain := time.After(500 * time.Millisecond)
	for {
		select {
		case ev := <-n.ch:
			n.dispatch(ev)
		case <-drain:
			_ = n.writer.Close()
			return
		case <-ctx.Done():
			_ = n.writer.Close()
			return
		}
	}
}

// Publish enqueues an event. Never blocks; drops with a log line when the
// queue is full or the notifier is disabled.
func (n *Notifier) Publish(ev Event) {
	if !n.cfg.Enabled {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case n.ch <- ev:
	default:
		logger.Warnf("notifier: queue full, dropping %s event", ev.Type)
	}
}

func (n *Notifier) loop() {
	for {
		select {
		case ev := <-n.ch:
			n.dispatch(ev)
		case <-n.stop:
			for {
				select {
				case ev := <-n.ch:
					n.dispatch(ev)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) dispatch(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("notifier: marshal %s event: %v", ev.Type, err)
		return
	}

	var key []byte
	if ev.UserID != nil {
		key = []byte(ev.UserID.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.WriteTimeout)
	defer cancel()
	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload}); err != nil {
		logger.Errorf("notifier: write %s event: %v", ev.Type, err)
	}
}
