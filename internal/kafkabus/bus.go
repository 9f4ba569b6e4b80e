// internal/kafkabus/bus.go
package kafkabus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/heatmap-viewer-go/internal/config"
)

// Update is one viewer change sent to the bus.
type Update struct {
	ViewerID string    `json:"viewerId"`
	Kind     string    `json:"kind"` // "pointer" or "view"
	At       time.Time `json:"at"`
	Payload  any       `json:"payload"`
}

// Publisher accepts viewer updates. Publish must not block.
type Publisher interface {
	Publish(u Update)
	Close() error
}

// Nop discards every update.
type Nop struct{}

func (Nop) Publish(Update) {}
func (Nop) Close() error   { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Bus forwards updates to a Kafka topic from a background goroutine.
// Updates arriving while the queue is full are dropped.
type Bus struct {
	writer  messageWriter
	log     logrus.FieldLogger
	queue   chan Update
	done    chan struct{}
	once    sync.Once
	onError func()
	timeout time.Duration
}

// DefaultQueue is the number of updates buffered ahead of the writer.
const DefaultQueue = 1024

// New returns a Bus for cfg, or Nop when no brokers are configured.
func New(cfg config.KafkaConfig, log logrus.FieldLogger, onError func()) Publisher {
	if !cfg.Enabled() {
		return Nop{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequireOne,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return newBus(w, log, onError, DefaultQueue)
}

func newBus(w messageWriter, log logrus.FieldLogger, onError func(), size int) *Bus {
	if onError == nil {
		onError = func() {}
	}
	b := &Bus{
		writer:  w,
		log:     log.WithField("component", "kafka-bus"),
		queue:   make(chan Update, size),
		done:    make(chan struct{}),
		onError: onError,
		timeout: 5 * time.Second,
	}
	go b.run()
	return b
}

func (b *Bus) Publish(u Update) {
	select {
	case b.queue <- u:
	default:
		b.onError()
		b.log.WithField("viewer", u.ViewerID).Warn("update queue full, dropping")
	}
}

func (b *Bus) run() {
	defer close(b.done)
	for u := range b.queue {
		value, err := json.Marshal(u)
		if err != nil {
			b.onError()
			b.log.WithError(err).Error("failed to encode update")
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		err = b.writer.WriteMessages(ctx, kafka.Message{Key: []byte(u.ViewerID), Value: value, Time: u.At})
		cancel()
		if err != nil {
			b.onError()
			b.log.WithError(err).WithField("viewer", u.ViewerID).Error("failed to publish update")
		}
	}
}

// Close stops accepting updates, flushes the queue and closes the writer.
// Publish must not be called after Close.
func (b *Bus) Close() error {
	var err error
	b.once.Do(func() {
		close(b.queue)
		<-b.done
		if cerr := b.writer.Close(); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = cerr
		}
	})
	return err
}
