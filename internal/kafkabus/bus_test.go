package kafkabus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/jengzang/heatmap-viewer-go/internal/config"
	"github.com/jengzang/heatmap-viewer-go/internal/logging"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	fail   bool
	closed bool
	block  chan struct{}
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker down")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestBusPublishes(t *testing.T) {
	w := &fakeWriter{}
	b := newBus(w, logging.Discard(), nil, 8)
	b.Publish(Update{ViewerID: "v1", Kind: "view", Payload: map[string]float64{"scaleX": 2}})
	b.Publish(Update{ViewerID: "v1", Kind: "pointer"})
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	if len(w.msgs) != 2 || !w.closed {
		t.Fatalf("messages = %d closed = %v", len(w.msgs), w.closed)
	}
	if string(w.msgs[0].Key) != "v1" {
		t.Errorf("key = %q", w.msgs[0].Key)
	}
	var u struct {
		Kind    string             `json:"kind"`
		Payload map[string]float64 `json:"payload"`
	}
	if err := json.Unmarshal(w.msgs[0].Value, &u); err != nil {
		t.Fatal(err)
	}
	if u.Kind != "view" || u.Payload["scaleX"] != 2 {
		t.Errorf("decoded = %+v", u)
	}
}

func TestBusErrorsCounted(t *testing.T) {
	w := &fakeWriter{fail: true}
	var mu sync.Mutex
	errs := 0
	b := newBus(w, logging.Discard(), func() { mu.Lock(); errs++; mu.Unlock() }, 8)
	b.Publish(Update{ViewerID: "v"})
	b.Close()
	if errs != 1 {
		t.Errorf("errors = %d, want 1", errs)
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	var mu sync.Mutex
	dropped := 0
	b := newBus(w, logging.Discard(), func() { mu.Lock(); dropped++; mu.Unlock() }, 1)
	// One update may be held by the writer, one fills the queue; the rest drop.
	for i := 0; i < 5; i++ {
		b.Publish(Update{ViewerID: "v"})
	}
	close(w.block)
	b.Close()

	mu.Lock()
	defer mu.Unlock()
	if dropped < 3 || dropped+len(w.msgs) != 5 {
		t.Errorf("dropped = %d delivered = %d", dropped, len(w.msgs))
	}
}

func TestNewWithoutBrokers(t *testing.T) {
	p := New(config.KafkaConfig{Topic: "t"}, logging.Discard(), nil)
	if _, ok := p.(Nop); !ok {
		t.Errorf("New() = %T, want Nop", p)
	}
	p.Publish(Update{})
	if err := p.Close(); err != nil {
		t.Error(err)
	}
}
