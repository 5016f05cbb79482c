package infrastructure

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

func testHeader(guildID snowflake.ID) domain.EventHeader {
	return domain.NewEventHeader(domain.Snapshot{GuildID: guildID}, nil, time.Now())
}

type recorder struct {
	mu     sync.Mutex
	events []string
	done   chan struct{}
	want   int
}

func newRecorder(want int) *recorder {
	return &recorder{done: make(chan struct{}), want: want}
}

func (r *recorder) record(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, label)
	if len(r.events) == r.want {
		close(r.done)
	}
}

func (r *recorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for events")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestChannelEventBus_DeliversByType(t *testing.T) {
	bus := NewChannelEventBus(10)
	defer bus.Close()

	rec := newRecorder(2)
	_ = bus.Subscribe(reflect.TypeFor[domain.ResumedEvent](), func(_ context.Context, e domain.Event) {
		rec.record("resumed")
	})
	_ = bus.Subscribe(reflect.TypeFor[domain.PausedEvent](), func(_ context.Context, e domain.Event) {
		rec.record("paused")
	})
	_ = bus.SubscribeAll(func(_ context.Context, e domain.Event) {
		rec.record("all")
	})

	if err := bus.Publish(domain.PausedEvent{EventHeader: testHeader(1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := rec.wait(t)
	if !slices.Equal(got, []string{"all", "paused"}) {
		t.Errorf("expected [all paused], got %v", got)
	}
}

func TestChannelEventBus_PreservesOrder(t *testing.T) {
	bus := NewChannelEventBus(10)
	defer bus.Close()

	const n = 5
	rec := newRecorder(n)
	_ = bus.Subscribe(reflect.TypeFor[domain.SeekUpdatedEvent](), func(_ context.Context, e domain.Event) {
		rec.record(e.(domain.SeekUpdatedEvent).Position.String())
	})

	for i := range n {
		_ = bus.Publish(domain.SeekUpdatedEvent{
			EventHeader: testHeader(1),
			Position:    time.Duration(i) * time.Second,
		})
	}

	got := rec.wait(t)
	for i, label := range got {
		if want := (time.Duration(i) * time.Second).String(); label != want {
			t.Errorf("expected event %d to be %s, got %s", i, want, label)
		}
	}
}

func TestChannelEventBus_HandlerPanicKeepsDispatcher(t *testing.T) {
	bus := NewChannelEventBus(10)
	defer bus.Close()

	rec := newRecorder(1)
	_ = bus.Subscribe(reflect.TypeFor[domain.PausedEvent](), func(_ context.Context, e domain.Event) {
		panic("boom")
	})
	_ = bus.Subscribe(reflect.TypeFor[domain.ResumedEvent](), func(_ context.Context, e domain.Event) {
		rec.record("resumed")
	})

	_ = bus.Publish(domain.PausedEvent{EventHeader: testHeader(1)})
	_ = bus.Publish(domain.ResumedEvent{EventHeader: testHeader(1)})

	rec.wait(t)
}

func TestChannelEventBus_FullBuffer(t *testing.T) {
	bus := NewChannelEventBus(1)
	defer bus.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	_ = bus.SubscribeAll(func(_ context.Context, e domain.Event) {
		once.Do(func() { close(started) })
		<-block
	})

	_ = bus.Publish(domain.ResumedEvent{EventHeader: testHeader(1)})
	<-started
	_ = bus.Publish(domain.ResumedEvent{EventHeader: testHeader(1)})

	err := bus.Publish(domain.ResumedEvent{EventHeader: testHeader(1)})
	close(block)

	if !errors.Is(err, ErrEventBufferFull) {
		t.Errorf("expected ErrEventBufferFull, got %v", err)
	}
}

func TestChannelEventBus_Close(t *testing.T) {
	bus := NewChannelEventBus(10)

	delivered := make(chan struct{}, 1)
	_ = bus.SubscribeAll(func(_ context.Context, e domain.Event) {
		delivered <- struct{}{}
	})
	_ = bus.Publish(domain.ResumedEvent{EventHeader: testHeader(1)})

	bus.Close()
	bus.Close()

	select {
	case <-delivered:
	default:
		t.Error("expected queued event to be delivered before close returns")
	}
	if err := bus.Publish(domain.ResumedEvent{EventHeader: testHeader(1)}); !errors.Is(err, ErrEventBusClosed) {
		t.Errorf("expected ErrEventBusClosed, got %v", err)
	}
	if err := bus.SubscribeAll(func(context.Context, domain.Event) {}); !errors.Is(err, ErrEventBusClosed) {
		t.Errorf("expected ErrEventBusClosed, got %v", err)
	}
}
