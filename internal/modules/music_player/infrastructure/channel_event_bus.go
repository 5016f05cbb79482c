package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

var (
	// ErrEventBusClosed is returned when publishing to a closed bus.
	ErrEventBusClosed = errors.New("event bus closed")
	// ErrEventBufferFull is returned when an event was dropped because the buffer is full.
	ErrEventBufferFull = errors.New("event buffer full")
)

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

type eventHandler = func(context.Context, domain.Event)

// ChannelEventBus provides a channel-based event bus for async event handling.
// It implements both EventPublisher and EventSubscriber interfaces.
// Events are delivered by a single dispatcher in publish order; catch-all
// handlers run before the handlers registered for the event's type.
type ChannelEventBus struct {
	events chan domain.Event

	handlers    map[reflect.Type][]eventHandler
	allHandlers []eventHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		events:   make(chan domain.Event, bufferSize),
		handlers: make(map[reflect.Type][]eventHandler),
		ctx:      ctx,
		cancel:   cancel,
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

func (b *ChannelEventBus) dispatch() {
	defer b.wg.Done()
	for event := range b.events {
		b.mu.RLock()
		all := b.allHandlers
		typed := b.handlers[reflect.TypeOf(event)]
		b.mu.RUnlock()

		for _, handler := range all {
			b.invoke(handler, event)
		}
		for _, handler := range typed {
			b.invoke(handler, event)
		}
	}
}

// invoke runs one handler, keeping the dispatcher alive if it panics.
func (b *ChannelEventBus) invoke(handler eventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(
				"event handler panicked",
				"type", reflect.TypeOf(event).Name(),
				"guild", event.Header().GuildID,
				"panic", r,
			)
		}
	}()
	handler(b.ctx, event)
}

// --- EventPublisher interface ---

// Publish queues an event for delivery.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) Publish(event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventType := reflect.TypeOf(event).Name()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", eventType)
		return ErrEventBusClosed
	}

	select {
	case b.events <- event:
		slog.Debug("published event", "type", eventType, "guild", event.Header().GuildID)
		return nil
	default:
		slog.Warn("event buffer full, dropping event", "type", eventType)
		return ErrEventBufferFull
	}
}

// --- EventSubscriber interface ---

// Subscribe registers a handler for events of the given concrete type.
func (b *ChannelEventBus) Subscribe(eventType reflect.Type, handler func(context.Context, domain.Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler for every event.
func (b *ChannelEventBus) SubscribeAll(handler func(context.Context, domain.Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Close stops accepting events, delivers the ones already queued and waits
// for the dispatcher to finish.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	b.wg.Wait()
	b.cancel()

	slog.Debug("channel event bus closed")
}
