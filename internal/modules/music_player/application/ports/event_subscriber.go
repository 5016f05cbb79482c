package ports

import (
	"context"
	"reflect"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// EventSubscriber defines the interface for subscribing to events.
// Handlers are registered with the subscriber and invoked when events occur,
// in publish order.
type EventSubscriber interface {
	// Subscribe registers a handler for events of the given concrete type.
	Subscribe(eventType reflect.Type, handler func(context.Context, domain.Event)) error

	// SubscribeAll registers a handler for every event.
	SubscribeAll(handler func(context.Context, domain.Event)) error
}
