package ports

import (
	"context"

	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// EventPublisher publishes backend events asynchronously.
type EventPublisher interface {
	Publish(event domain.Event) error
}

// EventSubscriber registers handlers for published events.
type EventSubscriber interface {
	Subscribe(handler func(context.Context, domain.Event))
}
