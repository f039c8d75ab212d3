package ports

import (
	"context"
	"technician-route-service/internal/domain"
)

// Contract for broadcasting accepted state changes to other services.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.Event) error
	Close() error
}
