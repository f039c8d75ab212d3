package events

import (
	"context"

	"technician-route-service/internal/domain"
)

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, domain.Event) error { return nil }
func (Nop) Close() error                                { return nil }
