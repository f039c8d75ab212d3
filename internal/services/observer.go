package services

import (
	"context"
	"time"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/ports"

	log "github.com/sirupsen/logrus"
)

// Observer receives outcome counts from sessions and forms.
type Observer interface {
	ReorderOutcome(outcome string)
	StaleResult(concern string)
	AddressChecked(status string)
	BookingOutcome(outcome string)
	EventPublished(eventType string, err error)
}

type nopObserver struct{}

func (nopObserver) ReorderOutcome(string)        {}
func (nopObserver) StaleResult(string)           {}
func (nopObserver) AddressChecked(string)        {}
func (nopObserver) BookingOutcome(string)        {}
func (nopObserver) EventPublished(string, error) {}

const publishTimeout = 5 * time.Second

// publish emits an event after the state change it describes has been
// accepted. Failures are logged and counted but never returned.
func publish(ctx context.Context, p ports.EventPublisher, o Observer, e domain.Event) {
	if p == nil {
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := p.Publish(pctx, e)
	o.EventPublished(e.Type, err)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event": e.Type,
			"route": e.Route,
		}).Warn("publish event failed")
	}
}
