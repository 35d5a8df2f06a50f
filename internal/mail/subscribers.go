package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/staff-management/internal/core/events"
)

type Subscribers struct {
	sender Sender
	logger *slog.Logger
}

func NewSubscribers(sender Sender, logger *slog.Logger) *Subscribers {
	return &Subscribers{sender: sender, logger: logger}
}

// RegisterSubscribers wires the email notifications onto the event bus.
func RegisterSubscribers(bus *events.EventBus, sender Sender, logger *slog.Logger) {
	s := NewSubscribers(sender, logger)
	bus.Subscribe(events.EventTypeVerificationCreated, s.HandleVerificationCreated)
	bus.Subscribe(events.EventTypeRequestRejected, s.HandleRequestRejected)
	logger.Info("mail subscribers registered")
}

func (s *Subscribers) HandleVerificationCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.VerificationCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, event.EventType())
	}

	msg, err := VerificationMessage(e.Target, e.Kind, e.Code, time.Until(e.ExpiresAt))
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("HandleVerificationCreated: failed to send code", "kind", e.Kind, "error", err)
		return err
	}
	return nil
}

func (s *Subscribers) HandleRequestRejected(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.RequestRejectedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", event, event.EventType())
	}
	if e.RequesterEmail == "" {
		s.logger.Warn("HandleRequestRejected: requester has no email", "serial_number", e.SerialNumber)
		return nil
	}

	msg, err := RejectionMessage(e.RequesterEmail, e.RequestType, e.SerialNumber, e.Reason)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("HandleRequestRejected: failed to send notice", "serial_number", e.SerialNumber, "error", err)
		return err
	}
	return nil
}
