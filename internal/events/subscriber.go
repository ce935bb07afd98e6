package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/orderflow/internal/orderflow"
	"github.com/appetiteclub/orderflow/pkg/event"
	"github.com/google/uuid"
)

// CommandSubscriber applies lifecycle commands published by other services,
// e.g. a station display marking bake complete.
type CommandSubscriber struct {
	subscriber events.Subscriber
	service    *orderflow.Service
	logger     apt.Logger
}

func NewCommandSubscriber(subscriber events.Subscriber, service *orderflow.Service, logger apt.Logger) *CommandSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &CommandSubscriber{
		subscriber: subscriber,
		service:    service,
		logger:     logger,
	}
}

func (s *CommandSubscriber) Start(ctx context.Context) error {
	s.logger.Infof("Starting CommandSubscriber for topic: %s", event.CommandsTopic)

	if err := s.subscriber.Subscribe(ctx, event.CommandsTopic, s.handleCommand); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.CommandsTopic, err)
	}

	s.logger.Info("CommandSubscriber started successfully")
	return nil
}

// handleCommand never returns an error for a bad or stale command; a redelivery
// would be rejected the same way.
func (s *CommandSubscriber) handleCommand(ctx context.Context, msg []byte) error {
	var cmd event.OrderCommand
	if err := json.Unmarshal(msg, &cmd); err != nil {
		s.logger.Errorf("Failed to unmarshal command: %v", err)
		return nil
	}

	id, err := uuid.Parse(cmd.OrderID)
	if err != nil {
		s.logger.Errorf("Invalid order_id: %v", err)
		return nil
	}

	kind, err := orderflow.ParseEventKind(cmd.Kind)
	if err != nil {
		s.logger.Errorf("Invalid command kind: %v", err)
		return nil
	}

	order, err := s.service.Apply(ctx, id, orderflow.Event{Kind: kind, Note: cmd.Note})
	switch {
	case err == nil:
		s.logger.Infof("Applied %s to order %s, now %s", kind, id, order.State)
	case errors.Is(err, orderflow.ErrOrderNotFound):
		s.logger.Infof("Command %s for unknown order %s ignored", kind, id)
	case errors.Is(err, orderflow.ErrTransitionRejected):
		s.logger.Infof("Command ignored: %v", err)
	default:
		return err
	}

	return nil
}
