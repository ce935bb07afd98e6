package orderflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/orderflow/pkg/enums/channel"
	"github.com/appetiteclub/orderflow/pkg/event"
)

const (
	maxItems     = 20
	maxItemChars = 100
)

var ErrInvalidOrder = errors.New("invalid order")

// Service runs the lifecycle against the registry and mirrors accepted
// changes to the repository and the event bus. Persistence and publish
// failures are logged; they never undo an accepted transition.
type Service struct {
	registry  *Registry
	repo      OrderRepository
	publisher events.Publisher
	watcher   OrderWatcher
	logger    apt.Logger
}

// OrderWatcher is told about every accepted change once it is recorded.
type OrderWatcher interface {
	BroadcastOrder(eventType string, previous State, o Order)
}

func NewService(registry *Registry, repo OrderRepository, publisher events.Publisher, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{
		registry:  registry,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// SetWatcher must be called before the service handles requests.
func (s *Service) SetWatcher(w OrderWatcher) {
	s.watcher = w
}

// Create validates the request, then creates, stores and announces the order.
func (s *Service) Create(ctx context.Context, ch string, items []string) (Order, error) {
	c, cleaned, err := validateCreate(ch, items)
	if err != nil {
		return Order{}, err
	}

	o := s.registry.Create(c.Code(), cleaned)

	if s.repo != nil {
		if err := s.repo.Create(ctx, &o); err != nil {
			s.logger.Errorf("cannot persist order %s: %v", o.ID, err)
		}
	}

	s.publish(ctx, event.OrderCreatedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:  event.EventOrderCreated,
			OccurredAt: o.CreatedAt,
			OrderID:    o.ID.String(),
			Channel:    o.Channel,
		},
		State:     o.State.String(),
		Items:     o.Items,
		CreatedAt: o.CreatedAt,
	})

	s.notify(event.EventOrderCreated, "", o)

	s.logger.Debug("order created", "order_id", o.ID.String(), "channel", o.Channel)
	return o, nil
}

// Apply runs evt against the stored order.
func (s *Service) Apply(ctx context.Context, id OrderID, evt Event) (Order, error) {
	previous, after, err := s.registry.update(id, evt)
	if err != nil {
		return after, err
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, &after); err != nil {
			s.logger.Errorf("cannot persist order %s: %v", after.ID, err)
		}
	}

	// the entry just appended carries the transition timestamp
	last := after.Log[len(after.Log)-1]

	s.publish(ctx, event.OrderTransitionedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:  event.EventOrderTransitioned,
			OccurredAt: last.At,
			OrderID:    after.ID.String(),
			Channel:    after.Channel,
		},
		Revision:        len(after.Log),
		Action:          last.Action,
		Note:            last.Note,
		PreviousState:   previous.String(),
		NewState:        after.State.String(),
		BakeComplete:    after.BakeComplete,
		PrepComplete:    after.PrepComplete,
		FulfillmentMode: string(after.FulfillmentMode),
	})

	s.notify(event.EventOrderTransitioned, previous, after)

	s.logger.Debug("order transitioned", "order_id", after.ID.String(), "action", last.Action, "state", after.State.String())
	return after, nil
}

func (s *Service) Get(id OrderID) (Order, error) {
	o, ok := s.registry.Get(id)
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) List(filter ListFilter) []Order {
	return FilterOrders(s.registry.List(), filter)
}

// Archive removes a finalized order from the registry and the repository.
func (s *Service) Archive(ctx context.Context, id OrderID) (Order, error) {
	o, err := s.registry.Archive(id)
	if err != nil {
		return o, err
	}

	if s.repo != nil {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Errorf("cannot delete archived order %s: %v", id, err)
		}
	}

	s.publish(ctx, event.OrderArchivedEvent{
		OrderEventMetadata: event.OrderEventMetadata{
			EventType:  event.EventOrderArchived,
			OccurredAt: time.Now(),
			OrderID:    o.ID.String(),
			Channel:    o.Channel,
		},
		FinalState: o.State.String(),
	})

	s.notify(event.EventOrderArchived, o.State, o)

	return o, nil
}

func (s *Service) notify(eventType string, previous State, o Order) {
	if s.watcher == nil {
		return
	}
	s.watcher.BroadcastOrder(eventType, previous, o.Clone())
}

func (s *Service) publish(ctx context.Context, evt interface{}) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		s.logger.Errorf("cannot marshal order event: %v", err)
		return
	}

	if err := s.publisher.Publish(ctx, event.OrdersTopic, data); err != nil {
		s.logger.Errorf("Failed to publish order event: %v", err)
	}
}

func validateCreate(ch string, items []string) (channel.Channel, []string, error) {
	c := channel.ByName(ch)
	if c == nil {
		return channel.Channel{}, nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidOrder, ch)
	}

	if len(items) == 0 || len(items) > maxItems {
		return channel.Channel{}, nil, fmt.Errorf("%w: order must have 1-%d items", ErrInvalidOrder, maxItems)
	}

	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || len(item) > maxItemChars {
			return channel.Channel{}, nil, fmt.Errorf("%w: item must be 1-%d characters", ErrInvalidOrder, maxItemChars)
		}
		cleaned = append(cleaned, item)
	}

	return *c, cleaned, nil
}
