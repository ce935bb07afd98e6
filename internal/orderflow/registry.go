package orderflow

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/orderflow/pkg/event"
	"github.com/google/uuid"
)

var ErrNotFinalized = errors.New("order is not finalized")

// Registry holds the live orders of one service instance. Every mutation goes
// through Create, Update or the archive/replay paths, each under the lock, so
// read-compute-write on an order is atomic.
type Registry struct {
	mu     sync.RWMutex
	orders map[OrderID]Order
	// seq holds ids in creation order, oldest first
	seq []OrderID

	stream events.StreamConsumer
	repo   OrderRepository
	logger apt.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

func NewRegistry(stream events.StreamConsumer, repo OrderRepository, logger apt.Logger) *Registry {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Registry{
		orders: make(map[OrderID]Order),
		stream: stream,
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  apt.GenerateNewID,
	}
}

// Create builds a new order and stores it.
func (r *Registry) Create(channel string, items []string) Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := newOrderAt(r.newID(), channel, items, r.now())
	r.insertLocked(o)
	return o.Clone()
}

// Update applies evt to the stored order. The stored value is replaced only
// when the transition is accepted; otherwise the current order is returned
// with ErrOrderNotFound or an error matching ErrTransitionRejected.
func (r *Registry) Update(id OrderID, evt Event) (Order, error) {
	_, next, err := r.update(id, evt)
	return next, err
}

// update is Update that also reports the state the order was in.
func (r *Registry) update(id OrderID, evt Event) (State, Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[id]
	if !ok {
		return "", Order{}, ErrOrderNotFound
	}

	next, err := Transition(current, evt, r.now())
	if err != nil {
		return current.State, current.Clone(), err
	}

	r.orders[id] = next
	return current.State, next.Clone(), nil
}

// Get returns a copy of the order.
func (r *Registry) Get(id OrderID) (Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return Order{}, false
	}
	return o.Clone(), true
}

// List returns copies of all orders, newest first.
func (r *Registry) List() []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Order, 0, len(r.seq))
	for i := len(r.seq) - 1; i >= 0; i-- {
		if o, ok := r.orders[r.seq[i]]; ok {
			result = append(result, o.Clone())
		}
	}
	return result
}

// Archive drops a finalized order from the registry and returns it.
func (r *Registry) Archive(id OrderID) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.State != StateFinalized {
		return o.Clone(), ErrNotFinalized
	}
	r.removeLocked(id)
	return o, nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func (r *Registry) insertLocked(o Order) {
	if _, exists := r.orders[o.ID]; !exists {
		r.seq = append(r.seq, o.ID)
	}
	r.orders[o.ID] = o
}

func (r *Registry) removeLocked(id OrderID) {
	delete(r.orders, id)
	for i, sid := range r.seq {
		if sid == id {
			r.seq = append(r.seq[:i], r.seq[i+1:]...)
			break
		}
	}
}

// Warm loads the repository snapshot and then replays the event stream on
// top of it. Events already reflected in the snapshot are skipped, so orders
// that outlived the stream retention, or that never went through the stream,
// survive a restart.
func (r *Registry) Warm(ctx context.Context) error {
	if r.stream == nil && r.repo == nil {
		r.logger.Info("neither stream nor repo configured, registry starts empty")
		return nil
	}

	if err := r.WarmFromRepo(ctx); err != nil {
		return err
	}

	if r.stream == nil {
		return nil
	}

	if _, err := r.warmFromStream(ctx); err != nil {
		r.logger.Info("stream replay failed, keeping repository snapshot", "error", err)
	}
	return nil
}

// WarmFromRepo loads the repository snapshot, oldest first.
func (r *Registry) WarmFromRepo(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}

	orders, err := r.repo.List(ctx)
	if err != nil {
		r.logger.Info("failed to warm registry from repository", "error", err)
		return nil
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range orders {
		if o == nil || !o.State.Valid() {
			continue
		}
		r.insertLocked(o.Clone())
	}

	r.logger.Info("registry warmed from repository", "count", len(r.orders))
	return nil
}

// warmFromStream replays every stored event. A zero limit asks the stream
// for its whole history.
func (r *Registry) warmFromStream(ctx context.Context) (int, error) {
	r.logger.Info("replaying event stream")

	messages, err := r.stream.Fetch(ctx, 0)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range messages {
		r.replayLocked(msg.Data)
	}

	r.logger.Info("registry warmed from stream", "events", len(messages), "orders", len(r.orders))
	return len(messages), nil
}

// Replay applies one published order event to the registry.
func (r *Registry) Replay(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replayLocked(data)
}

func (r *Registry) replayLocked(data []byte) {
	var base struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		r.logger.Error("failed to unmarshal event type", "error", err)
		return
	}

	switch base.EventType {
	case event.EventOrderCreated:
		r.replayCreatedLocked(data)
	case event.EventOrderTransitioned:
		r.replayTransitionedLocked(data)
	case event.EventOrderArchived:
		r.replayArchivedLocked(data)
	}
}

func (r *Registry) replayCreatedLocked(data []byte) {
	var evt event.OrderCreatedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		r.logger.Error("failed to unmarshal order.created event", "error", err)
		return
	}

	id, err := uuid.Parse(evt.OrderID)
	if err != nil {
		r.logger.Error("invalid order id in order.created event", "order_id", evt.OrderID)
		return
	}

	if _, exists := r.orders[id]; exists {
		return
	}

	r.insertLocked(newOrderAt(id, evt.Channel, evt.Items, evt.CreatedAt))
}

func (r *Registry) replayTransitionedLocked(data []byte) {
	var evt event.OrderTransitionedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		r.logger.Error("failed to unmarshal order.transitioned event", "error", err)
		return
	}

	id, err := uuid.Parse(evt.OrderID)
	if err != nil {
		r.logger.Error("invalid order id in order.transitioned event", "order_id", evt.OrderID)
		return
	}

	o, ok := r.orders[id]
	if !ok {
		r.logger.Info("transition for unknown order skipped", "order_id", evt.OrderID)
		return
	}

	if evt.Revision > 0 && evt.Revision <= len(o.Log) {
		return
	}

	state := State(evt.NewState)
	if !state.Valid() {
		r.logger.Error("invalid state in order.transitioned event", "state", evt.NewState)
		return
	}

	next := o.Clone()
	next.State = state
	next.BakeComplete = next.BakeComplete || evt.BakeComplete
	next.PrepComplete = next.PrepComplete || evt.PrepComplete
	if next.FulfillmentMode == FulfillmentUnset {
		next.FulfillmentMode = FulfillmentMode(evt.FulfillmentMode)
	}
	next.Log = append(next.Log, LogEntry{At: evt.OccurredAt, Action: evt.Action, Note: evt.Note})
	r.orders[id] = next
}

func (r *Registry) replayArchivedLocked(data []byte) {
	var evt event.OrderArchivedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		r.logger.Error("failed to unmarshal order.archived event", "error", err)
		return
	}

	id, err := uuid.Parse(evt.OrderID)
	if err != nil {
		return
	}
	if _, ok := r.orders[id]; ok {
		r.removeLocked(id)
	}
}
