package orderflow

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt/events"
)

// MockOrderRepository is a test mock for OrderRepository
type MockOrderRepository struct {
	mu         sync.Mutex
	orders     map[OrderID]*Order
	CreateFunc func(ctx context.Context, o *Order) error
	SaveFunc   func(ctx context.Context, o *Order) error
	GetFunc    func(ctx context.Context, id OrderID) (*Order, error)
	ListFunc   func(ctx context.Context) ([]*Order, error)
	DeleteFunc func(ctx context.Context, id OrderID) error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[OrderID]*Order),
	}
}

func (m *MockOrderRepository) Create(ctx context.Context, o *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := o.Clone()
	m.orders[o.ID] = &c
	return nil
}

func (m *MockOrderRepository) Save(ctx context.Context, o *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, o)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orders[o.ID]; !exists {
		return ErrOrderNotFound
	}
	c := o.Clone()
	m.orders[o.ID] = &c
	return nil
}

func (m *MockOrderRepository) Get(ctx context.Context, id OrderID) (*Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, exists := m.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	c := o.Clone()
	return &c, nil
}

func (m *MockOrderRepository) List(ctx context.Context) ([]*Order, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Order, 0, len(m.orders))
	for _, o := range m.orders {
		c := o.Clone()
		result = append(result, &c)
	}
	return result, nil
}

func (m *MockOrderRepository) Delete(ctx context.Context, id OrderID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

// AddOrder is a helper to seed the mock repository
func (m *MockOrderRepository) AddOrder(o Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := o.Clone()
	m.orders[o.ID] = &c
}

func (m *MockOrderRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// MockPublisher is a test mock for events.Publisher
type MockPublisher struct {
	mu              sync.Mutex
	PublishedEvents []PublishedEvent
	PublishFunc     func(ctx context.Context, topic string, data []byte) error
}

type PublishedEvent struct {
	Topic string
	Data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishedEvents: make([]PublishedEvent, 0),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}

// MockStreamConsumer is a test mock for events.StreamConsumer
type MockStreamConsumer struct {
	messages            []events.StreamMessage
	FetchFunc           func(ctx context.Context, maxMessages int) ([]events.StreamMessage, error)
	SubscribeStreamFunc func(ctx context.Context, handler events.HandlerFunc) error
}

func NewMockStreamConsumer() *MockStreamConsumer {
	return &MockStreamConsumer{
		messages: make([]events.StreamMessage, 0),
	}
}

func (m *MockStreamConsumer) Fetch(ctx context.Context, maxMessages int) ([]events.StreamMessage, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, maxMessages)
	}
	return m.messages, nil
}

func (m *MockStreamConsumer) SubscribeStream(ctx context.Context, handler events.HandlerFunc) error {
	if m.SubscribeStreamFunc != nil {
		return m.SubscribeStreamFunc(ctx, handler)
	}
	return nil
}

func (m *MockStreamConsumer) AddMessage(data []byte) {
	m.messages = append(m.messages, events.StreamMessage{Data: data, Sequence: uint64(len(m.messages) + 1)})
}
