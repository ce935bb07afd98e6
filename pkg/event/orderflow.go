package event

import "time"

const (
	OrdersTopic   = "orderflow.orders"
	CommandsTopic = "orderflow.commands"

	EventOrderCreated      = "orderflow.order.created"
	EventOrderTransitioned = "orderflow.order.transitioned"
	EventOrderArchived     = "orderflow.order.archived"

	// EventBoardSnapshot marks the orders a board watcher receives on connect.
	EventBoardSnapshot = "orderflow.board.snapshot"
)

type OrderEventMetadata struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    string    `json:"order_id"`
	Channel    string    `json:"channel,omitempty"`
}

type OrderCreatedEvent struct {
	OrderEventMetadata
	State     string    `json:"state"`
	Items     []string  `json:"items"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderTransitionedEvent carries the full post-transition flags so a replay
// can rebuild an order without the previous events. Revision is the length
// of the order log once the transition is recorded.
type OrderTransitionedEvent struct {
	OrderEventMetadata
	Revision        int    `json:"revision"`
	Action          string `json:"action"`
	Note            string `json:"note,omitempty"`
	PreviousState   string `json:"previous_state"`
	NewState        string `json:"new_state"`
	BakeComplete    bool   `json:"bake_complete"`
	PrepComplete    bool   `json:"prep_complete"`
	FulfillmentMode string `json:"fulfillment_mode,omitempty"`
}

type OrderArchivedEvent struct {
	OrderEventMetadata
	FinalState string `json:"final_state"`
}

// OrderCommand asks the service to apply one lifecycle event to an order.
type OrderCommand struct {
	OrderID string `json:"order_id"`
	Kind    string `json:"kind"`
	Note    string `json:"note,omitempty"`
}
