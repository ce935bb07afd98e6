package orderflow

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

type OrderID = uuid.UUID

// Order is a kitchen order. It is handled as a value: the engine returns new
// orders and never writes into the one it was given.
type Order struct {
	ID              OrderID         `bson:"_id" json:"id"`
	State           State           `bson:"state" json:"state"`
	Channel         string          `bson:"channel" json:"channel"`
	Items           []string        `bson:"items" json:"items"`
	BakeComplete    bool            `bson:"bake_complete" json:"bake_complete"`
	PrepComplete    bool            `bson:"prep_complete" json:"prep_complete"`
	FulfillmentMode FulfillmentMode `bson:"fulfillment_mode,omitempty" json:"fulfillment_mode,omitempty"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	Log             []LogEntry      `bson:"log" json:"log"`
}

type LogEntry struct {
	At     time.Time `bson:"at" json:"at"`
	Action string    `bson:"action" json:"action"`
	Note   string    `bson:"note,omitempty" json:"note,omitempty"`
}

// NewOrder builds an order in StateNew with its creation log entry. Channel
// and items are not validated here.
func NewOrder(channel string, items []string) Order {
	return newOrderAt(apt.GenerateNewID(), channel, items, time.Now())
}

func newOrderAt(id OrderID, channel string, items []string, now time.Time) Order {
	return Order{
		ID:        id,
		State:     StateNew,
		Channel:   channel,
		Items:     cloneStrings(items),
		CreatedAt: now,
		Log:       []LogEntry{{At: now, Action: ActionCreated, Note: CreatedNote}},
	}
}

// Clone returns a deep copy that shares no slices with o.
func (o Order) Clone() Order {
	c := o
	c.Items = cloneStrings(o.Items)
	if o.Log != nil {
		c.Log = make([]LogEntry, len(o.Log))
		copy(c.Log, o.Log)
	}
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
