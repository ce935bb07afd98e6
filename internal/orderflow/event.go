package orderflow

import (
	"errors"
	"fmt"
	"strings"
)

// EventKind names one transition of the lifecycle. The set is closed: every
// kind has exactly one case in Transition.
type EventKind string

const (
	EventStartKitchen      EventKind = "START_KITCHEN"
	EventCompleteBake      EventKind = "COMPLETE_BAKE"
	EventCompletePrep      EventKind = "COMPLETE_PREP"
	EventMarkReadyAssemble EventKind = "MARK_READY_ASSEMBLE"
	EventVerifyOrder       EventKind = "VERIFY_ORDER"
	EventRoutePickup       EventKind = "ROUTE_PICKUP"
	EventRouteDelivery     EventKind = "ROUTE_DELIVERY"
	EventMarkEnRoute       EventKind = "MARK_EN_ROUTE"
	EventDeliveredPickup   EventKind = "DELIVERED_PICKUP"
	EventDeliveredDelivery EventKind = "DELIVERED_DELIVERY"
	EventFinalize          EventKind = "FINALIZE"
)

// ActionCreated and CreatedNote make up the first log entry of every order.
const (
	ActionCreated = "created"
	CreatedNote   = "new order"
)

var AllEventKinds = []EventKind{
	EventStartKitchen,
	EventCompleteBake,
	EventCompletePrep,
	EventMarkReadyAssemble,
	EventVerifyOrder,
	EventRoutePickup,
	EventRouteDelivery,
	EventMarkEnRoute,
	EventDeliveredPickup,
	EventDeliveredDelivery,
	EventFinalize,
}

var ErrUnknownEvent = errors.New("unknown event kind")

func (k EventKind) String() string {
	return string(k)
}

// Slug is the URL form of the kind, e.g. "mark-ready-assemble".
func (k EventKind) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(k)), "_", "-")
}

// ParseEventKind accepts canonical names in any case, and their slugs.
func ParseEventKind(s string) (EventKind, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, k := range AllEventKinds {
		if string(k) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// Event is a request to apply one transition. Note is copied into the log.
type Event struct {
	Kind EventKind `json:"kind"`
	Note string    `json:"note,omitempty"`
}
