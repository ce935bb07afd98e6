package orderflow

import (
	"errors"
	"fmt"
	"time"
)

var ErrTransitionRejected = errors.New("transition rejected")

// RejectedError describes why an event did not apply to an order.
type RejectedError struct {
	Event  EventKind
	State  State
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s: %s", e.Event, e.State, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return ErrTransitionRejected
}

// Apply applies evt at the current wall-clock time. An event whose
// precondition does not hold returns o unchanged and appends nothing.
func Apply(o Order, evt Event) Order {
	return ApplyAt(o, evt, time.Now())
}

// ApplyAt is Apply with an explicit timestamp for the log entry.
func ApplyAt(o Order, evt Event, now time.Time) Order {
	next, err := Transition(o, evt, now)
	if err != nil {
		return o
	}
	return next
}

// Transition computes the order that results from evt. On rejection it
// returns o and a *RejectedError; unknown kinds wrap ErrUnknownEvent.
func Transition(o Order, evt Event, now time.Time) (Order, error) {
	next := o.Clone()

	switch evt.Kind {
	case EventStartKitchen:
		if o.State != StateNew {
			return o, reject(o, evt, "order is not new")
		}
		next.State = StateInKitchen

	case EventCompleteBake:
		if o.State != StateInKitchen {
			return o, reject(o, evt, "order is not in the kitchen")
		}
		next.BakeComplete = true

	case EventCompletePrep:
		if o.State != StateInKitchen {
			return o, reject(o, evt, "order is not in the kitchen")
		}
		next.PrepComplete = true

	case EventMarkReadyAssemble:
		if o.State != StateInKitchen {
			return o, reject(o, evt, "order is not in the kitchen")
		}
		if !o.BakeComplete || !o.PrepComplete {
			return o, reject(o, evt, "bake and prep must both be complete")
		}
		next.State = StateReadyToAssemble

	case EventVerifyOrder:
		if o.State != StateReadyToAssemble {
			return o, reject(o, evt, "order is not ready to assemble")
		}
		next.State = StateVerified

	case EventRoutePickup:
		if o.State != StateVerified {
			return o, reject(o, evt, "order is not verified")
		}
		next.State = StateReadyPickup
		next.FulfillmentMode = FulfillmentPickup

	case EventRouteDelivery:
		if o.State != StateVerified {
			return o, reject(o, evt, "order is not verified")
		}
		next.State = StateReadyDelivery
		next.FulfillmentMode = FulfillmentDelivery

	case EventMarkEnRoute:
		if o.State != StateReadyDelivery {
			return o, reject(o, evt, "order is not ready for delivery")
		}
		next.State = StateEnRoute

	case EventDeliveredPickup:
		if o.State != StateReadyPickup {
			return o, reject(o, evt, "order is not ready for pickup")
		}
		next.State = StateDelivered

	case EventDeliveredDelivery:
		if o.State != StateEnRoute {
			return o, reject(o, evt, "order is not en route")
		}
		next.State = StateDeliveredViaDelivery

	case EventFinalize:
		if o.State != StateDelivered && o.State != StateDeliveredViaDelivery {
			return o, reject(o, evt, "order has not been delivered")
		}
		next.State = StateFinalized

	default:
		return o, fmt.Errorf("%w: %q", ErrUnknownEvent, evt.Kind)
	}

	next.Log = append(next.Log, LogEntry{At: now, Action: string(evt.Kind), Note: evt.Note})
	return next, nil
}

// Allowed reports whether evt would be accepted by o.
func Allowed(o Order, kind EventKind) bool {
	_, err := Transition(o, Event{Kind: kind}, time.Time{})
	return err == nil
}

// AvailableEvents lists the event kinds worth offering for o, in table order.
// Completion events whose flag is already set are left out even though the
// engine would still accept them.
func AvailableEvents(o Order) []EventKind {
	var kinds []EventKind
	for _, k := range AllEventKinds {
		if k == EventCompleteBake && o.BakeComplete {
			continue
		}
		if k == EventCompletePrep && o.PrepComplete {
			continue
		}
		if Allowed(o, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func reject(o Order, evt Event, reason string) error {
	return &RejectedError{Event: evt.Kind, State: o.State, Reason: reason}
}
