package orderflow

import (
	"strings"

	"github.com/appetiteclub/orderflow/pkg/enums/bucket"
)

// State is a lifecycle state of an order.
type State string

const (
	StateNew                  State = "NEW"
	StateInKitchen            State = "IN_KITCHEN"
	StateReadyToAssemble      State = "READY_TO_ASSEMBLE"
	StateVerified             State = "VERIFIED"
	StateReadyPickup          State = "READY_PICKUP"
	StateReadyDelivery        State = "READY_DELIVERY"
	StateEnRoute              State = "EN_ROUTE"
	StateDelivered            State = "DELIVERED"
	StateDeliveredViaDelivery State = "DELIVERED_VIA_DELIVERY"
	StateFinalized            State = "FINALIZED"
)

var AllStates = []State{
	StateNew,
	StateInKitchen,
	StateReadyToAssemble,
	StateVerified,
	StateReadyPickup,
	StateReadyDelivery,
	StateEnRoute,
	StateDelivered,
	StateDeliveredViaDelivery,
	StateFinalized,
}

func (s State) String() string {
	return string(s)
}

func (s State) Valid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StateFinalized
}

// Label renders READY_TO_ASSEMBLE as "Ready To Assemble".
func (s State) Label() string {
	parts := strings.Split(strings.ToLower(string(s)), "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// Bucket classifies the state for board views.
func (s State) Bucket() bucket.Bucket {
	switch s {
	case StateNew, StateInKitchen:
		return bucket.Buckets.Pending
	case StateDelivered, StateDeliveredViaDelivery, StateFinalized:
		return bucket.Buckets.Completed
	default:
		return bucket.Buckets.InProcess
	}
}

type FulfillmentMode string

const (
	FulfillmentUnset    FulfillmentMode = ""
	FulfillmentPickup   FulfillmentMode = "pickup"
	FulfillmentDelivery FulfillmentMode = "delivery"
)
