package orderflow

import (
	"context"
	"errors"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository persists order snapshots. The registry stays the authority
// for live orders; the repository lets it survive restarts.
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
	Get(ctx context.Context, id OrderID) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	Delete(ctx context.Context, id OrderID) error
}
