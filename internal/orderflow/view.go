package orderflow

import (
	"fmt"
	"sort"

	"github.com/appetiteclub/orderflow/pkg/enums/bucket"
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	default:
		return "", fmt.Errorf("invalid sort order %q", s)
	}
}

// Sort orders by CreatedAt in place. Ties keep their input order.
func Sort(orders []Order, by SortOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		if by == SortOldest {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// Groups is the board split of a list of orders.
type Groups struct {
	Pending   []Order `json:"pending"`
	InProcess []Order `json:"in_process"`
	Completed []Order `json:"completed"`
}

// Group splits orders into buckets, preserving their relative order.
func Group(orders []Order) Groups {
	g := Groups{
		Pending:   []Order{},
		InProcess: []Order{},
		Completed: []Order{},
	}
	for _, o := range orders {
		switch o.State.Bucket() {
		case bucket.Buckets.Pending:
			g.Pending = append(g.Pending, o)
		case bucket.Buckets.Completed:
			g.Completed = append(g.Completed, o)
		default:
			g.InProcess = append(g.InProcess, o)
		}
	}
	return g
}

// ListFilter narrows a listing. A nil Bucket keeps every order.
type ListFilter struct {
	Bucket *bucket.Bucket
	Sort   SortOrder
}

func FilterOrders(orders []Order, filter ListFilter) []Order {
	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		if filter.Bucket != nil && o.State.Bucket() != *filter.Bucket {
			continue
		}
		result = append(result, o)
	}
	Sort(result, filter.Sort)
	return result
}
