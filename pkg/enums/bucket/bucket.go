package bucket

import (
	"strings"
)

// Bucket groups order states for board views.
type Bucket struct {
	Name string
}

func (b Bucket) Code() string {
	return b.Name
}

func (b Bucket) Label() string {
	parts := strings.Split(b.Name, "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

type Enum struct {
	Pending   Bucket
	InProcess Bucket
	Completed Bucket
}

var Buckets = Enum{
	Pending:   Bucket{Name: "pending"},
	InProcess: Bucket{Name: "in_process"},
	Completed: Bucket{Name: "completed"},
}

// All lists buckets in board order.
var All = []Bucket{
	Buckets.Pending,
	Buckets.InProcess,
	Buckets.Completed,
}

// ByName returns the bucket for a given name, or nil if not found
func ByName(name string) *Bucket {
	for _, b := range All {
		if b.Name == name {
			return &b
		}
	}
	return nil
}
