package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/internal/orderflow"
	"github.com/google/uuid"
)

func TestFormatUpdate(t *testing.T) {
	id := uuid.MustParse("0b6f9a4e-7d0c-4a51-9a43-3c4f1f2b9e10")

	tests := []struct {
		name   string
		update orderflow.BoardUpdate
		want   string
	}{
		{
			name: "snapshot",
			update: orderflow.BoardUpdate{
				EventType: "orderflow.board.snapshot",
				Order: orderflow.OrderView{Order: orderflow.Order{
					ID: id, Channel: "counter", State: orderflow.StateNew, Items: []string{"fries"},
				}},
			},
			want: "snapshot     0b6f9a4e-7d0c-4a51-9a43-3c4f1f2b9e10  counter  NEW [fries]",
		},
		{
			name: "transitioned",
			update: orderflow.BoardUpdate{
				EventType:     "orderflow.order.transitioned",
				PreviousState: orderflow.StateNew,
				Order: orderflow.OrderView{Order: orderflow.Order{
					ID: id, Channel: "phone", State: orderflow.StateInKitchen, Items: []string{"1/2 chicken", "fries"},
				}},
			},
			want: "transitioned 0b6f9a4e-7d0c-4a51-9a43-3c4f1f2b9e10  phone    NEW -> IN_KITCHEN [1/2 chicken, fries]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatUpdate(tt.update); got != tt.want {
				t.Errorf("FormatUpdate() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestWatchRejectsUnknownBucket(t *testing.T) {
	var out bytes.Buffer
	err := Watch(context.Background(), apt.NewConfig(), apt.NewNoopLogger(), []string{"archived"}, &out)
	if err == nil {
		t.Fatal("Watch() error = nil, want unknown bucket error")
	}
	if out.Len() != 0 {
		t.Errorf("Watch() wrote %q, want nothing", out.String())
	}
}
