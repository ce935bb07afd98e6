package commands

import (
	"errors"
	"testing"

	"github.com/appetiteclub/orderflow/internal/orderflow"
)

func TestBuildCommand(t *testing.T) {
	id := "0b6f9a4e-7d0c-4a51-9a43-3c4f1f2b9e10"

	tests := []struct {
		name     string
		args     []string
		wantKind string
		wantNote string
		wantErr  error
	}{
		{name: "canonicalKind", args: []string{id, "COMPLETE_BAKE"}, wantKind: "COMPLETE_BAKE"},
		{name: "slugKind", args: []string{id, "route-pickup"}, wantKind: "ROUTE_PICKUP"},
		{name: "withNote", args: []string{id, "finalize", "paid", "cash"}, wantKind: "FINALIZE", wantNote: "paid cash"},
		{name: "missingKind", args: []string{id}, wantErr: ErrUsage},
		{name: "unknownKind", args: []string{id, "refund"}, wantErr: orderflow.ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := BuildCommand(tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("BuildCommand() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCommand() error = %v", err)
			}
			if cmd.OrderID != id {
				t.Errorf("OrderID = %s, want %s", cmd.OrderID, id)
			}
			if cmd.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", cmd.Kind, tt.wantKind)
			}
			if cmd.Note != tt.wantNote {
				t.Errorf("Note = %q, want %q", cmd.Note, tt.wantNote)
			}
		})
	}
}

func TestBuildCommandInvalidID(t *testing.T) {
	if _, err := BuildCommand([]string{"not-a-uuid", "finalize"}); err == nil {
		t.Error("BuildCommand() error = nil, want error")
	}
}
