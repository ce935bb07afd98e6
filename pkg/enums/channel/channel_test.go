package channel

import "testing"

func TestByName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Channel
	}{
		{name: "counter", input: "counter", want: &Channels.Counter},
		{name: "phoneMixedCase", input: "Phone", want: &Channels.Phone},
		{name: "appWithSpaces", input: "  app ", want: &Channels.App},
		{name: "unknown", input: "drone", want: nil},
		{name: "empty", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ByName(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ByName(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if got == nil || got.Code() != tt.want.Code() {
				t.Errorf("ByName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestChannelLabel(t *testing.T) {
	if got := Channels.Counter.Label(); got != "Counter" {
		t.Errorf("Label() = %q, want %q", got, "Counter")
	}
	if got := (Channel{}).Label(); got != "" {
		t.Errorf("Label() = %q, want empty", got)
	}
}
