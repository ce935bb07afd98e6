package channel

import "strings"

// Channel is the origin of an order. The lifecycle engine treats it as an
// opaque string; only the service layer checks it against All.
type Channel struct {
	Name string
}

func (c Channel) Code() string {
	return c.Name
}

func (c Channel) Label() string {
	if len(c.Name) == 0 {
		return ""
	}
	return strings.ToUpper(c.Name[:1]) + c.Name[1:]
}

type Enum struct {
	Counter Channel
	Phone   Channel
	App     Channel
}

var Channels = Enum{
	Counter: Channel{Name: "counter"},
	Phone:   Channel{Name: "phone"},
	App:     Channel{Name: "app"},
}

var All = []Channel{
	Channels.Counter,
	Channels.Phone,
	Channels.App,
}

// ByName returns the channel for a given name, or nil if not found
func ByName(name string) *Channel {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range All {
		if c.Name == name {
			return &c
		}
	}
	return nil
}
