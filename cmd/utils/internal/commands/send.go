package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/internal/orderflow"
	"github.com/appetiteclub/orderflow/pkg"
	"github.com/appetiteclub/orderflow/pkg/event"
	"github.com/google/uuid"
)

var ErrUsage = errors.New("usage: send <order-id> <kind> [note]")

// BuildCommand validates send arguments into the message the service consumes.
func BuildCommand(args []string) (event.OrderCommand, error) {
	if len(args) < 2 {
		return event.OrderCommand{}, ErrUsage
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return event.OrderCommand{}, fmt.Errorf("invalid order id %q: %w", args[0], err)
	}

	kind, err := orderflow.ParseEventKind(args[1])
	if err != nil {
		return event.OrderCommand{}, err
	}

	return event.OrderCommand{
		OrderID: id.String(),
		Kind:    kind.String(),
		Note:    strings.Join(args[2:], " "),
	}, nil
}

// Send publishes one lifecycle command on the commands topic.
func Send(ctx context.Context, config *apt.Config, logger apt.Logger, args []string) error {
	cmd, err := BuildCommand(args)
	if err != nil {
		return err
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")
	publisher, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		return err
	}
	defer publisher.Close()

	if err := publisher.Publish(ctx, event.CommandsTopic, data); err != nil {
		return err
	}

	logger.Info("Command published", "order_id", cmd.OrderID, "kind", cmd.Kind)
	return nil
}
