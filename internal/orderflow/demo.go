package orderflow

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/pkg/enums/channel"
)

type demoOrder struct {
	channel channel.Channel
	items   []string
}

var demoOrders = []demoOrder{
	{channel: channel.Channels.Counter, items: []string{"1/2 chicken", "fries"}},
	{channel: channel.Channels.Phone, items: []string{"whole chicken"}},
	{channel: channel.Channels.App, items: []string{"family combo"}},
}

// ApplyDemoSeeds creates one demo order per channel when the registry is
// empty, so a fresh board has something on it.
func ApplyDemoSeeds(ctx context.Context, service *Service, logger apt.Logger) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	if n := service.Registry().Count(); n > 0 {
		logger.Info("Registry not empty, skipping demo orders", "count", n)
		return nil
	}

	logger.Info("Applying demo orders")
	for _, d := range demoOrders {
		if _, err := service.Create(ctx, d.channel.Code(), d.items); err != nil {
			return fmt.Errorf("create demo %s order: %w", d.channel.Code(), err)
		}
	}
	logger.Info("Demo orders applied", "count", len(demoOrders))
	return nil
}

// DemoSeedingFunc adapts ApplyDemoSeeds to a lifecycle OnStart hook.
func DemoSeedingFunc(service *Service, logger apt.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := ApplyDemoSeeds(ctx, service, logger); err != nil {
			logger.Errorf("Demo seeding failed (non-fatal): %v", err)
		}
		return nil
	}
}
