package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/internal/mongo"
	"github.com/appetiteclub/orderflow/internal/orderflow"
)

// SeedDemo stores the demo orders through the regular service path, so they
// carry the same log entries as orders created over HTTP.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	repo := mongo.NewOrderRepo(config, logger)
	if err := repo.Start(ctx); err != nil {
		return fmt.Errorf("start order repo: %w", err)
	}
	defer repo.Stop(ctx)

	registry := orderflow.NewRegistry(nil, repo, logger)
	if err := registry.WarmFromRepo(ctx); err != nil {
		return fmt.Errorf("load orders: %w", err)
	}

	service := orderflow.NewService(registry, repo, nil, logger)
	if err := orderflow.ApplyDemoSeeds(ctx, service, logger); err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}

	return nil
}
