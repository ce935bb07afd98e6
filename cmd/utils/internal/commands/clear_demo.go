package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/internal/mongo"
	"go.mongodb.org/mongo-driver/bson"
)

// ClearDemo removes every stored order, leaving the database and its indexes.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	base := mongo.NewBaseRepo(config, logger)
	if err := base.Start(ctx); err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer base.Stop(ctx)

	result, err := base.GetDatabase().Collection("orders").DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("delete orders: %w", err)
	}
	logger.Info("Deleted orders", "count", result.DeletedCount)

	return nil
}
