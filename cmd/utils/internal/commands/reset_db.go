package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/internal/mongo"
	"go.mongodb.org/mongo-driver/bson"
)

// ResetDB drops the orderflow database - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("DANGER: This will drop the orderflow database!")
	logger.Infof("This action cannot be undone!")

	base := mongo.NewBaseRepo(config, logger)
	if err := base.Start(ctx); err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer base.Stop(ctx)

	db := base.GetDatabase()
	logger.Info("Dropping database", "database", db.Name())
	if err := db.RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("drop database %s: %w", db.Name(), err)
	}

	logger.Info("Database dropped", "database", db.Name())
	return nil
}
