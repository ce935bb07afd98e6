package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/internal/orderflow"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

var _ orderflow.OrderRepository = (*OrderRepo)(nil)

// OrderRepo stores order snapshots, one document per order keyed by id.
type OrderRepo struct {
	*BaseRepo
	collection *mongo.Collection
}

func NewOrderRepo(config *apt.Config, logger apt.Logger) *OrderRepo {
	return &OrderRepo{
		BaseRepo: NewBaseRepo(config, logger),
	}
}

func (r *OrderRepo) Start(ctx context.Context) error {
	if err := r.BaseRepo.Start(ctx); err != nil {
		return err
	}

	r.collection = r.db.Collection(ordersCollection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "state", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cannot create order indexes: %w", err)
	}

	return nil
}

func (r *OrderRepo) Create(ctx context.Context, o *orderflow.Order) error {
	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("cannot insert order: %w", err)
	}
	return nil
}

// Save replaces the stored snapshot, inserting it if missing.
func (r *OrderRepo) Save(ctx context.Context, o *orderflow.Order) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": o.ID}, o, opts); err != nil {
		return fmt.Errorf("cannot save order: %w", err)
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id orderflow.OrderID) (*orderflow.Order, error) {
	var o orderflow.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, orderflow.ErrOrderNotFound
		}
		return nil, fmt.Errorf("cannot find order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context) ([]*orderflow.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*orderflow.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return orders, nil
}

func (r *OrderRepo) Delete(ctx context.Context, id orderflow.OrderID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("cannot delete order: %w", err)
	}

	if result.DeletedCount == 0 {
		return orderflow.ErrOrderNotFound
	}

	return nil
}
