// Package db owns the MongoDB connection behind the remote backend.
package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var log = logrus.WithField("component", "db")

const (
	ProductsCollection = "products"
	OrdersCollection   = "orders"
	SettingsCollection = "admin_settings"
)

type DB struct {
	Client   *mongo.Client
	Products *mongo.Collection
	Orders   *mongo.Collection
	Settings *mongo.Collection
}

// Connect builds a client for uri and binds the three collections of database
// name. An unreachable server is not an error here: the driver keeps trying in
// the background and callers learn about it from their first query.
func Connect(ctx context.Context, uri, name string) (*DB, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetRegistry(NewRegistry()).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.WithError(err).Warn("mongo not reachable yet")
	}

	database := client.Database(name)
	return &DB{
		Client:   client,
		Products: database.Collection(ProductsCollection),
		Orders:   database.Collection(OrdersCollection),
		Settings: database.Collection(SettingsCollection),
	}, nil
}

// EnsureIndexes creates the created_at indexes both listings sort on.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	for _, c := range []*mongo.Collection{d.Products, d.Orders} {
		_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "created_at", Value: 1}},
		})
		if err != nil {
			return errors.Wrapf(err, "index %s.created_at", c.Name())
		}
	}
	return nil
}

func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
