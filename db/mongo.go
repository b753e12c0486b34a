package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"tech-trends/config"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init initializes the global Mongo client and database using config values.
func Init(ctx context.Context, cfg config.MongoStoreConfig) error {
	var initErr error
	clientOnce.Do(func() {
		uri := cfg.URI
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}
		dbName := cfg.Database
		if dbName == "" {
			dbName = "techtrends"
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			initErr = err
			return
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(dbName)

		if err := ensureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		config.Logger.Info("MongoDB connected and indexes ensured")
	})
	return initErr
}

func Client() *mongo.Client    { return client }
func Database() *mongo.Database { return db }

// Disconnect closes the global client if it was opened.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	// documents: unique path, lookup by period
	{
		if _, err := d.Collection("documents").Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "path", Value: 1}},
			Options: options.Index().SetName("uniq_path").SetUnique(true),
		}); err != nil {
			return err
		}
		if _, err := d.Collection("documents").Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "period", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index().SetName("idx_period_kind"),
		}); err != nil {
			return err
		}
	}

	// ai_logs: requested_at desc
	{
		if _, err := d.Collection("ai_logs").Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "requested_at", Value: -1}},
			Options: options.Index().SetName("idx_requested_at_desc"),
		}); err != nil {
			return err
		}
	}
	return nil
}
