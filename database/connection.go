package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connection owns a MongoDB client and the database handle components
// receive at construction time. Built once at startup, torn down once at
// shutdown.
type Connection struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect establishes a pooled connection to MongoDB and verifies it
// with a ping. dbName overrides the database name embedded in the URI;
// when both are empty the default name is used.
func Connect(databaseURL, dbName string) (*Connection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(databaseURL)
	clientOptions.SetMaxPoolSize(100)
	clientOptions.SetMinPoolSize(5)
	clientOptions.SetMaxConnIdleTime(30 * time.Second)
	clientOptions.SetRetryWrites(true)
	clientOptions.SetRetryReads(true)
	clientOptions.SetReadPreference(readpref.PrimaryPreferred())

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if dbName == "" {
		dbName = extractDatabaseName(databaseURL)
	}
	database := client.Database(dbName)

	logrus.Info("Connected to MongoDB")
	logrus.Infof("Database: %s", dbName)

	if err := EnsureIndexes(database); err != nil {
		logrus.Warnf("Index creation warning: %v", err)
	}

	return &Connection{client: client, database: database}, nil
}

// Database returns the database handle.
func (c *Connection) Database() *mongo.Database {
	return c.database
}

// Disconnect closes the MongoDB connection.
func (c *Connection) Disconnect(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Disconnect(ctx); err != nil {
		logrus.Errorf("Error disconnecting from MongoDB: %v", err)
		return err
	}
	logrus.Info("Disconnected from MongoDB")
	return nil
}

// IsConnected checks if the database connection is alive.
func (c *Connection) IsConnected() bool {
	if c.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx, readpref.Primary()) == nil
}

// extractDatabaseName extracts the database name from a MongoDB URI,
// falling back to the service default.
func extractDatabaseName(uri string) string {
	const defaultDB = "push_notifications"

	trimmed := uri
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		name := trimmed[idx+1:]
		if cut := strings.IndexAny(name, "?&"); cut >= 0 {
			name = name[:cut]
		}
		if name != "" && name != "admin" {
			return name
		}
	}
	return defaultDB
}
