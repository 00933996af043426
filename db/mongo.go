// Package db provides a thin accessor over a shared MongoDB connection pool.
// It is entirely optional: when no connection string is configured the rest of
// the service runs without it.
package db

import (
	"context"
	"crypto/tls"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/parleyhq/parley/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 60 * time.Second
	maxPoolSize    = 50
	minPoolSize    = 5
	maxIdleTime    = 5 * time.Minute
)

// Mongo wraps one shared client. All collection handles share its pool.
type Mongo struct {
	client *mongo.Client
}

// ShouldEnableTLS decides whether to force TLS for a connection string.
// Local development (APP_ENV=local), in-cluster service DNS and explicit
// ssl=false/tls=false opt-outs stay plaintext; mongodb+srv and everything
// else default to TLS.
func ShouldEnableTLS(uri string) bool {
	if strings.EqualFold(os.Getenv("APP_ENV"), "local") {
		return false
	}
	if strings.Contains(uri, ".svc.cluster.local") {
		return false
	}
	if strings.Contains(uri, "ssl=false") || strings.Contains(uri, "tls=false") {
		return false
	}
	return true
}

// Connect establishes the shared client and verifies the cluster with a ping.
func Connect(ctx context.Context, uri string) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetServerSelectionTimeout(connectTimeout).
		SetConnectTimeout(connectTimeout).
		SetSocketTimeout(connectTimeout).
		SetRetryWrites(true).
		SetMaxPoolSize(maxPoolSize).
		SetMinPoolSize(minPoolSize).
		SetMaxConnIdleTime(maxIdleTime)

	if ShouldEnableTLS(uri) {
		// System root CAs; the URI can still narrow this further.
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create MongoDB client")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrapf(err, "failed to ping MongoDB cluster")
	}

	slog.Info("connected to MongoDB cluster")
	return &Mongo{client: client}, nil
}

// Collection returns a handle backed by the shared pool.
func (m *Mongo) Collection(database, name string) *mongo.Collection {
	return m.client.Database(database).Collection(name)
}

// Close disconnects the shared client.
func (m *Mongo) Close(ctx context.Context) error {
	return errors.Wrapf(m.client.Disconnect(ctx), "failed to disconnect from MongoDB")
}
