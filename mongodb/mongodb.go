package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "movies"

type Options struct {
	URI            string
	ConnectTimeout time.Duration
}

// NewClient builds a pooled client. The driver connects lazily, so a bad or
// empty URI that still parses only surfaces on the first operation.
func NewClient(opts Options) (*mongo.Client, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}
	return mongo.Connect(clientOpts)
}

// Ping checks that the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}
