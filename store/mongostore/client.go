package mongostore

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Connect creates a new mongo client, retrying transient connection failures.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	var lastErr error

	for attempt := 0; attempt < cfg.RetryAttempts; attempt++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMinPoolSize(cfg.MinPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime).
				SetRetryWrites(cfg.RetryWrites).
				SetRetryReads(cfg.RetryReads),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			// release the pool of the client we are about to abandon
			_ = client.Disconnect(ctx)
		}

		lastErr = err
		time.Sleep(cfg.RetryInterval)
	}

	return nil, goerrors.Wrap(lastErr, goerrors.CategoryInternal, "failed to connect to mongo")
}

// Healthcheck returns a probe function that verifies connectivity with a ping.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, nil); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "mongo healthcheck failed")
		}
		return nil
	}
}
