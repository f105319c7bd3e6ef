package utils

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-stomp/stomp/v3"
	"github.com/jack-barr3tt/gbr-tsdb/src/common/config"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

// dialBackOff gives a dependency that is still starting up about two
// minutes to come up.
func dialBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	return backoff.WithContext(b, ctx)
}

func retry[T any](ctx context.Context, what string, dial func() (T, error)) (T, error) {
	return backoff.RetryNotifyWithData(dial, dialBackOff(ctx), func(err error, d time.Duration) {
		GetLogger().Warnw("Connection failed, retrying", "target", what, "backoff", d, "error", err)
	})
}

func NewRabbitConnection(ctx context.Context, cfg config.MQConfig) (*amqp.Connection, *amqp.Channel, error) {
	connection, err := NewRabbitConnectionOnly(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	channel, err := connection.Channel()
	if err != nil {
		return nil, nil, multierr.Append(err, connection.Close())
	}

	return connection, channel, nil
}

func NewRabbitConnectionOnly(ctx context.Context, cfg config.MQConfig) (*amqp.Connection, error) {
	return retry(ctx, "rabbitmq", func() (*amqp.Connection, error) {
		return amqp.Dial(cfg.URL())
	})
}

func NewNRStompConnection(ctx context.Context, cfg config.FeedsConfig) (*stomp.Conn, error) {
	return retry(ctx, "stomp", func() (*stomp.Conn, error) {
		return stomp.Dial("tcp", cfg.Endpoint,
			stomp.ConnOpt.Login(cfg.Username, cfg.Password),
			stomp.ConnOpt.HeartBeat(15*time.Second, 15*time.Second),
		)
	})
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	_, err := retry(ctx, "redis", func() (string, error) {
		return rdb.Ping(ctx).Result()
	})
	if err != nil {
		return nil, multierr.Append(err, rdb.Close())
	}
	return rdb, nil
}

func NewPostgresConnection(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}

	_, err = retry(ctx, "postgres", func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Closers tears down connections in reverse order of opening.
type Closers []io.Closer

func (c *Closers) Add(closer io.Closer) {
	*c = append(*c, closer)
}

// AddFunc registers a teardown that cannot fail.
func (c *Closers) AddFunc(fn func()) {
	c.Add(closeFunc(fn))
}

func (c Closers) Close() error {
	var err error
	for i := len(c) - 1; i >= 0; i-- {
		err = multierr.Append(err, c[i].Close())
	}
	return err
}

type closeFunc func()

func (f closeFunc) Close() error {
	f()
	return nil
}

// CloserFunc adapts a teardown such as stomp.Conn.Disconnect to io.Closer.
type CloserFunc func() error

func (f CloserFunc) Close() error {
	return f()
}
