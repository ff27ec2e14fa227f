package redis

import (
	"context"
	stderrors "errors"
	"net"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/fluxmux/errors"
	"github.com/kbukum/fluxmux/logger"
)

// Client is a go-redis client shared by one stream source or sink.
type Client struct {
	rdb *goredis.Client
	log *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// New connects to the server described by cfg. The connection is pinged
// before New returns, so a dead server fails the run up front.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tlsConfig, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	c := &Client{
		rdb: goredis.NewClient(cfg.options(tlsConfig)),
		log: log.WithComponent("redis"),
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.rdb.Close()
		return nil, err
	}
	c.log.Info("connected", logger.Fields(
		"addr", cfg.Addr,
		"db", cfg.DB,
		"tls", tlsConfig != nil,
	))
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return Classify("redis", err)
	}
	return nil
}

// Close releases the pool. Later calls return the first result.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.log.Debug("closing pool")
		c.closeErr = c.rdb.Close()
	})
	return c.closeErr
}

// Reply prefixes the server uses for conditions that clear on their own.
var transientReplies = []string{"LOADING", "TRYAGAIN", "BUSY", "MASTERDOWN", "CLUSTERDOWN"}

var connectionMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no route to host",
	"use of closed network connection",
	"connection pool timeout",
	"dial tcp",
}

// IsConnectionError reports whether err means the server could not be
// reached or dropped the connection.
func IsConnectionError(err error) bool {
	if err == nil || stderrors.Is(err, goredis.ErrClosed) {
		return false
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range connectionMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsRetryableError reports whether the same command may succeed later.
// A client closed on our side never recovers.
func IsRetryableError(err error) bool {
	if err == nil || stderrors.Is(err, goredis.ErrClosed) {
		return false
	}
	if IsConnectionError(err) {
		return true
	}
	msg := err.Error()
	for _, p := range transientReplies {
		if strings.HasPrefix(msg, p) {
			return true
		}
	}
	return false
}

// Classify converts a go-redis error into an AppError for endpoint.
func Classify(endpoint string, err error) *errors.AppError {
	if IsConnectionError(err) {
		return errors.ConnectionFailed(endpoint).WithCause(err)
	}
	appErr := errors.ExternalServiceError(endpoint, err)
	appErr.Retryable = IsRetryableError(err)
	return appErr
}
