// Package nats publishes trip assistant events to NATS JetStream.
package nats

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/trip-assistant/pkg/logger"
)

const (
	defaultClientName    = "trip-assistant"
	defaultReconnectWait = 2 * time.Second
	defaultStreamMaxAge  = 30 * 24 * time.Hour
)

// Config holds NATS connection and event stream settings. Zero values fall
// back to defaults; MaxReconnects < 0 retries forever.
type Config struct {
	URL   string
	Token string

	// CAFile alone verifies the server; CertFile and KeyFile add a client certificate.
	CAFile   string
	CertFile string
	KeyFile  string

	Name          string
	MaxReconnects int
	ReconnectWait time.Duration

	// StreamMaxAge bounds how long trip and turn events are retained.
	StreamMaxAge time.Duration
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = defaultClientName
	}
	if c.ReconnectWait <= 0 {
		c.ReconnectWait = defaultReconnectWait
	}
	if c.StreamMaxAge <= 0 {
		c.StreamMaxAge = defaultStreamMaxAge
	}
	return c
}

// Client owns the NATS connection used for event publishing.
type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	cfg    Config
	logger *logger.Logger
}

// Connect dials NATS and opens a JetStream context.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	cfg = cfg.withDefaults()

	opts, err := connectOptions(cfg, log)
	if err != nil {
		return nil, err
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	log.Info("connected to NATS",
		zap.String("url", nc.ConnectedUrl()),
		zap.String("client_name", cfg.Name),
	)

	return &Client{
		conn:   nc,
		js:     js,
		cfg:    cfg,
		logger: log,
	}, nil
}

// connectOptions turns cfg into dial options. Event publishing is
// best-effort, so disconnects are logged rather than surfaced.
func connectOptions(cfg Config, log *logger.Logger) ([]nats.Option, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error("NATS error", zap.Error(err))
		}),
	}

	if cfg.CAFile != "" || cfg.CertFile != "" || cfg.KeyFile != "" {
		tc, err := tlsConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tc))
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	return opts, nil
}

// JetStream returns the JetStream context.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// Close drains pending publishes, then closes the connection.
func (c *Client) Close() {
	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
	}
}

// IsConnected reports whether the connection is currently up.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

func tlsConfig(cfg Config) (*tls.Config, error) {
	out := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("failed to parse CA certificate")
		}
		out.RootCAs = pool
	}

	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("NATS client certificate and key must be set together")
	}
	if cfg.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		out.Certificates = []tls.Certificate{cert}
	}

	return out, nil
}
