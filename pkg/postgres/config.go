package postgres

import (
	"fmt"
	"time"
)

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds Postgres connection configuration.
type ClientConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int
	DialTimeout time.Duration
}

// WithHost sets the server host.
func WithHost(host string) ClientOption {
	return func(c *ClientConfig) { c.Host = host }
}

// WithPort sets the server port.
func WithPort(port int) ClientOption {
	return func(c *ClientConfig) {
		if port > 0 {
			c.Port = port
		}
	}
}

// WithDatabase sets the database name.
func WithDatabase(db string) ClientOption {
	return func(c *ClientConfig) { c.Database = db }
}

// WithCredentials sets user and password.
func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		c.User = user
		c.Password = password
	}
}

// WithSSLMode sets the sslmode parameter.
func WithSSLMode(mode string) ClientOption {
	return func(c *ClientConfig) { c.SSLMode = mode }
}

// WithMaxConns bounds the pool size.
func WithMaxConns(n int) ClientOption {
	return func(c *ClientConfig) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// WithDialTimeout sets the connect/ping timeout.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if d > 0 {
			c.DialTimeout = d
		}
	}
}

func buildDSN(cfg ClientConfig) string {
	ssl := cfg.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, ssl)
}
