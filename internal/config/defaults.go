package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAuthURL           = "https://login.questrade.com"
	DefaultAPITimeout        = 30 * time.Second
	DefaultRetryBackoff      = 1 * time.Second
	DefaultCredentialsPath   = "questrade.yaml"
	DefaultCredentialSection = "questrade"
	DefaultPollRate          = 5.0
	DefaultBufferSize        = 64
	DefaultMaxBuffer         = 1024
	DefaultOverflow          = OverflowDropOldest
	DefaultWriteTimeout      = 5 * time.Second
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultBatchSize         = 1000
	DefaultFlushInterval     = 1 * time.Second
	DefaultRedisKeyPrefix    = "quote:"
	DefaultRedisChannel      = "quotes."
	DefaultKafkaBatchTimeout = 50 * time.Millisecond
	DefaultStreamPath        = "/stream"
	DefaultStreamSendBuffer  = 32
	DefaultStreamWrite       = 10 * time.Second
	DefaultStreamPing        = 30 * time.Second
	DefaultHealthPort        = 8080
	DefaultHealthPath        = "/health"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.AuthURL == "" {
		c.API.AuthURL = DefaultAuthURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Credentials defaults
	if c.Credentials.Path == "" {
		c.Credentials.Path = DefaultCredentialsPath
	}
	if c.Credentials.Section == "" {
		c.Credentials.Section = DefaultCredentialSection
	}

	// Poller defaults
	if c.Poller.Rate == 0 {
		c.Poller.Rate = DefaultPollRate
	}
	for i := range c.Poller.Subscriptions {
		if c.Poller.Subscriptions[i].Rate == 0 {
			c.Poller.Subscriptions[i].Rate = c.Poller.Rate
		}
	}

	// Output defaults
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = DefaultBufferSize
	}
	if c.Output.Overflow == "" {
		c.Output.Overflow = DefaultOverflow
	}
	if c.Output.MaxBuffer == 0 && c.Output.Overflow != OverflowGrow {
		c.Output.MaxBuffer = DefaultMaxBuffer
	}
	if c.Output.WriteTimeout == 0 {
		c.Output.WriteTimeout = DefaultWriteTimeout
	}

	// Database defaults
	if c.Database.Timescale.Enabled() {
		applyDBDefaults(&c.Database.Timescale)
	}

	// Writers defaults
	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}

	// Redis defaults
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if c.Redis.ChannelPrefix == "" {
		c.Redis.ChannelPrefix = DefaultRedisChannel
	}

	// Kafka defaults
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = DefaultKafkaBatchTimeout
	}

	// Stream defaults
	if c.Stream.Path == "" {
		c.Stream.Path = DefaultStreamPath
	}
	if c.Stream.SendBuffer == 0 {
		c.Stream.SendBuffer = DefaultStreamSendBuffer
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultStreamWrite
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultStreamPing
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
