package config

import "time"

// Config is the root configuration for a streamer instance.
type Config struct {
	Instance    InstanceConfig    `yaml:"instance"`
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Poller      PollerConfig      `yaml:"poller"`
	Output      OutputConfig      `yaml:"output"`
	Database    DatabaseConfig    `yaml:"database"`
	Writers     WritersConfig     `yaml:"writers"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Stream      StreamConfig      `yaml:"stream"`
	Health      HealthConfig      `yaml:"health"`
}

// InstanceConfig identifies this streamer.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds Questrade API settings.
type APIConfig struct {
	AuthURL      string        `yaml:"auth_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"` // 0 = no retries
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// CredentialsConfig locates the credential file.
type CredentialsConfig struct {
	Path    string `yaml:"path"`
	Section string `yaml:"section"`
}

// PollerConfig holds quote poller settings.
type PollerConfig struct {
	Rate          float64              `yaml:"rate"` // Polls per second, per subscription
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
}

// SubscriptionConfig is one set of symbols polled together.
type SubscriptionConfig struct {
	Name    string   `yaml:"name"`
	Symbols []string `yaml:"symbols"`
	Rate    float64  `yaml:"rate"` // 0 = poller.rate
	Diff    *bool    `yaml:"diff"` // nil = true
}

// DiffEnabled reports whether unchanged quotes are filtered out.
func (s SubscriptionConfig) DiffEnabled() bool {
	return s.Diff == nil || *s.Diff
}

// OutputConfig controls the batch buffer between pollers and sinks.
type OutputConfig struct {
	BufferSize   int           `yaml:"buffer_size"`  // Initial capacity
	MaxBuffer    int           `yaml:"max_buffer"`   // Ignored for overflow=grow
	Overflow     string        `yaml:"overflow"`     // grow, drop_oldest, drop_newest
	WriteTimeout time.Duration `yaml:"write_timeout"` // Per sink write
}

// Overflow policies.
const (
	OverflowGrow       = "grow"
	OverflowDropOldest = "drop_oldest"
	OverflowDropNewest = "drop_newest"
)

// DatabaseConfig holds the TimescaleDB connection for quote history.
type DatabaseConfig struct {
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether a database is configured.
func (db DBConfig) Enabled() bool {
	return db.Host != ""
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// RedisConfig holds the latest-quote cache and pub/sub settings.
type RedisConfig struct {
	Addr          string        `yaml:"addr"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	KeyPrefix     string        `yaml:"key_prefix"`
	ChannelPrefix string        `yaml:"channel_prefix"`
	TTL           time.Duration `yaml:"ttl"` // 0 = keep forever
}

// Enabled reports whether Redis is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// KafkaConfig holds Kafka producer settings.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// Enabled reports whether Kafka is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// StreamConfig holds the websocket broadcast endpoint settings.
type StreamConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Path         string        `yaml:"path"`
	SendBuffer   int           `yaml:"send_buffer"` // Batches queued per client
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
}

// HealthConfig holds the HTTP server settings for /health and the stream.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
