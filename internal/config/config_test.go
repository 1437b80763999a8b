package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: desk-1
api:
  auth_url: https://practicelogin.questrade.com
  timeout: 10s
credentials:
  path: /var/lib/questrade/creds.yaml
poller:
  rate: 2
  subscriptions:
    - name: tech
      symbols: [AAPL, MSFT]
    - name: banks
      symbols: [BMO.TO, TD.TO]
      rate: 1
      diff: false
database:
  timescale:
    host: localhost
    name: quotes
    user: writer
    password: pw
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "desk-1" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "desk-1")
	}
	if cfg.API.AuthURL != "https://practicelogin.questrade.com" {
		t.Errorf("API.AuthURL = %q", cfg.API.AuthURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if len(cfg.Poller.Subscriptions) != 2 {
		t.Fatalf("len(Subscriptions) = %d, want 2", len(cfg.Poller.Subscriptions))
	}
	if !cfg.Poller.Subscriptions[0].DiffEnabled() {
		t.Error("tech: DiffEnabled() = false, want true when unset")
	}
	if cfg.Poller.Subscriptions[1].DiffEnabled() {
		t.Error("banks: DiffEnabled() = true, want false")
	}
	if !cfg.Database.Timescale.Enabled() {
		t.Error("Timescale.Enabled() = false, want true")
	}
	if cfg.Redis.Enabled() || cfg.Kafka.Enabled() {
		t.Error("redis/kafka should be disabled when absent")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")
	t.Setenv("TEST_REDIS_ADDR", "127.0.0.1:6379")

	yaml := `
instance:
  id: desk-1
database:
  timescale:
    host: localhost
    name: quotes
    user: writer
    password: ${TEST_DB_PASSWORD}
redis:
  addr: ${TEST_REDIS_ADDR}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Timescale.Password != "secret123" {
		t.Errorf("Timescale.Password = %q, want %q", cfg.Database.Timescale.Password, "secret123")
	}
	if cfg.Redis.Addr != "127.0.0.1:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: desk-1
poller:
  subscriptions:
    - name: tech
      symbols: [AAPL]
    - name: slow
      symbols: [MSFT]
      rate: 0.5
database:
  timescale:
    host: localhost
    name: quotes
    user: writer
    password: pw
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.AuthURL != DefaultAuthURL {
		t.Errorf("API.AuthURL = %q, want %q", cfg.API.AuthURL, DefaultAuthURL)
	}
	if cfg.API.MaxRetries != 0 {
		t.Errorf("API.MaxRetries = %d, want 0", cfg.API.MaxRetries)
	}
	if cfg.Credentials.Path != DefaultCredentialsPath {
		t.Errorf("Credentials.Path = %q, want %q", cfg.Credentials.Path, DefaultCredentialsPath)
	}
	if cfg.Poller.Rate != DefaultPollRate {
		t.Errorf("Poller.Rate = %v, want %v", cfg.Poller.Rate, DefaultPollRate)
	}
	if cfg.Poller.Subscriptions[0].Rate != DefaultPollRate {
		t.Errorf("tech rate = %v, want %v", cfg.Poller.Subscriptions[0].Rate, DefaultPollRate)
	}
	if cfg.Poller.Subscriptions[1].Rate != 0.5 {
		t.Errorf("slow rate = %v, want 0.5", cfg.Poller.Subscriptions[1].Rate)
	}
	if cfg.Output.Overflow != OverflowDropOldest || cfg.Output.MaxBuffer != DefaultMaxBuffer {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Database.Timescale.Port != DefaultDBPort {
		t.Errorf("Timescale.Port = %d, want %d", cfg.Database.Timescale.Port, DefaultDBPort)
	}
	if cfg.Database.Timescale.MaxConns != DefaultMaxConns {
		t.Errorf("Timescale.MaxConns = %d, want %d", cfg.Database.Timescale.MaxConns, DefaultMaxConns)
	}
	if cfg.Health.Port != DefaultHealthPort {
		t.Errorf("Health.Port = %d, want %d", cfg.Health.Port, DefaultHealthPort)
	}
	if cfg.Stream.Path != DefaultStreamPath {
		t.Errorf("Stream.Path = %q, want %q", cfg.Stream.Path, DefaultStreamPath)
	}
}

func TestGrowOverflowLeavesMaxUnset(t *testing.T) {
	cfg := &Config{Output: OutputConfig{Overflow: OverflowGrow}}
	cfg.applyDefaults()
	if cfg.Output.MaxBuffer != 0 {
		t.Errorf("MaxBuffer = %d, want 0 for grow", cfg.Output.MaxBuffer)
	}
}

// validConfig returns a config that passes Validate.
func validConfig() Config {
	cfg := Config{
		Instance: InstanceConfig{ID: "test"},
		Poller: PollerConfig{
			Subscriptions: []SubscriptionConfig{{Name: "tech", Symbols: []string{"AAPL"}}},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name: "missing subscription name",
			mutate: func(c *Config) {
				c.Poller.Subscriptions = append(c.Poller.Subscriptions, SubscriptionConfig{Symbols: []string{"X"}, Rate: 1})
			},
			wantErr: "poller.subscriptions[1].name is required",
		},
		{
			name: "duplicate subscription",
			mutate: func(c *Config) {
				c.Poller.Subscriptions = append(c.Poller.Subscriptions, SubscriptionConfig{Name: "tech", Symbols: []string{"X"}, Rate: 1})
			},
			wantErr: `poller.subscriptions[1].name "tech" is duplicated`,
		},
		{
			name:    "empty symbols",
			mutate:  func(c *Config) { c.Poller.Subscriptions[0].Symbols = nil },
			wantErr: "poller.subscriptions[0].symbols is required",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.Poller.Subscriptions[0].Rate = -1 },
			wantErr: "poller.subscriptions[0].rate must be > 0",
		},
		{
			name:    "unknown overflow",
			mutate:  func(c *Config) { c.Output.Overflow = "block" },
			wantErr: `output.overflow must be one of grow, drop_oldest, drop_newest, got "block"`,
		},
		{
			name:    "buffer exceeds max",
			mutate:  func(c *Config) { c.Output.BufferSize = 2000 },
			wantErr: "output.buffer_size (2000) cannot exceed max_buffer (1024)",
		},
		{
			name: "missing timescale password",
			mutate: func(c *Config) {
				c.Database.Timescale = DBConfig{Host: "localhost", Name: "db", User: "user", MaxConns: 5}
			},
			wantErr: "database.timescale.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Database.Timescale = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10}
			},
			wantErr: "database.timescale.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "kafka without topic",
			mutate:  func(c *Config) { c.Kafka.Brokers = []string{"localhost:9092"} },
			wantErr: "kafka.topic is required",
		},
		{
			name:    "health port out of range",
			mutate:  func(c *Config) { c.Health.Port = 70000 },
			wantErr: "health.port must be between 1 and 65535, got 70000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, "instance:\n  id: \"\"\n")
	_, err := LoadAndValidate(path)
	if err == nil || !strings.Contains(err.Error(), "instance.id is required") {
		t.Errorf("LoadAndValidate() error = %v, want instance.id is required", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("LoadDotEnv() = %v, want nil", err)
		}
	})

	t.Run("sets variables", func(t *testing.T) {
		const key = "QT_TEST_DOTENV_VALUE"
		t.Setenv(key, "")
		os.Unsetenv(key)

		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0644); err != nil {
			t.Fatalf("write env file: %v", err)
		}
		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("LoadDotEnv() = %v", err)
		}
		if got := os.Getenv(key); got != "from-file" {
			t.Errorf("%s = %q, want %q", key, got, "from-file")
		}
	})
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
