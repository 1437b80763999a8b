package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if c.Credentials.Path == "" {
		return errors.New("credentials.path is required")
	}

	if c.Poller.Rate <= 0 {
		return errors.New("poller.rate must be > 0")
	}
	seen := make(map[string]bool, len(c.Poller.Subscriptions))
	for i, s := range c.Poller.Subscriptions {
		prefix := fmt.Sprintf("poller.subscriptions[%d]", i)
		if s.Name == "" {
			return fmt.Errorf("%s.name is required", prefix)
		}
		if seen[s.Name] {
			return fmt.Errorf("%s.name %q is duplicated", prefix, s.Name)
		}
		seen[s.Name] = true
		if len(s.Symbols) == 0 {
			return fmt.Errorf("%s.symbols is required", prefix)
		}
		for _, sym := range s.Symbols {
			if strings.TrimSpace(sym) == "" {
				return fmt.Errorf("%s.symbols contains an empty symbol", prefix)
			}
		}
		if s.Rate <= 0 {
			return fmt.Errorf("%s.rate must be > 0", prefix)
		}
	}

	if err := c.Output.validate(); err != nil {
		return err
	}

	if c.Database.Timescale.Enabled() {
		if err := c.Database.Timescale.validate("database.timescale"); err != nil {
			return err
		}
		if c.Writers.BatchSize < 1 {
			return errors.New("writers.batch_size must be >= 1")
		}
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required")
	}

	if c.Stream.Enabled && !strings.HasPrefix(c.Stream.Path, "/") {
		return fmt.Errorf("stream.path must start with /, got %q", c.Stream.Path)
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (o *OutputConfig) validate() error {
	switch o.Overflow {
	case OverflowGrow:
	case OverflowDropOldest, OverflowDropNewest:
		if o.MaxBuffer < 1 {
			return fmt.Errorf("output.max_buffer must be >= 1 with overflow %s", o.Overflow)
		}
		if o.BufferSize > o.MaxBuffer {
			return fmt.Errorf("output.buffer_size (%d) cannot exceed max_buffer (%d)", o.BufferSize, o.MaxBuffer)
		}
	default:
		return fmt.Errorf("output.overflow must be one of grow, drop_oldest, drop_newest, got %q", o.Overflow)
	}
	if o.BufferSize < 1 {
		return errors.New("output.buffer_size must be >= 1")
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
