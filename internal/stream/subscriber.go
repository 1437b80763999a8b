package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/questrade-data/internal/model"
)

// Subscriber is a websocket client of a Hub.
type Subscriber interface {
	// Connect dials the hub and starts reading batches.
	Connect(ctx context.Context) error

	// Close gracefully closes the connection.
	Close() error

	// Batches returns decoded batches in arrival order.
	Batches() <-chan model.QuoteBatch

	// Errors returns connection errors. At most one is delivered.
	Errors() <-chan error

	// IsConnected returns current connection state.
	IsConnected() bool
}

type subscriber struct {
	cfg    SubscriberConfig
	logger *slog.Logger

	conn *websocket.Conn

	batches chan model.QuoteBatch
	errors  chan error
	done    chan struct{}

	mu         sync.RWMutex
	connected  bool
	lastPingAt time.Time
	closed     bool
}

// NewSubscriber creates a new Subscriber.
func NewSubscriber(cfg SubscriberConfig, logger *slog.Logger) Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultSubscriberConfig()
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = def.PingTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}

	return &subscriber{
		cfg:     cfg,
		logger:  logger,
		batches: make(chan model.QuoteBatch, cfg.BufferSize),
		errors:  make(chan error, 1),
		done:    make(chan struct{}),
	}
}

// Connect establishes the websocket connection.
func (s *subscriber) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrAlreadyClosed
	}
	s.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.lastPingAt = time.Now()
	s.mu.Unlock()

	conn.SetPingHandler(func(data string) error {
		s.mu.Lock()
		s.lastPingAt = time.Now()
		s.mu.Unlock()

		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(s.cfg.WriteTimeout),
		)
	})

	go s.readLoop()
	go s.heartbeatLoop()

	s.logger.Debug("stream connected", "url", s.cfg.URL)
	return nil
}

// Close gracefully closes the connection.
func (s *subscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.connected = false
	s.mu.Unlock()

	close(s.done)

	if s.conn != nil {
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return s.conn.Close()
	}
	return nil
}

func (s *subscriber) Batches() <-chan model.QuoteBatch {
	return s.batches
}

func (s *subscriber) Errors() <-chan error {
	return s.errors
}

func (s *subscriber) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *subscriber) fail(err error) {
	select {
	case <-s.done:
	default:
		select {
		case s.errors <- err:
		default:
		}
	}
}

// readLoop decodes frames into batches. Undecodable frames are skipped.
func (s *subscriber) readLoop() {
	defer func() {
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.fail(err)
			return
		}

		var batch model.QuoteBatch
		if err := json.Unmarshal(data, &batch); err != nil {
			s.logger.Warn("failed to decode batch", "error", err, "size", len(data))
			continue
		}

		select {
		case s.batches <- batch:
		case <-s.done:
			return
		default:
			s.logger.Warn("batch buffer full, dropping batch", "batch_id", batch.ID)
		}
	}
}

// heartbeatLoop reports a stale connection when the hub stops pinging.
func (s *subscriber) heartbeatLoop() {
	interval := s.cfg.PingTimeout / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.RLock()
			lastPing := s.lastPingAt
			s.mu.RUnlock()

			if time.Since(lastPing) > s.cfg.PingTimeout {
				s.logger.Warn("no ping received, connection stale",
					"last_ping", lastPing,
					"timeout", s.cfg.PingTimeout,
				)
				s.fail(ErrStaleConnection)
				s.conn.Close()
				return
			}
		}
	}
}
