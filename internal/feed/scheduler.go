package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/pdrew/stockfeed/internal/connection"
	"github.com/pdrew/stockfeed/internal/metrics"
	"github.com/pdrew/stockfeed/internal/model"
	"github.com/pdrew/stockfeed/internal/pricegen"
	"github.com/pdrew/stockfeed/internal/store"
)

// Config holds scheduler configuration.
type Config struct {
	TickInterval time.Duration // Time between price updates (default: 2s)
	ConnectGrace time.Duration // How long to wait for the connection before giving up (default: 1s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: 2 * time.Second,
		ConnectGrace: time.Second,
	}
}

// Scheduler drives the feed loop: tick, generate, send, and apply the echo.
type Scheduler struct {
	cfg     Config
	conn    connection.Client
	store   *store.Store
	logger  *slog.Logger
	metrics *metrics.Registry

	symbols []string
	gens    map[string]*pricegen.Generator

	// lastSent records the price generated for each symbol's most recent
	// tick. It is the authoritative value applied when the echo returns.
	// Touched only by the run goroutine.
	lastSent map[string]float64

	mu         sync.Mutex
	running    bool
	activating bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a Scheduler over the given connection, store, and per-symbol
// generators.
func New(
	cfg Config,
	conn connection.Client,
	st *store.Store,
	gens map[string]*pricegen.Generator,
	logger *slog.Logger,
	reg *metrics.Registry,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.ConnectGrace == 0 {
		cfg.ConnectGrace = DefaultConfig().ConnectGrace
	}

	symbols := make([]string, 0, len(gens))
	for sym := range gens {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	return &Scheduler{
		cfg:      cfg,
		conn:     conn,
		store:    st,
		logger:   logger,
		metrics:  reg,
		symbols:  symbols,
		gens:     gens,
		lastSent: make(map[string]float64, len(gens)),
	}
}

// Start connects the transport and, once the connection is up, begins
// ticking. A no-op while the feed is already running or activating. If the
// connection is not established within the grace period, the feed stays
// inactive and no retry is scheduled; a later Start begins a fresh attempt.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running || s.activating {
		s.mu.Unlock()
		return nil
	}
	s.activating = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.mu.Unlock()

	if err := s.conn.Connect(ctx); err != nil {
		s.logger.Warn("connect request failed", "error", err)
	}

	go s.activate(ctx)

	return nil
}

// Stop cancels the tick, terminates the receive handling, and closes the
// connection. A no-op if the feed is neither running nor activating. No
// update is applied after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running && !s.activating {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.activating = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.conn.Close()

	s.logger.Info("feed stopped")
}

// Running reports whether the feed is actively ticking.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// activate waits out the connect grace period, then either begins the loop
// or deactivates.
func (s *Scheduler) activate(ctx context.Context) {
	defer s.wg.Done()

	select {
	case <-ctx.Done():
		s.setInactive()
		return
	case <-time.After(s.cfg.ConnectGrace):
	}

	if st := s.conn.State(); st != connection.StateConnected {
		s.logger.Warn("connection not established within grace period, feed inactive",
			"state", st,
			"grace", s.cfg.ConnectGrace,
		)
		s.metrics.Inc(metrics.ConnectFailures)
		s.conn.Close()
		s.setInactive()
		return
	}

	s.mu.Lock()
	s.activating = false
	s.running = true
	s.mu.Unlock()

	s.logger.Info("feed running",
		"interval", s.cfg.TickInterval,
		"instruments", len(s.symbols),
	)

	s.run(ctx)
}

// run is the serialized mutation context: the tick path and the receive
// path both execute here, so store mutations never interleave.
func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	// First tick fires immediately on activation.
	s.tick()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.tick()

		case err := <-s.conn.Errors():
			s.logger.Warn("connection failed, feed deactivating", "error", err)
			s.conn.Close()
			s.setInactive()
			return

		case msg, ok := <-s.conn.Messages():
			if !ok {
				return
			}
			s.handleMessage(msg)
		}
	}
}

// tick generates the next price for one symbol and sends it out.
func (s *Scheduler) tick() {
	if len(s.symbols) == 0 {
		return
	}

	sym := s.symbols[rand.IntN(len(s.symbols))]
	price := s.gens[sym].Next()
	s.lastSent[sym] = price

	msg := model.UpdateMessage{
		Symbol:    sym,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to encode update", "symbol", sym, "error", err)
		return
	}

	if err := s.conn.Send(data); err != nil {
		// Non-fatal: the next tick attempts its own send.
		s.metrics.Inc(metrics.SendFailures)
		s.logger.Warn("send failed", "symbol", sym, "error", err)
		return
	}

	s.metrics.Inc(metrics.TicksSent)
	s.logger.Debug("tick sent", "symbol", sym, "price", price)
}

// handleMessage applies one echoed update to the store. Malformed payloads
// and unknown symbols are dropped without surfacing an error.
func (s *Scheduler) handleMessage(msg connection.TimestampedMessage) {
	s.metrics.Inc(metrics.MessagesReceived)

	var update model.UpdateMessage
	if err := json.Unmarshal(msg.Data, &update); err != nil || update.Symbol == "" {
		s.metrics.Inc(metrics.DecodeFailures)
		s.logger.Debug("dropping malformed message", "len", len(msg.Data), "error", err)
		return
	}

	// The wire price is only a round-tripped copy of what was just sent;
	// the locally generated value is authoritative. A reordered or lost
	// echo therefore cannot desynchronize the walk.
	price, ok := s.lastSent[update.Symbol]
	if !ok {
		s.metrics.Inc(metrics.UnknownSymbols)
		s.logger.Debug("dropping update for unknown symbol", "symbol", update.Symbol)
		return
	}

	s.store.Apply(update.Symbol, price)
	s.metrics.Inc(metrics.UpdatesApplied)
}

func (s *Scheduler) setInactive() {
	s.mu.Lock()
	s.running = false
	s.activating = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
