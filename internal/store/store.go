package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pdrew/stockfeed/internal/model"
)

// Update is broadcast to subscribers after each applied price change.
type Update struct {
	Symbol        string
	Price         float64
	PreviousPrice float64
	At            time.Time
}

// Config holds store configuration.
type Config struct {
	FlashDuration time.Duration // How long a symbol stays flashing (default: 1s)
	BufferSize    int           // Initial capacity of subscriber buffers (default: 64)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		FlashDuration: time.Second,
		BufferSize:    64,
	}
}

// Store holds instrument state for the lifetime of a run. All mutation goes
// through Apply; readers get copies, never references into the store.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu          sync.RWMutex
	instruments map[string]*model.Instrument
	order       []string               // symbols, most recently updated first
	flash       map[string]*time.Timer // pending flash expirations by symbol

	subMu  sync.Mutex
	subs   []*GrowableBuffer[Update]
	closed bool
}

// New creates a Store seeded with the fixed instrument universe.
func New(cfg Config, seed []model.Instrument, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FlashDuration == 0 {
		cfg.FlashDuration = DefaultConfig().FlashDuration
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	s := &Store{
		cfg:         cfg,
		logger:      logger,
		instruments: make(map[string]*model.Instrument, len(seed)),
		order:       make([]string, 0, len(seed)),
		flash:       make(map[string]*time.Timer),
	}

	for _, inst := range seed {
		if _, ok := s.instruments[inst.Symbol]; ok {
			logger.Warn("duplicate seed symbol ignored", "symbol", inst.Symbol)
			continue
		}
		i := inst
		s.instruments[i.Symbol] = &i
		s.order = append(s.order, i.Symbol)
	}

	return s
}

// Apply records a new price for symbol: previous-price bookkeeping, move to
// the front of the recency order, and a fresh flash window. Unknown symbols
// are dropped without mutating anything. Returns false on an unknown symbol.
func (s *Store) Apply(symbol string, price float64) bool {
	now := time.Now()

	s.mu.Lock()
	inst, ok := s.instruments[symbol]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("dropping update for unknown symbol", "symbol", symbol)
		return false
	}

	inst.PreviousPrice = inst.Price
	inst.Price = price
	inst.LastUpdated = now

	s.moveToFrontLocked(symbol)
	s.armFlashLocked(symbol)

	update := Update{
		Symbol:        symbol,
		Price:         inst.Price,
		PreviousPrice: inst.PreviousPrice,
		At:            now,
	}
	s.mu.Unlock()

	s.broadcast(update)
	return true
}

// IsFlashing reports whether symbol is inside its flash window.
func (s *Store) IsFlashing(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.flash[symbol]
	return ok
}

// SelectBySymbol returns a copy of the instrument for symbol. Used by detail
// views and deep links; never mutates ordering or flash state. Callers
// normalize the symbol to uppercase.
func (s *Store) SelectBySymbol(symbol string) (model.Instrument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instruments[symbol]
	if !ok {
		return model.Instrument{}, false
	}
	return *inst, true
}

// Snapshot returns copies of all instruments in recency order.
func (s *Store) Snapshot() []model.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Instrument, 0, len(s.order))
	for _, sym := range s.order {
		out = append(out, *s.instruments[sym])
	}
	return out
}

// Len returns the size of the instrument universe.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Subscribe registers a new update subscriber and returns its buffer.
// The buffer is closed when the store closes.
func (s *Store) Subscribe() *GrowableBuffer[Update] {
	buf := NewGrowableBuffer[Update](s.cfg.BufferSize)

	s.subMu.Lock()
	if s.closed {
		buf.Close()
	} else {
		s.subs = append(s.subs, buf)
	}
	s.subMu.Unlock()

	return buf
}

// Unsubscribe removes a subscriber and closes its buffer.
func (s *Store) Unsubscribe(buf *GrowableBuffer[Update]) {
	s.subMu.Lock()
	for i, b := range s.subs {
		if b == buf {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	s.subMu.Unlock()

	buf.Close()
}

// Close stops all pending flash timers and closes subscriber buffers.
func (s *Store) Close() {
	s.mu.Lock()
	for sym, t := range s.flash {
		t.Stop()
		delete(s.flash, sym)
	}
	s.mu.Unlock()

	s.subMu.Lock()
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.subMu.Unlock()

	for _, b := range subs {
		b.Close()
	}
}

// moveToFrontLocked moves symbol to index 0 of the recency order.
// Caller holds s.mu.
func (s *Store) moveToFrontLocked(symbol string) {
	for i, sym := range s.order {
		if sym == symbol {
			copy(s.order[1:i+1], s.order[:i])
			s.order[0] = symbol
			return
		}
	}
}

// armFlashLocked starts (or restarts) the flash window for symbol. A later
// update's timer supersedes the earlier one by symbol identity: the expiry
// callback only clears the mark if its own timer is still the registered one.
// Caller holds s.mu.
func (s *Store) armFlashLocked(symbol string) {
	if prev, ok := s.flash[symbol]; ok {
		prev.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(s.cfg.FlashDuration, func() {
		s.mu.Lock()
		if s.flash[symbol] == t {
			delete(s.flash, symbol)
		}
		s.mu.Unlock()
	})
	s.flash[symbol] = t
}

// broadcast delivers an update to every subscriber buffer. Send never
// blocks (buffers grow), so Apply is not coupled to reader speed.
func (s *Store) broadcast(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, b := range s.subs {
		b.Send(u)
	}
}
