package pricegen

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Rand supplies the uniform draws for the walk. Satisfied by *rand.Rand.
type Rand interface {
	Float64() float64
}

// Config holds generator parameters.
type Config struct {
	Volatility float64 // Max fractional change per step (default: 0.02 = 2%)
	MinFactor  float64 // Lower clamp as a multiple of base price (default: 0.5)
	MaxFactor  float64 // Upper clamp as a multiple of base price (default: 1.5)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Volatility: 0.02,
		MinFactor:  0.5,
		MaxFactor:  1.5,
	}
}

// Generator produces a bounded random walk starting at a base price.
// Not safe for concurrent use; callers serialize access (the scheduler
// drives all generators from a single goroutine).
type Generator struct {
	cfg       Config
	basePrice float64
	current   float64
	rnd       Rand

	// Band edges rounded inward to cent precision, so a clamped value
	// never leaves the band after rounding.
	floor float64
	ceil  float64
}

// New creates a Generator seeded at basePrice. A nil rnd falls back to the
// shared math/rand source.
func New(cfg Config, basePrice float64, rnd Rand) *Generator {
	if cfg.Volatility == 0 {
		cfg.Volatility = DefaultConfig().Volatility
	}
	if cfg.MinFactor == 0 {
		cfg.MinFactor = DefaultConfig().MinFactor
	}
	if cfg.MaxFactor == 0 {
		cfg.MaxFactor = DefaultConfig().MaxFactor
	}
	if rnd == nil {
		rnd = sharedRand{}
	}

	base := decimal.NewFromFloat(basePrice)
	minF := decimal.NewFromFloat(cfg.MinFactor)
	maxF := decimal.NewFromFloat(cfg.MaxFactor)

	return &Generator{
		cfg:       cfg,
		basePrice: basePrice,
		current:   basePrice,
		rnd:       rnd,
		floor:     base.Mul(minF).RoundCeil(2).InexactFloat64(),
		ceil:      base.Mul(maxF).RoundFloor(2).InexactFloat64(),
	}
}

// Next advances the walk one step and returns the new price.
// The result always lies in [MinFactor*base, MaxFactor*base] and carries at
// most two fractional digits.
func (g *Generator) Next() float64 {
	change := (g.rnd.Float64()*2 - 1) * g.cfg.Volatility

	// Currency precision: exactly two decimal places.
	next := decimal.NewFromFloat(g.current * (1 + change)).Round(2).InexactFloat64()

	if next < g.floor {
		next = g.floor
	}
	if next > g.ceil {
		next = g.ceil
	}

	g.current = next
	return next
}

// Current returns the last generated price (the base price before any Next).
func (g *Generator) Current() float64 {
	return g.current
}

// BasePrice returns the seed price the band is anchored to.
func (g *Generator) BasePrice() float64 {
	return g.basePrice
}

// sharedRand adapts the package-level math/rand source to the Rand interface.
type sharedRand struct{}

func (sharedRand) Float64() float64 { return rand.Float64() }
