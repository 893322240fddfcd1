package model

import "time"

// -----------------------------------------------------------------------------
// Instrument State
// -----------------------------------------------------------------------------

// Instrument represents a single tracked symbol and its current price state.
//
// Symbol, CompanyName, and Description are fixed at creation. Price,
// PreviousPrice, and LastUpdated mutate only through the feed store's Apply.
type Instrument struct {
	Symbol      string // Primary key (e.g., "AAPL"), uppercase
	CompanyName string // Display name
	Description string // Short descriptive blurb

	Price         float64   // Current price
	PreviousPrice float64   // Price immediately before the last update
	LastUpdated   time.Time // Local timestamp of the last update
}

// NewInstrument creates an instrument at its initial price.
// PreviousPrice equals Price, so a fresh instrument shows zero change.
func NewInstrument(symbol, company, description string, price float64) Instrument {
	return Instrument{
		Symbol:        symbol,
		CompanyName:   company,
		Description:   description,
		Price:         price,
		PreviousPrice: price,
	}
}

// PriceChange returns the absolute change since the previous update.
func (i Instrument) PriceChange() float64 {
	return i.Price - i.PreviousPrice
}

// PriceChangePercent returns the change as a percentage of the previous price.
// Returns 0 if the previous price is zero.
func (i Instrument) PriceChangePercent() float64 {
	if i.PreviousPrice == 0 {
		return 0
	}
	return (i.Price - i.PreviousPrice) / i.PreviousPrice * 100
}

// -----------------------------------------------------------------------------
// Wire Types
// -----------------------------------------------------------------------------

// UpdateMessage is the round-tripped wire payload: sent to the echo endpoint
// as a UTF-8 JSON text frame and received back unchanged. Timestamps are
// RFC 3339. Decoders ignore unknown extra fields.
type UpdateMessage struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
