// Package model defines shared data types used across the stock feed.
//
// Conventions:
//   - Prices: float64 rounded to 2 decimal places (currency precision)
//   - Timestamps: time.Time, RFC 3339 on the wire
//   - Symbols: uppercase strings, unique within the seed universe
package model
