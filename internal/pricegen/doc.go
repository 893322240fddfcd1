// Package pricegen implements the bounded random-walk price generator.
//
// Each tracked instrument owns one Generator seeded with that instrument's
// initial price. Every draw moves the price by a uniform fractional change
// within the configured volatility, clamps the result to a multiplicative
// band around the base price, and rounds to currency precision.
package pricegen
