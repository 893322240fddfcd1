package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID       = "stockfeed-local"
	DefaultEndpoint         = "wss://echo.websocket.org"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultBufferSize       = 100
	DefaultTickInterval     = 2 * time.Second
	DefaultConnectGrace     = 1 * time.Second
	DefaultVolatility       = 0.02
	DefaultFlashDuration    = 1 * time.Second
	DefaultMetricsPort      = 8080
	DefaultMetricsPath      = "/metrics"
)

func (c *FeedConfig) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// Transport defaults
	if c.Transport.URL == "" {
		c.Transport.URL = DefaultEndpoint
	}
	if c.Transport.HandshakeTimeout == 0 {
		c.Transport.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Transport.WriteTimeout == 0 {
		c.Transport.WriteTimeout = DefaultWriteTimeout
	}
	if c.Transport.BufferSize == 0 {
		c.Transport.BufferSize = DefaultBufferSize
	}

	// Feed defaults
	if c.Feed.TickInterval == 0 {
		c.Feed.TickInterval = DefaultTickInterval
	}
	if c.Feed.ConnectGrace == 0 {
		c.Feed.ConnectGrace = DefaultConnectGrace
	}
	if c.Feed.Volatility == 0 {
		c.Feed.Volatility = DefaultVolatility
	}
	if c.Feed.FlashDuration == 0 {
		c.Feed.FlashDuration = DefaultFlashDuration
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Instrument universe
	if len(c.Instruments) == 0 {
		c.Instruments = SeedInstruments()
	}
}

// SeedInstruments returns the built-in 25-instrument universe used when the
// config file does not supply one.
func SeedInstruments() []InstrumentSeed {
	return []InstrumentSeed{
		{Symbol: "AAPL", CompanyName: "Apple Inc.", Description: "Consumer electronics, software, and services", InitialPrice: 227.50},
		{Symbol: "MSFT", CompanyName: "Microsoft Corporation", Description: "Software, cloud computing, and gaming", InitialPrice: 415.20},
		{Symbol: "GOOG", CompanyName: "Alphabet Inc.", Description: "Search, advertising, and cloud services", InitialPrice: 178.35},
		{Symbol: "AMZN", CompanyName: "Amazon.com Inc.", Description: "E-commerce and cloud infrastructure", InitialPrice: 197.80},
		{Symbol: "TSLA", CompanyName: "Tesla Inc.", Description: "Electric vehicles and energy storage", InitialPrice: 248.90},
		{Symbol: "META", CompanyName: "Meta Platforms Inc.", Description: "Social networking and virtual reality", InitialPrice: 512.40},
		{Symbol: "NVDA", CompanyName: "NVIDIA Corporation", Description: "Graphics processors and AI accelerators", InitialPrice: 131.25},
		{Symbol: "NFLX", CompanyName: "Netflix Inc.", Description: "Streaming entertainment", InitialPrice: 682.10},
		{Symbol: "INTC", CompanyName: "Intel Corporation", Description: "Semiconductors and foundry services", InitialPrice: 24.65},
		{Symbol: "AMD", CompanyName: "Advanced Micro Devices", Description: "CPUs, GPUs, and adaptive computing", InitialPrice: 155.70},
		{Symbol: "ORCL", CompanyName: "Oracle Corporation", Description: "Database software and cloud applications", InitialPrice: 142.85},
		{Symbol: "IBM", CompanyName: "International Business Machines", Description: "Enterprise technology and consulting", InitialPrice: 192.30},
		{Symbol: "CRM", CompanyName: "Salesforce Inc.", Description: "Customer relationship management software", InitialPrice: 268.45},
		{Symbol: "ADBE", CompanyName: "Adobe Inc.", Description: "Creative and document software", InitialPrice: 512.75},
		{Symbol: "PYPL", CompanyName: "PayPal Holdings Inc.", Description: "Digital payments platform", InitialPrice: 64.20},
		{Symbol: "CSCO", CompanyName: "Cisco Systems Inc.", Description: "Networking hardware and software", InitialPrice: 48.55},
		{Symbol: "QCOM", CompanyName: "Qualcomm Inc.", Description: "Wireless technology and chipsets", InitialPrice: 168.90},
		{Symbol: "TXN", CompanyName: "Texas Instruments", Description: "Analog and embedded semiconductors", InitialPrice: 196.40},
		{Symbol: "AVGO", CompanyName: "Broadcom Inc.", Description: "Semiconductors and infrastructure software", InitialPrice: 164.75},
		{Symbol: "SHOP", CompanyName: "Shopify Inc.", Description: "Commerce platform for online retailers", InitialPrice: 72.15},
		{Symbol: "UBER", CompanyName: "Uber Technologies Inc.", Description: "Ride hailing and delivery", InitialPrice: 71.30},
		{Symbol: "ABNB", CompanyName: "Airbnb Inc.", Description: "Short-term lodging marketplace", InitialPrice: 132.60},
		{Symbol: "SPOT", CompanyName: "Spotify Technology", Description: "Audio streaming", InitialPrice: 338.25},
		{Symbol: "SQ", CompanyName: "Block Inc.", Description: "Payments and financial services", InitialPrice: 67.95},
		{Symbol: "COIN", CompanyName: "Coinbase Global Inc.", Description: "Cryptocurrency exchange", InitialPrice: 201.50},
	}
}
