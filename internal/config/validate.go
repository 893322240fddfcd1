package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *FeedConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Transport.URL == "" {
		return errors.New("transport.url is required")
	}
	if !strings.HasPrefix(c.Transport.URL, "ws://") && !strings.HasPrefix(c.Transport.URL, "wss://") {
		return fmt.Errorf("transport.url must be a ws:// or wss:// endpoint, got %q", c.Transport.URL)
	}

	if c.Feed.TickInterval <= 0 {
		return errors.New("feed.tick_interval must be > 0")
	}
	if c.Feed.ConnectGrace <= 0 {
		return errors.New("feed.connect_grace must be > 0")
	}
	if c.Feed.Volatility <= 0 || c.Feed.Volatility >= 1 {
		return fmt.Errorf("feed.volatility must be in (0, 1), got %v", c.Feed.Volatility)
	}
	if c.Feed.FlashDuration <= 0 {
		return errors.New("feed.flash_duration must be > 0")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	if len(c.Instruments) == 0 {
		return errors.New("at least one instrument is required")
	}

	seen := make(map[string]struct{}, len(c.Instruments))
	for i, inst := range c.Instruments {
		if inst.Symbol == "" {
			return fmt.Errorf("instruments[%d].symbol is required", i)
		}
		sym := strings.ToUpper(inst.Symbol)
		if _, dup := seen[sym]; dup {
			return fmt.Errorf("duplicate instrument symbol %q", sym)
		}
		seen[sym] = struct{}{}

		if inst.InitialPrice <= 0 {
			return fmt.Errorf("instruments[%d].initial_price must be > 0, got %v", i, inst.InitialPrice)
		}
	}

	return nil
}
