package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestNewInstrument(t *testing.T) {
	i := NewInstrument("AAPL", "Apple Inc.", "Consumer electronics and services", 150.0)

	if i.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want %q", i.Symbol, "AAPL")
	}
	if i.Price != 150.0 {
		t.Errorf("Price = %v, want %v", i.Price, 150.0)
	}
	if i.PreviousPrice != i.Price {
		t.Errorf("PreviousPrice = %v, want %v (fresh instrument shows zero change)", i.PreviousPrice, i.Price)
	}
	if i.PriceChange() != 0 {
		t.Errorf("PriceChange = %v, want 0", i.PriceChange())
	}
	if i.PriceChangePercent() != 0 {
		t.Errorf("PriceChangePercent = %v, want 0", i.PriceChangePercent())
	}
}

func TestInstrument_PriceChange(t *testing.T) {
	i := NewInstrument("AAPL", "Apple Inc.", "", 150.0)
	i.PreviousPrice = i.Price
	i.Price = 155.0

	if got := i.PriceChange(); got != 5.0 {
		t.Errorf("PriceChange = %v, want 5.0", got)
	}
	if got := i.PriceChangePercent(); math.Abs(got-3.33) > 0.01 {
		t.Errorf("PriceChangePercent = %v, want ~3.33", got)
	}
}

func TestInstrument_PriceChangePercent_ZeroPrevious(t *testing.T) {
	i := Instrument{Symbol: "X", Price: 10.0, PreviousPrice: 0}

	if got := i.PriceChangePercent(); got != 0 {
		t.Errorf("PriceChangePercent = %v, want 0 for zero previous price", got)
	}
}

func TestUpdateMessage_JSON(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	msg := UpdateMessage{Symbol: "MSFT", Price: 412.55, Timestamp: ts}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got UpdateMessage
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got != msg {
		t.Errorf("round trip = %+v, want %+v", got, msg)
	}
}

func TestUpdateMessage_IgnoresUnknownFields(t *testing.T) {
	raw := `{"symbol":"TSLA","price":250.10,"timestamp":"2025-03-14T09:30:00Z","sid":42,"extra":"ignored"}`

	var msg UpdateMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if msg.Symbol != "TSLA" || msg.Price != 250.10 {
		t.Errorf("decoded %+v, want symbol TSLA price 250.10", msg)
	}
}
