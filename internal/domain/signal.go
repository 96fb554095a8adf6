package domain

import (
	"fmt"
	"time"
)

// TradeSignal is an ingested trading signal from a pluggable source.
type TradeSignal struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"` // LONG, SHORT or FLAT
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

// Validate checks the signal at the ingestion boundary.
func (s TradeSignal) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("signal has no symbol")
	}
	switch s.Direction {
	case Long, Short, Flat:
	default:
		return fmt.Errorf("signal %s has invalid direction %q", s.Symbol, s.Direction)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("signal %s has confidence %v outside [0,1]", s.Symbol, s.Confidence)
	}
	return nil
}
