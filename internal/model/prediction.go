package model

import (
	"fmt"
	"time"
)

// Prediction is one ranked "what the user will buy next, and when" result
// from the prediction engine.
type Prediction struct {
	NextTime   time.Time `json:"next_time"`
	Item       string    `json:"item"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
	Samples    int       `json:"samples"`
}

// Validate checks the engine's output guarantees.
func (p *Prediction) Validate() error {
	if p.Item == "" {
		return fmt.Errorf("prediction item is required")
	}
	if p.Samples < 2 {
		return fmt.Errorf("prediction needs at least 2 samples, got %d", p.Samples)
	}
	if p.Confidence < 0.0 || p.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.3f", p.Confidence)
	}
	if p.NextTime.IsZero() {
		return fmt.Errorf("prediction next_time is required")
	}
	return nil
}
