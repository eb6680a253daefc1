package scoring

import (
	"math"
	"time"
)

// Engine binds a weight table snapshot and a fixed evaluation time.
// All scoring within one Engine sees the same weights and the same
// "today", so a batch ranking pass is internally consistent even if
// configuration changes mid-pass. Engines are cheap; build one per
// batch.
type Engine struct {
	weights Table
	now     time.Time
}

// NewEngine creates an Engine over the given weight snapshot. A zero
// evaluation time means time.Now.
func NewEngine(weights Table, now time.Time) *Engine {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Engine{weights: weights, now: now}
}

// Now returns the engine's fixed evaluation time.
func (e *Engine) Now() time.Time { return e.now }

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// clamp100 clamps a score into [0, 100].
func clamp100(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

// daysSince returns whole calendar days elapsed from t to now.
func daysSince(now, t time.Time) float64 {
	return now.Sub(t).Hours() / 24
}
