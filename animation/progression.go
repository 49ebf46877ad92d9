package animation

import (
	"math"

	"github.com/pkg/errors"
)

// TickRate is the number of ticks per second every progression assumes.
const TickRate = 60

// completionEpsilon tolerates float rounding so that exactly TickRate*duration ticks always finish.
const completionEpsilon = 1e-9

// Progression is a normalized 0..1 timer that advances a fixed amount per tick.
type Progression struct {
	ticks   uint32
	perTick float64
}

// ValidateDuration rejects durations without a finite, positive per-tick increment:
// zero, negative, NaN, infinite, and values so small the increment overflows.
func ValidateDuration(duration float64) error {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return errors.Errorf("invalid progression duration %v", duration)
	}
	if math.IsInf(1.0/(TickRate*duration), 0) {
		return errors.Errorf("progression duration %v is too small", duration)
	}
	return nil
}

// NewProgression returns a progression lasting duration seconds.
func NewProgression(duration float64) (*Progression, error) {
	if err := ValidateDuration(duration); err != nil {
		return nil, err
	}
	return &Progression{perTick: 1.0 / (TickRate * duration)}, nil
}

// MustProgression is NewProgression for durations validated at config load time.
func MustProgression(duration float64) *Progression {
	p, err := NewProgression(duration)
	if err != nil {
		panic(err)
	}
	return p
}

// Tick advances the progression by one tick.
func (p *Progression) Tick() {
	p.ticks++
}

// Progress may exceed 1.0; callers treat anything at or past 1.0 as fully progressed.
func (p *Progression) Progress() float64 {
	return float64(p.ticks) * p.perTick
}

// IsDone reports whether the progression has reached 1.0.
func (p *Progression) IsDone() bool {
	return p.Progress() >= 1.0-completionEpsilon
}

// Ticks returns how many times Tick has been called.
func (p *Progression) Ticks() uint32 {
	return p.ticks
}
