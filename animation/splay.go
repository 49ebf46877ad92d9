package animation

// Phase tags the current step of a splay sequence.
type Phase int

const (
	PhaseRise Phase = iota
	PhaseFlip
	PhaseTravel
)

func (p Phase) String() string {
	switch p {
	case PhaseRise:
		return "rise"
	case PhaseFlip:
		return "flip"
	case PhaseTravel:
		return "travel"
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// SplayDurations are the per-phase durations in seconds.
type SplayDurations struct {
	Rise   float64
	Flip   float64
	Travel float64
}

var DefaultSplayDurations = SplayDurations{
	Rise:   0.2,
	Flip:   0.4,
	Travel: 1.5,
}

func (d SplayDurations) of(phase Phase) float64 {
	switch phase {
	case PhaseRise:
		return d.Rise
	case PhaseFlip:
		return d.Flip
	}
	return d.Travel
}

// Splay moves a card from the deck to the display area: rise, flip, then travel.
// Each phase owns a fresh progression; progress resets when the phase changes.
type Splay struct {
	phase     Phase
	progress  *Progression
	durations SplayDurations
}

func NewSplay(durations SplayDurations) *Splay {
	return &Splay{
		phase:     PhaseRise,
		progress:  MustProgression(durations.Rise),
		durations: durations,
	}
}

// Tick advances the active phase and moves to the next phase once it completes.
// Travel has no successor.
func (s *Splay) Tick() {
	s.progress.Tick()
	if !s.progress.IsDone() || s.phase == PhaseTravel {
		return
	}
	s.phase++
	s.progress = MustProgression(s.durations.of(s.phase))
}

// IsDone is only true once the travel phase completes.
func (s *Splay) IsDone() bool {
	return s.phase == PhaseTravel && s.progress.IsDone()
}

func (s *Splay) Phase() Phase {
	return s.phase
}

// Progress is the active phase's progress, not the progress of the whole sequence.
func (s *Splay) Progress() float64 {
	return s.progress.Progress()
}
