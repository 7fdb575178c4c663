package scan

import "math"

// Scheduler rewrites the buffer on a fixed period and once after an initial
// delay. Timers run on the caller's simulated clock and fire from Advance,
// so a reset becomes visible on the frame after the one that observed it.
//
// Every firing toggles between Forward and Backward. PingPong is only ever
// the configured value before the first firing.
type Scheduler struct {
	buf       Buffer
	direction Direction
	backward  bool // direction of the next firing

	period       float64
	initialDelay float64

	started     bool
	initialDue  float64
	initialDone bool
	nextPeriod  float64
	fired       int
}

// NewScheduler creates a stopped scheduler. initial is the direction reported
// before the first firing; a Backward initial value makes the first pulse run
// backward, anything else starts forward.
func NewScheduler(period, initialDelay float64, initial Direction) *Scheduler {
	return &Scheduler{
		buf:          NewBuffer(),
		direction:    initial,
		backward:     initial == Backward,
		period:       period,
		initialDelay: math.Max(0, initialDelay),
	}
}

// Start arms both timers relative to now.
func (s *Scheduler) Start(now float64) {
	s.started = true
	s.initialDue = now + s.initialDelay
	s.initialDone = false
	s.nextPeriod = now + s.period
}

// Advance fires every timer that is due at now, earliest first, and reports
// how many fired. Missed periodic ticks are coalesced into one firing.
func (s *Scheduler) Advance(now float64) int {
	if !s.started {
		return 0
	}
	n := 0
	for {
		initialReady := !s.initialDone && now >= s.initialDue
		periodReady := s.period > 0 && now >= s.nextPeriod
		switch {
		case initialReady && (!periodReady || s.initialDue <= s.nextPeriod):
			s.fire(now)
			s.initialDone = true
		case periodReady:
			s.fire(now)
			missed := math.Floor((now-s.nextPeriod)/s.period) + 1
			s.nextPeriod += missed * s.period
		default:
			return n
		}
		n++
	}
}

func (s *Scheduler) fire(now float64) {
	s.buf.Reset(now)
	if s.backward {
		s.direction = Backward
	} else {
		s.direction = Forward
	}
	s.backward = !s.backward
	s.fired++
}

func (s *Scheduler) Buffer() Buffer       { return s.buf }
func (s *Scheduler) Direction() Direction { return s.direction }

// Fired counts resets since creation.
func (s *Scheduler) Fired() int { return s.fired }

// NextDue returns the simulated time of the next timer firing.
func (s *Scheduler) NextDue() float64 {
	if !s.initialDone && s.initialDue < s.nextPeriod {
		return s.initialDue
	}
	return s.nextPeriod
}
