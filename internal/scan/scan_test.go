package scan

import (
	"math"
	"testing"

	"github.com/iburimskiy/gridscan/internal/config"
)

func TestBufferResetInvariant(t *testing.T) {
	b := NewBuffer()
	if b.Count != 0 || len(b.Active()) != 0 {
		t.Fatalf("new buffer should be empty, count=%d", b.Count)
	}

	b.Starts[3] = 2.5
	b.Count = 4
	b.Reset(7.25)

	if b.Count != 1 {
		t.Errorf("expected count 1, got %d", b.Count)
	}
	if b.Starts[0] != 7.25 {
		t.Errorf("expected slot 0 = 7.25, got %f", b.Starts[0])
	}
	for i := 1; i < len(b.Starts); i++ {
		if b.Starts[i] != config.ScanSentinel {
			t.Errorf("slot %d should hold sentinel, got %f", i, b.Starts[i])
		}
	}
	if got := b.Active(); len(got) != 1 || got[0] != 7.25 {
		t.Errorf("unexpected active slots %v", got)
	}
}

func TestPhaseClamp(t *testing.T) {
	tests := []struct {
		name     string
		now      float64
		start    float64
		duration float64
		delay    float64
		expected float64
	}{
		{"future start", 1, 2, 4, 0, 0},
		{"at start", 2, 2, 4, 0, 0},
		{"midway", 4, 2, 4, 0, 0.5},
		{"at end", 6, 2, 4, 0, 1},
		{"past end", 60, 2, 4, 0, 1},
		{"sentinel slot", 3, config.ScanSentinel, 4, 0, 1},
		{"delay holds at zero", 2.5, 2, 4, 1, 0},
		{"delay shifts window", 4, 2, 4, 1, 0.25},
		{"negative delay floored", 2, 2, 4, -3, 0},
		{"zero duration floored", 2.025, 2, 0, 0, 0.5},
	}

	for _, tt := range tests {
		got := Phase(tt.now, tt.start, tt.duration, tt.delay)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.expected, got)
		}
		if got < 0 || got > 1 {
			t.Errorf("%s: phase %f outside [0,1]", tt.name, got)
		}
	}
}

func TestDirectionMap(t *testing.T) {
	tests := []struct {
		dir      Direction
		phase    float64
		expected float64
	}{
		{Forward, 0.3, 0.3},
		{Backward, 0.3, 0.7},
		{PingPong, 0.25, 0.5},
		{PingPong, 0.5, 1},
		{PingPong, 0.75, 0.5},
		{PingPong, 1, 0},
		{Forward, -1, 0},
		{Backward, 2, 0},
	}

	for _, tt := range tests {
		got := tt.dir.Map(tt.phase)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("%s.Map(%f): expected %f, got %f", tt.dir, tt.phase, tt.expected, got)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for _, name := range []string{"forward", "backward", "pingpong"} {
		d, err := ParseDirection(name)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if d.String() != name {
			t.Errorf("round trip %s -> %s", name, d)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestSchedulerIdleUntilStarted(t *testing.T) {
	s := NewScheduler(5, 0.1, PingPong)
	if n := s.Advance(100); n != 0 {
		t.Errorf("stopped scheduler fired %d times", n)
	}
	if s.Direction() != PingPong {
		t.Errorf("expected configured direction before firing, got %s", s.Direction())
	}
}

func TestSchedulerDirectionAlternates(t *testing.T) {
	s := NewScheduler(5, 0.1, PingPong)
	s.Start(0)

	var seen []Direction
	for frame := 1; frame <= 3000; frame++ {
		now := float64(frame) / 60
		if s.Advance(now) > 0 {
			seen = append(seen, s.Direction())
			b := s.Buffer()
			if b.Count != 1 || b.Starts[0] != now {
				t.Fatalf("reset at %f left buffer %+v", now, b)
			}
		}
	}

	if len(seen) < 9 {
		t.Fatalf("expected at least 9 resets in 50s, got %d", len(seen))
	}
	if seen[0] != Forward {
		t.Errorf("initial trigger should start forward, got %s", seen[0])
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] == seen[i-1] {
			t.Errorf("reset %d repeated direction %s", i, seen[i])
		}
		if seen[i] == PingPong {
			t.Errorf("reset %d selected ping-pong", i)
		}
	}
}

func TestSchedulerBackwardConfigStartsBackward(t *testing.T) {
	s := NewScheduler(5, 0.1, Backward)
	s.Start(0)
	s.Advance(0.1)
	if s.Direction() != Backward {
		t.Errorf("expected first pulse backward, got %s", s.Direction())
	}
	s.Advance(5)
	if s.Direction() != Forward {
		t.Errorf("expected second pulse forward, got %s", s.Direction())
	}
}

func TestSchedulerCoalescesMissedTicks(t *testing.T) {
	s := NewScheduler(5, 0.1, Forward)
	s.Start(0)

	// A long suspend: initial trigger plus one coalesced periodic reset.
	if n := s.Advance(23); n != 2 {
		t.Errorf("expected 2 firings, got %d", n)
	}
	if due := s.NextDue(); due != 25 {
		t.Errorf("expected next periodic reset at 25, got %f", due)
	}
	if n := s.Advance(24.9); n != 0 {
		t.Errorf("expected no firing before 25, got %d", n)
	}
}

func TestSchedulerEndToEnd(t *testing.T) {
	const (
		duration = 4.0
		delay    = 0.0
	)
	s := NewScheduler(5, 0.1, PingPong)
	s.Start(0)

	s.Advance(0.1)
	first := s.Direction()
	b := s.Buffer()
	if b.Count != 1 {
		t.Fatalf("expected one pulse at 0.1s, got %d", b.Count)
	}
	if p := Phase(0.1, b.Starts[0], duration, delay); p != 0 {
		t.Errorf("expected phase 0 at 0.1s, got %f", p)
	}

	if n := s.Advance(4.1); n != 0 {
		t.Errorf("unexpected reset before the period elapsed")
	}
	if p := Phase(4.1, s.Buffer().Starts[0], duration, delay); math.Abs(p-1) > 1e-9 {
		t.Errorf("expected phase 1 at 4.1s, got %f", p)
	}

	if n := s.Advance(5.1); n != 1 {
		t.Fatalf("expected one periodic reset by 5.1s, got %d", n)
	}
	if s.Direction() == first {
		t.Errorf("expected direction to flip from %s", first)
	}
	if p := Phase(5.1, s.Buffer().Starts[0], duration, delay); p != 0 {
		t.Errorf("expected fresh pulse at 5.1s, got phase %f", p)
	}
}
