package acquire

import (
	"context"

	"phrased/pkg/types"
)

// Strategy fetches a model's artifacts into dest.
type Strategy interface {
	// Name labels the strategy in state, logs and metrics.
	Name() string
	// Fetch downloads desc into dest, reporting progress through rep.
	// ErrToolUnavailable asks the orchestrator to try the next strategy.
	Fetch(ctx context.Context, desc types.ModelDescriptor, dest string, rep Reporter) error
}

// Reporter receives progress from a running strategy.
type Reporter interface {
	SetTotal(total int64)
	// Advance reports the absolute number of bytes obtained so far.
	Advance(done int64)
	SetFile(name string)
	SetStatus(msg string)
}

// trackerReporter applies reports to a tracker; reports arriving after the
// attempt ended (e.g. canceled) are dropped by the State guards.
type trackerReporter struct{ t *Tracker }

func (r trackerReporter) SetTotal(total int64) {
	r.t.Update(func(s *State) { s.setTotal(total) })
}

func (r trackerReporter) Advance(done int64) {
	r.t.Update(func(s *State) { s.advance(done) })
}

func (r trackerReporter) SetFile(name string) {
	r.t.Update(func(s *State) {
		if !s.Downloading {
			return
		}
		s.CurrentFile = name
		s.Status = "Downloading " + name + "..."
	})
}

func (r trackerReporter) SetStatus(msg string) {
	r.t.Update(func(s *State) {
		if s.Downloading {
			s.Status = msg
		}
	})
}
