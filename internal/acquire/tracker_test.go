package acquire

import (
	"testing"
	"time"
)

func TestTrackerResetBumpsAttempt(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()

	tr.Reset(State{Downloading: true, TotalBytes: 100})
	tr.Reset(State{Downloading: true, TotalBytes: 200})
	s := tr.State()
	if s.Attempt != 2 || s.TotalBytes != 200 {
		t.Fatalf("unexpected state: %+v", s)
	}
}

func TestTrackerProgressNeverDecreases(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()
	rep := trackerReporter{t: tr}

	tr.Reset(State{Downloading: true, TotalBytes: 100})
	last := 0.0
	for _, n := range []int64{10, 50, 30, 50, 0, 90, 100, 120} {
		rep.Advance(n)
		p := tr.State().Progress
		if p < last {
			t.Fatalf("progress went backwards: %v -> %v after Advance(%d)", last, p, n)
		}
		if p > 1 {
			t.Fatalf("progress above 1: %v", p)
		}
		last = p
	}
	if tr.State().BytesDownloaded != 120 {
		t.Fatalf("bytes = %d", tr.State().BytesDownloaded)
	}
}

func TestTrackerIgnoresUpdatesAfterCancel(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()
	rep := trackerReporter{t: tr}

	tr.Reset(State{Downloading: true, TotalBytes: 100})
	rep.Advance(40)
	tr.Update(func(s *State) { s.cancel() })
	rep.Advance(80)
	rep.SetStatus("late")
	tr.Update(func(s *State) { s.complete("/x") })

	s := tr.State()
	if s.Downloading || !s.Canceled || s.Status != StatusCancelled {
		t.Fatalf("unexpected state: %+v", s)
	}
	if s.BytesDownloaded != 40 || s.ResultPath != "" {
		t.Fatalf("late update applied: %+v", s)
	}
}

func TestTrackerSubscribeLatestWins(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()

	ch, unsub := tr.Subscribe()
	defer unsub()

	first := <-ch
	if first.Attempt != 0 {
		t.Fatalf("initial snapshot: %+v", first)
	}
	for i := 0; i < 5; i++ {
		tr.Reset(State{Downloading: true})
	}
	select {
	case s := <-ch:
		if s.Attempt != 5 {
			t.Fatalf("expected latest snapshot, got attempt %d", s.Attempt)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestTrackerCloseClosesSubscribers(t *testing.T) {
	tr := NewTracker()
	ch, unsub := tr.Subscribe()
	<-ch
	tr.Close()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	unsub()
	// no-op after close
	tr.Update(func(s *State) { s.Status = "x" })
}

func TestFormattedProgress(t *testing.T) {
	s := State{BytesDownloaded: 500_000_000, TotalBytes: 1_500_000_000}
	if got := s.FormattedProgress(); got != "500MB / 1.5GB" {
		t.Fatalf("FormattedProgress = %q", got)
	}
}
