package acquire

import (
	"context"
	"errors"
	"sync"

	"phrased/internal/registry"
	"phrased/pkg/types"
)

// Orchestrator runs at most one acquisition at a time, choosing between
// strategies and recording progress in a Tracker.
type Orchestrator struct {
	root       string
	strategies []Strategy
	tracker    *Tracker

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	// userCanceled is set by Cancel for the running attempt
	userCanceled bool
}

// New returns an orchestrator storing models under root. Strategies are
// tried in order; the next one runs only when the previous reports
// ErrToolUnavailable.
func New(root string, strategies ...Strategy) *Orchestrator {
	return &Orchestrator{root: root, strategies: strategies, tracker: NewTracker()}
}

// Root is the models directory.
func (o *Orchestrator) Root() string { return o.root }

// Tracker exposes the progress record.
func (o *Orchestrator) Tracker() *Tracker { return o.tracker }

// State returns the latest progress snapshot.
func (o *Orchestrator) State() State { return o.tracker.State() }

// Subscribe streams progress snapshots; see Tracker.Subscribe.
func (o *Orchestrator) Subscribe() (<-chan State, func()) { return o.tracker.Subscribe() }

// Installed lists completed models under the root.
func (o *Orchestrator) Installed() ([]types.InstalledModel, error) {
	return registry.LoadDir(o.root)
}

// Acquire makes desc available locally and returns its directory.
// An already installed model returns immediately without network or
// subprocess activity. A user cancellation returns ("", nil); the state
// record carries the outcome.
func (o *Orchestrator) Acquire(ctx context.Context, desc types.ModelDescriptor) (string, error) {
	if desc.ID == "" || desc.RepoID == "" {
		return "", ErrInvalidDescriptor
	}
	dest := registry.ModelDir(o.root, desc.ID)

	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return "", ErrBusy
	}
	if registry.IsInstalled(dest) {
		o.mu.Unlock()
		o.tracker.Reset(State{
			Progress:        1,
			BytesDownloaded: desc.SizeBytes,
			TotalBytes:      desc.SizeBytes,
			Status:          StatusCached,
			ResultPath:      dest,
		})
		attemptsTotal.WithLabelValues("none", "cached").Inc()
		logger.Info().Str("event", "cached").Str("model", desc.ID).Str("path", dest).Msg("model already present")
		return dest, nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.active = true
	o.cancel = cancel
	o.userCanceled = false
	o.tracker.Reset(State{
		Downloading: true,
		TotalBytes:  desc.SizeBytes,
		Status:      StatusPreparing,
	})
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.active = false
		o.cancel = nil
		o.mu.Unlock()
	}()

	logger.Info().Str("event", "acquire_start").Str("model", desc.ID).Str("repo", desc.RepoID).Str("dest", dest).Msg("acquisition started")
	name, err := o.run(runCtx, desc, dest)

	o.mu.Lock()
	userCanceled := o.userCanceled
	o.mu.Unlock()

	switch {
	case err == nil:
		o.tracker.Update(func(s *State) { s.complete(dest) })
		attemptsTotal.WithLabelValues(name, "complete").Inc()
		logger.Info().Str("event", "acquire_done").Str("model", desc.ID).Str("strategy", name).Msg("acquisition complete")
		return dest, nil
	case userCanceled:
		o.tracker.Update(func(s *State) { s.cancel() })
		attemptsTotal.WithLabelValues(name, "canceled").Inc()
		logger.Info().Str("event", "acquire_canceled").Str("model", desc.ID).Msg("acquisition canceled")
		return "", nil
	case ctx.Err() != nil:
		o.tracker.Update(func(s *State) { s.cancel() })
		attemptsTotal.WithLabelValues(name, "canceled").Inc()
		return "", ctx.Err()
	default:
		o.tracker.Update(func(s *State) { s.fail("Download failed: " + err.Error()) })
		attemptsTotal.WithLabelValues(name, "failed").Inc()
		logger.Error().Err(err).Str("event", "acquire_failed").Str("model", desc.ID).Str("strategy", name).Msg("acquisition failed")
		return "", err
	}
}

// run tries strategies in order and returns the name of the last one used.
func (o *Orchestrator) run(ctx context.Context, desc types.ModelDescriptor, dest string) (string, error) {
	rep := trackerReporter{t: o.tracker}
	name := "none"
	err := ErrToolUnavailable
	for _, s := range o.strategies {
		name = s.Name()
		o.tracker.Update(func(st *State) {
			if st.Downloading {
				st.Strategy = name
			}
		})
		err = s.Fetch(ctx, desc, dest, rep)
		if !errors.Is(err, ErrToolUnavailable) {
			return name, err
		}
		attemptsTotal.WithLabelValues(name, "fallback").Inc()
		logger.Info().Str("event", "fallback").Str("strategy", name).Msg("strategy unavailable, trying next")
	}
	return name, err
}

// Cancel stops the running acquisition, if any. The attempt ends with
// Canceled set and Downloading cleared; files already written stay.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.active || o.cancel == nil {
		return
	}
	o.userCanceled = true
	o.cancel()
	o.tracker.Update(func(s *State) { s.cancel() })
}

// Active reports whether an acquisition is running.
func (o *Orchestrator) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Close cancels any running acquisition and stops the tracker.
func (o *Orchestrator) Close() {
	o.Cancel()
	o.tracker.Close()
}
