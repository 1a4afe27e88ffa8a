package acquire

import (
	"sync"
	"sync/atomic"
)

type trackerOp struct {
	fn   func(*State)
	done chan struct{}
}

// Tracker owns the State record. Mutations are funneled through one writer
// goroutine; each applied mutation publishes a fresh snapshot.
type Tracker struct {
	ops  chan trackerOp
	quit chan struct{}
	once sync.Once

	cur atomic.Pointer[State]

	mu     sync.Mutex
	nextID int
	subs   map[int]chan State
}

// NewTracker starts the writer goroutine. Call Close to stop it.
func NewTracker() *Tracker {
	t := &Tracker{
		ops:  make(chan trackerOp),
		quit: make(chan struct{}),
		subs: make(map[int]chan State),
	}
	t.cur.Store(&State{})
	go t.loop()
	return t
}

func (t *Tracker) loop() {
	for {
		select {
		case op := <-t.ops:
			next := *t.cur.Load()
			op.fn(&next)
			t.cur.Store(&next)
			t.publish(next)
			close(op.done)
		case <-t.quit:
			return
		}
	}
}

// Update applies fn on the writer goroutine and waits until the resulting
// snapshot is visible. It is a no-op after Close.
func (t *Tracker) Update(fn func(*State)) {
	op := trackerOp{fn: fn, done: make(chan struct{})}
	select {
	case t.ops <- op:
		<-op.done
	case <-t.quit:
	}
}

// Reset replaces the record for a new attempt.
func (t *Tracker) Reset(s State) {
	t.Update(func(cur *State) {
		s.Attempt = cur.Attempt + 1
		*cur = s
	})
}

// State returns the latest snapshot.
func (t *Tracker) State() State { return *t.cur.Load() }

// Subscribe returns a channel that always holds the most recent snapshot
// not yet received. Slow readers skip intermediate states. The returned
// func unsubscribes and closes the channel.
func (t *Tracker) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = ch
	ch <- *t.cur.Load()
	t.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			if _, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(ch)
			}
			t.mu.Unlock()
		})
	}
}

func (t *Tracker) publish(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- s:
		default:
			// drop the stale snapshot, keep the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Close stops the writer goroutine and closes all subscriptions.
func (t *Tracker) Close() {
	t.once.Do(func() {
		close(t.quit)
		t.mu.Lock()
		for id, ch := range t.subs {
			delete(t.subs, id)
			close(ch)
		}
		t.mu.Unlock()
	})
}
