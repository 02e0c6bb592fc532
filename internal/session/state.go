package session

import "sync"

// Phase is the lifecycle position of the session for this process.
type Phase int

const (
	// PhaseUnauthenticated means no session, or a resolved "no user".
	PhaseUnauthenticated Phase = iota
	// PhasePending means a login or identity fetch is in flight.
	PhasePending
	// PhaseAuthenticated means an identity has been resolved.
	PhaseAuthenticated
	// PhaseError means the last operation failed with a retryable error.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseError:
		return "error"
	default:
		return "unauthenticated"
	}
}

// State is the observable session state. User is set only in
// PhaseAuthenticated, Err only in PhaseError.
type State struct {
	Phase Phase
	User  *CurrentUser
	Err   error
}

// holder owns the session state for one client. Transitions are driven
// exclusively by Client operations; each in-flight operation carries the
// sequence number it drew at issue time and may publish only while that
// number is still current. This gives last-write-wins by issuance order,
// regardless of response arrival order, and makes Close a hard stop: Close
// bumps the sequence past every in-flight operation.
type holder struct {
	mu        sync.Mutex
	state     State
	seq       uint64
	closed    bool
	listeners map[int]func(State)
	nextID    int
}

func newHolder() *holder {
	return &holder{
		state:     State{Phase: PhaseUnauthenticated},
		listeners: make(map[int]func(State)),
	}
}

func (h *holder) snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// subscribe registers a listener for every subsequent transition and
// returns its cancel function. Listeners run with the holder lock held so
// they observe transitions in order; they must not call back into the
// client.
func (h *holder) subscribe(fn func(State)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// begin opens a new operation: it supersedes any in-flight one, moves the
// state to Pending and returns the operation's sequence number. ok is false
// after Close.
func (h *holder) begin() (seq uint64, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, false
	}
	h.seq++
	h.set(State{Phase: PhasePending})
	return h.seq, true
}

// publish applies the outcome of operation seq. Superseded outcomes and
// outcomes arriving after Close are dropped.
func (h *holder) publish(seq uint64, s State) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || seq != h.seq {
		return false
	}
	h.set(s)
	return true
}

// reset forces the state unconditionally, superseding in-flight
// operations. Used by logout.
func (h *holder) reset(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.seq++
	h.set(s)
}

// close tears the holder down. Pending operations finish but publish
// nothing; no transition is observable after close returns.
func (h *holder) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.seq++
	h.listeners = make(map[int]func(State))
}

// set must be called with the lock held.
func (h *holder) set(s State) {
	h.state = s
	for _, fn := range h.listeners {
		fn(s)
	}
}
