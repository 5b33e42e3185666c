// Package view holds the three-way view state machine. Exactly one
// view is current at any time; the tagged state is the single source
// of truth, there are no per-view visibility flags.
package view

import (
	"fmt"
	"sync"
)

// State enumerates the mutually exclusive views.
type State int

const (
	StateLogin State = iota
	StateRegister
	StateDashboard
)

func (s State) String() string {
	switch s {
	case StateLogin:
		return "login"
	case StateRegister:
		return "register"
	case StateDashboard:
		return "dashboard"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// allowed lists the legal transitions. There is deliberately no edge
// between Register and Dashboard in either direction.
var allowed = map[State][]State{
	StateLogin:     {StateRegister, StateDashboard},
	StateRegister:  {StateLogin},
	StateDashboard: {StateLogin},
}

// Listener observes committed transitions.
type Listener func(from, to State)

// Router is the view switch. The zero value starts at Login.
type Router struct {
	mu        sync.RWMutex
	state     State
	listeners []Listener
}

func NewRouter() *Router {
	return &Router{state: StateLogin}
}

// Current returns the visible view.
func (r *Router) Current() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Subscribe registers a transition listener. Listeners run on the
// transitioning goroutine after the state is committed.
func (r *Router) Subscribe(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// To switches to the target view, rejecting transitions the state
// machine does not define. Switching to the current view is a no-op.
func (r *Router) To(target State) error {
	r.mu.Lock()
	from := r.state
	if from == target {
		r.mu.Unlock()
		return nil
	}
	legal := false
	for _, next := range allowed[from] {
		if next == target {
			legal = true
			break
		}
	}
	if !legal {
		r.mu.Unlock()
		return fmt.Errorf("view transition %s -> %s not allowed", from, target)
	}
	r.state = target
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, l := range listeners {
		l(from, target)
	}
	return nil
}
