package store

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Controller owns the state of one admin. Dispatches are applied one at a time.
type Controller struct {
	admin string

	mu    sync.RWMutex
	state State
}

// NewController creates a controller holding the initial state
func NewController(admin string) *Controller {
	return &Controller{
		admin: admin,
		state: Initial(),
	}
}

// Admin returns the mobile number of the admin this controller belongs to
func (c *Controller) Admin() string {
	return c.admin
}

// Dispatch applies actions in order and returns the resulting state
func (c *Controller) Dispatch(actions ...Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range actions {
		c.state = Reduce(c.state, a)
		log.Debug().
			Str("admin", c.admin).
			Str("action", a.Type()).
			Msg("State updated")
	}
	return c.state.Clone()
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// Registry hands out one controller per admin
type Registry struct {
	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{controllers: make(map[string]*Controller)}
}

// Get returns the controller for admin, creating it on first use
func (r *Registry) Get(admin string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.controllers[admin]
	if !ok {
		c = NewController(admin)
		r.controllers[admin] = c
	}
	return c
}

// Len returns the number of admins with a dashboard
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
