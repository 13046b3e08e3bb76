package screen

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown screen ids.
var ErrNotFound = errors.New("screen not found")

// Registry owns the open screens of the process.
type Registry struct {
	mu      sync.RWMutex
	screens map[string]*Controller
	fetcher Fetcher
	logger  *zap.Logger
}

// NewRegistry creates an empty registry whose controllers fetch with fetcher.
func NewRegistry(fetcher Fetcher, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		screens: make(map[string]*Controller),
		fetcher: fetcher,
		logger:  logger,
	}
}

// Open creates a controller with a fresh id and applies params to it.
func (r *Registry) Open(params LaunchParams) *Controller {
	c := NewController(uuid.NewString(), r.fetcher, r.logger)
	c.Launch(params)

	r.mu.Lock()
	r.screens[c.ID()] = c
	n := len(r.screens)
	r.mu.Unlock()

	r.logger.Info("screen opened",
		zap.String("screen", c.ID()),
		zap.String("place", params.PlaceName),
		zap.Int("open_screens", n))
	return c
}

// Get returns the controller for id.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.screens[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Close removes the screen and closes its controller.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	c, ok := r.screens[id]
	delete(r.screens, id)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	c.Close()
	r.logger.Info("screen closed", zap.String("screen", id))
	return nil
}

// Each calls fn for every open screen. fn runs without the registry lock held.
func (r *Registry) Each(fn func(c *Controller)) {
	r.mu.RLock()
	list := make([]*Controller, 0, len(r.screens))
	for _, c := range r.screens {
		list = append(list, c)
	}
	r.mu.RUnlock()

	for _, c := range list {
		fn(c)
	}
}

// Len returns the number of open screens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.screens)
}

// CloseAll closes every open screen.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	list := r.screens
	r.screens = make(map[string]*Controller)
	r.mu.Unlock()

	for _, c := range list {
		c.Close()
	}
}
