// Package screen holds the per-view refresh state: the launch location, at
// most one in-flight fetch, and the latest result handed to the client.
package screen

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/sunnyweather/internal/weather"
)

// ErrClosed is returned by Next once the controller has been closed.
var ErrClosed = errors.New("screen closed")

// Fetcher retrieves a snapshot for a coordinate pair. *weather.Service
// satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, lng, lat string) (weather.Snapshot, error)
}

// LaunchParams are the values a client opens a screen with. Missing values
// are empty strings.
type LaunchParams struct {
	LocationLng string `json:"location_lng"`
	LocationLat string `json:"location_lat"`
	PlaceName   string `json:"place_name"`
}

// Result is the outcome of one completed refresh.
type Result struct {
	Seq         uint64           `json:"seq"`
	Snapshot    weather.Snapshot `json:"snapshot"`
	Err         error            `json:"-"`
	CompletedAt time.Time        `json:"completed_at"`
}

// OK reports whether the refresh succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Event notifies the client that a refresh completed.
type Event struct {
	ScreenID string
	Result   Result
}

// State is a point-in-time copy of a controller's state.
type State struct {
	ID          string
	Params      LaunchParams
	Refreshing  bool
	LastResult  *Result
	LastSuccess *Result
}

// Controller orchestrates refreshes for one screen. It is Idle or
// Refreshing; Refresh while Refreshing is coalesced into the running fetch.
// Every completed fetch publishes exactly one Event into a single-slot
// channel, replacing an older event the client has not consumed yet.
type Controller struct {
	id      string
	fetcher Fetcher
	logger  *zap.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	params      LaunchParams
	refreshing  bool
	closed      bool
	seq         uint64
	last        *Result
	lastSuccess *Result

	events chan Event
}

// NewController creates an idle controller with empty launch params.
func NewController(id string, fetcher Fetcher, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		id:      id,
		fetcher: fetcher,
		logger:  logger.Named("screen").With(zap.String("screen", id)),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan Event, 1),
	}
}

// ID returns the screen identifier.
func (c *Controller) ID() string {
	return c.id
}

// Launch applies launch params. Each field is taken only while it is still
// empty: the first non-empty value wins and is kept for the controller's
// lifetime.
func (c *Controller) Launch(p LaunchParams) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.params.LocationLng == "" {
		c.params.LocationLng = p.LocationLng
	}
	if c.params.LocationLat == "" {
		c.params.LocationLat = p.LocationLat
	}
	if c.params.PlaceName == "" {
		c.params.PlaceName = p.PlaceName
	}
}

// Params returns the captured launch params.
func (c *Controller) Params() LaunchParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Refresh starts a fetch with the captured coordinates and returns true, or
// returns false without doing anything when a fetch is already running or
// the controller is closed. It never waits for the fetch.
func (c *Controller) Refresh() bool {
	c.mu.Lock()
	if c.closed || c.refreshing {
		c.mu.Unlock()
		return false
	}
	c.refreshing = true
	c.seq++
	seq := c.seq
	lng, lat := c.params.LocationLng, c.params.LocationLat
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("refresh started", zap.Uint64("seq", seq))
	go c.run(seq, lng, lat)
	return true
}

func (c *Controller) run(seq uint64, lng, lat string) {
	defer c.wg.Done()

	snap, err := c.fetcher.Fetch(c.ctx, lng, lat)
	res := Result{Seq: seq, Snapshot: snap, Err: err, CompletedAt: c.now().UTC()}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshing = false
	if c.closed {
		c.logger.Debug("refresh discarded after close", zap.Uint64("seq", seq))
		return
	}

	c.last = &res
	if err == nil {
		c.lastSuccess = &res
		c.logger.Debug("refresh completed", zap.Uint64("seq", seq))
	} else {
		c.logger.Warn("refresh failed", zap.Uint64("seq", seq), zap.Error(err))
	}
	c.publish(Event{ScreenID: c.id, Result: res})
}

// publish must be called with c.mu held; that makes it the only sender, so
// the send after draining cannot block.
func (c *Controller) publish(ev Event) {
	select {
	case c.events <- ev:
		return
	default:
	}
	select {
	case <-c.events:
	default:
	}
	c.events <- ev
}

// Events exposes the single-slot notification channel.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Next waits for and consumes the next event.
func (c *Controller) Next(ctx context.Context) (Event, error) {
	select {
	case ev := <-c.events:
		return ev, nil
	case <-c.ctx.Done():
		return Event{}, ErrClosed
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Refreshing reports whether a fetch is in flight.
func (c *Controller) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// State returns a copy of the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		ID:         c.id,
		Params:     c.params,
		Refreshing: c.refreshing,
	}
	if c.last != nil {
		r := *c.last
		st.LastResult = &r
	}
	if c.lastSuccess != nil {
		r := *c.lastSuccess
		st.LastSuccess = &r
	}
	return st
}

// Close cancels an in-flight fetch and waits for it to return. A fetch
// cancelled this way publishes no event. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.logger.Debug("screen closed")
}
