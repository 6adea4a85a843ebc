package dashboard

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// Fetcher retrieves a decoded weather payload for a query. Implemented by relayclient.Client.
type Fetcher interface {
	Fetch(ctx context.Context, q models.Query) (*models.WeatherPayload, error)
}

// Controller owns the UIState and issues a fetch whenever the committed
// location or unit changes. Only the most recently issued fetch may update
// the payload, error or loading flag; older completions are dropped.
type Controller struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu      sync.Mutex
	state   UIState
	baseCtx context.Context
	latest  uint64
	cancel  context.CancelFunc

	wg sync.WaitGroup
}

// NewController returns a controller whose search box and committed location
// both start at location.
func NewController(fetcher Fetcher, logger *zap.Logger, location string, unit models.UnitPreference) *Controller {
	return &Controller{
		fetcher: fetcher,
		logger:  logger,
		baseCtx: context.Background(),
		state: UIState{
			SearchText:        location,
			CommittedLocation: location,
			Unit:              unit,
		},
	}
}

// Start issues the initial fetch. ctx bounds every fetch the controller issues.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseCtx = ctx
	c.issueLocked()
}

// SetSearchText records the search box contents.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchTextChanged(text)
}

// SubmitSearch sets the search text and commits it, fetching if the location changed.
// Reports whether a fetch was issued.
func (c *Controller) SubmitSearch(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchTextChanged(text)
	if !c.state.SearchSubmitted() {
		return false
	}
	c.issueLocked()
	return true
}

// SetUnit selects the display unit, fetching if it changed. Reports whether a fetch was issued.
func (c *Controller) SetUnit(unit models.UnitPreference) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.UnitChanged(unit) {
		return false
	}
	c.issueLocked()
	return true
}

// ToggleExpanded flips the outlook section.
func (c *Controller) ToggleExpanded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ExpandToggled()
}

// Snapshot returns a copy of the current state. The payload is shared and must not be modified.
func (c *Controller) Snapshot() UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every issued fetch has completed.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// issueLocked starts a fetch for the current query and supersedes any fetch in flight.
func (c *Controller) issueLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.latest++
	id := c.latest
	query := c.state.Query()
	c.state.FetchStarted()

	corrID := uuid.New().String()
	ctx, cancel := context.WithCancel(observability.WithCorrelationID(c.baseCtx, corrID))
	c.cancel = cancel

	c.wg.Add(1)
	go c.run(ctx, cancel, id, query, corrID)
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, id uint64, query models.Query, corrID string) {
	defer c.wg.Done()
	defer cancel()

	payload, err := c.fetcher.Fetch(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.latest {
		c.logger.Debug("discarding superseded weather response",
			zap.Uint64("request_id", id),
			zap.Uint64("latest_request_id", c.latest),
			zap.String("correlation_id", corrID))
		return
	}
	defer c.state.FetchFinished()

	if err != nil {
		c.logger.Error("weather fetch failed",
			zap.String("location", query.Location),
			zap.String("unit", string(query.Unit)),
			zap.String("correlation_id", corrID),
			zap.Error(err))
		c.state.FetchFailed()
		return
	}
	c.state.FetchSucceeded(payload)
}
