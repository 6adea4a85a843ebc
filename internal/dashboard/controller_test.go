package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// fakeFetcher answers each query from a canned table. A query listed in gates
// blocks until its channel is closed, ignoring cancellation, to model a slow relay.
type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[models.Query]*models.WeatherPayload
	errs     map[models.Query]error
	gates    map[models.Query]chan struct{}
	queries  []models.Query
	corrIDs  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		payloads: map[models.Query]*models.WeatherPayload{},
		errs:     map[models.Query]error{},
		gates:    map[models.Query]chan struct{}{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, q models.Query) (*models.WeatherPayload, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.corrIDs = append(f.corrIDs, observability.CorrelationID(ctx))
	gate := f.gates[q]
	payload, err := f.payloads[q], f.errs[q]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if payload == nil {
		payload = &models.WeatherPayload{ResolvedAddress: q.Location}
	}
	return payload, nil
}

func (f *fakeFetcher) calls() []models.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Query(nil), f.queries...)
}

func q(loc string, unit models.UnitPreference) models.Query {
	return models.Query{Location: loc, Unit: unit}
}

// TestController_StartFetchesInitialQuery verifies the initial fetch and loading lifecycle.
func TestController_StartFetchesInitialQuery(t *testing.T) {
	ff := newFakeFetcher()
	gate := make(chan struct{})
	ff.gates[q("London,UK", models.Fahrenheit)] = gate
	c := NewController(ff, zap.NewNop(), "London,UK", models.Fahrenheit)

	c.Start(context.Background())
	if s := c.Snapshot(); !s.IsLoading || s.Error != "" {
		t.Errorf("after Start: IsLoading=%v Error=%q, want loading with no error", s.IsLoading, s.Error)
	}
	close(gate)
	c.Wait()

	s := c.Snapshot()
	if s.IsLoading {
		t.Error("IsLoading still true after fetch completed")
	}
	if s.Payload == nil || s.Payload.ResolvedAddress != "London,UK" {
		t.Errorf("Payload = %+v", s.Payload)
	}
	if calls := ff.calls(); len(calls) != 1 || calls[0] != q("London,UK", models.Fahrenheit) {
		t.Errorf("fetches = %v", calls)
	}
	if ff.corrIDs[0] == "" {
		t.Error("fetch context carries no correlation ID")
	}
}

// TestController_FetchOnlyOnChange verifies that searches and unit presses which
// leave (location, unit) unchanged issue no fetch, and toggling never fetches.
func TestController_FetchOnlyOnChange(t *testing.T) {
	ff := newFakeFetcher()
	c := NewController(ff, zap.NewNop(), "London,UK", models.Fahrenheit)
	c.Start(context.Background())
	c.Wait()

	if c.SubmitSearch("London,UK") {
		t.Error("SubmitSearch(same location) reported a fetch")
	}
	if c.SetUnit(models.Fahrenheit) {
		t.Error("SetUnit(same unit) reported a fetch")
	}
	c.ToggleExpanded()
	c.SetSearchText("Par")
	c.Wait()
	if n := len(ff.calls()); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
	if s := c.Snapshot(); !s.IsExpanded || s.SearchText != "Par" || s.CommittedLocation != "London,UK" {
		t.Errorf("state = %+v", s)
	}

	if !c.SetUnit(models.Celsius) {
		t.Error("SetUnit(new unit) did not fetch")
	}
	c.Wait()
	if !c.SubmitSearch("Paris") {
		t.Error("SubmitSearch(new location) did not fetch")
	}
	c.Wait()

	want := []models.Query{
		q("London,UK", models.Fahrenheit),
		q("London,UK", models.Celsius),
		q("Paris", models.Celsius),
	}
	got := ff.calls()
	if len(got) != len(want) {
		t.Fatalf("fetches = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fetch %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestController_FailureKeepsPayload verifies the error message, payload retention,
// cleared loading flag and logged detail after a failed fetch.
func TestController_FailureKeepsPayload(t *testing.T) {
	ff := newFakeFetcher()
	ff.errs[q("Atlantis", models.Fahrenheit)] = errors.New("relay failure: HTTP 500")
	core, logs := observer.New(zapcore.ErrorLevel)
	c := NewController(ff, zap.New(core), "London,UK", models.Fahrenheit)
	c.Start(context.Background())
	c.Wait()
	before := c.Snapshot().Payload

	c.SubmitSearch("Atlantis")
	c.Wait()

	s := c.Snapshot()
	if s.Error != "Failed to fetch weather data. Please try again." {
		t.Errorf("Error = %q", s.Error)
	}
	if s.Payload != before {
		t.Error("Payload changed after a failed fetch")
	}
	if s.IsLoading {
		t.Error("IsLoading still true after failure")
	}
	if logs.FilterMessage("weather fetch failed").Len() != 1 {
		t.Errorf("failure not logged: %v", logs.All())
	}

	// The next fetch clears the error when it starts.
	gate := make(chan struct{})
	ff.gates[q("Atlantis", models.Celsius)] = gate
	c.SetUnit(models.Celsius)
	if s := c.Snapshot(); s.Error != "" || !s.IsLoading {
		t.Errorf("after new fetch started: Error=%q IsLoading=%v", s.Error, s.IsLoading)
	}
	close(gate)
	c.Wait()
}

// TestController_StaleResponseDiscarded verifies that a slow superseded fetch
// cannot overwrite the result of a newer one.
func TestController_StaleResponseDiscarded(t *testing.T) {
	ff := newFakeFetcher()
	slow := make(chan struct{})
	ff.gates[q("Tokyo", models.Fahrenheit)] = slow
	ff.payloads[q("Tokyo", models.Fahrenheit)] = &models.WeatherPayload{ResolvedAddress: "Tokyo, Japan"}
	ff.payloads[q("Lima", models.Fahrenheit)] = &models.WeatherPayload{ResolvedAddress: "Lima, Peru"}

	core, logs := observer.New(zapcore.DebugLevel)
	c := NewController(ff, zap.New(core), "London,UK", models.Fahrenheit)
	c.Start(context.Background())
	c.Wait()

	c.SubmitSearch("Tokyo")
	c.SubmitSearch("Lima")

	// Lima completes first; Tokyo is still blocked.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := c.Snapshot()
		if s.Payload != nil && s.Payload.ResolvedAddress == "Lima, Peru" {
			if s.IsLoading {
				t.Error("IsLoading true after the latest fetch completed")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("latest fetch never applied: %+v", s)
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(slow)
	c.Wait()

	s := c.Snapshot()
	if s.Payload.ResolvedAddress != "Lima, Peru" {
		t.Errorf("Payload = %q, stale response overwrote the latest", s.Payload.ResolvedAddress)
	}
	if s.CommittedLocation != "Lima" || s.IsLoading || s.Error != "" {
		t.Errorf("state = %+v", s)
	}
	if logs.FilterMessage("discarding superseded weather response").Len() != 1 {
		t.Error("stale response discard not logged")
	}
}

// TestController_StaleFailureIgnored verifies that a superseded failure does not set the error.
func TestController_StaleFailureIgnored(t *testing.T) {
	ff := newFakeFetcher()
	slow := make(chan struct{})
	ff.gates[q("Nowhere", models.Fahrenheit)] = slow
	ff.errs[q("Nowhere", models.Fahrenheit)] = errors.New("boom")

	c := NewController(ff, zap.NewNop(), "Nowhere", models.Fahrenheit)
	c.Start(context.Background())
	c.SetUnit(models.Celsius)
	close(slow)
	c.Wait()

	s := c.Snapshot()
	if s.Error != "" {
		t.Errorf("Error = %q, stale failure leaked", s.Error)
	}
	if s.Payload == nil || s.Payload.ResolvedAddress != "Nowhere" {
		t.Errorf("Payload = %+v, want the Celsius result", s.Payload)
	}
}

// TestUIState_Transitions verifies the transition methods in isolation.
func TestUIState_Transitions(t *testing.T) {
	s := UIState{SearchText: "a", CommittedLocation: "a", Unit: models.Fahrenheit}

	s.SearchTextChanged("b")
	if s.CommittedLocation != "a" {
		t.Error("typing committed the location")
	}
	if !s.SearchSubmitted() || s.CommittedLocation != "b" {
		t.Errorf("SearchSubmitted() did not commit: %+v", s)
	}
	if s.SearchSubmitted() {
		t.Error("resubmitting the same text reported a change")
	}
	if s.UnitChanged(models.Fahrenheit) || !s.UnitChanged(models.Celsius) {
		t.Error("UnitChanged change detection wrong")
	}

	s.Error = "old"
	s.FetchStarted()
	if !s.IsLoading || s.Error != "" {
		t.Errorf("FetchStarted() = %+v", s)
	}
	p := &models.WeatherPayload{ResolvedAddress: "b"}
	s.FetchSucceeded(p)
	s.FetchFailed()
	s.FetchFinished()
	if s.Payload != p || s.Error != FetchFailedMessage || s.IsLoading {
		t.Errorf("after success, failure, finish: %+v", s)
	}
	if q := s.Query(); q.Location != "b" || q.Unit != models.Celsius {
		t.Errorf("Query() = %+v", q)
	}
}
