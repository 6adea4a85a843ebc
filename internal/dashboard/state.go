// Package dashboard holds the dashboard's single UI state, the controller that
// drives relay fetches from it, and the presentation rules used to render it.
package dashboard

import "github.com/kjstillabower/weather-dashboard/internal/models"

// FetchFailedMessage is shown in place of any fetch failure detail.
const FetchFailedMessage = "Failed to fetch weather data. Please try again."

// UIState is everything the dashboard page renders from. It is mutated only
// through the transition methods below, always under the controller's lock.
type UIState struct {
	SearchText        string                 `json:"searchText"`
	CommittedLocation string                 `json:"committedLocation"`
	Unit              models.UnitPreference  `json:"unit"`
	IsExpanded        bool                   `json:"isExpanded"`
	Payload           *models.WeatherPayload `json:"payload"`
	IsLoading         bool                   `json:"isLoading"`
	Error             string                 `json:"error,omitempty"`
}

// Query returns the lookup the current state calls for.
func (s *UIState) Query() models.Query {
	return models.Query{Location: s.CommittedLocation, Unit: s.Unit}
}

// SearchTextChanged records the text in the search box. Never fetches.
func (s *UIState) SearchTextChanged(text string) {
	s.SearchText = text
}

// SearchSubmitted commits the search text. Reports whether the committed location changed.
func (s *UIState) SearchSubmitted() bool {
	if s.SearchText == s.CommittedLocation {
		return false
	}
	s.CommittedLocation = s.SearchText
	return true
}

// UnitChanged selects a unit. Reports whether it differs from the previous one.
func (s *UIState) UnitChanged(unit models.UnitPreference) bool {
	if s.Unit == unit {
		return false
	}
	s.Unit = unit
	return true
}

// ExpandToggled flips the outlook section. Never fetches.
func (s *UIState) ExpandToggled() {
	s.IsExpanded = !s.IsExpanded
}

// FetchStarted marks a fetch in progress and clears any previous error.
func (s *UIState) FetchStarted() {
	s.IsLoading = true
	s.Error = ""
}

// FetchSucceeded replaces the payload wholesale.
func (s *UIState) FetchSucceeded(p *models.WeatherPayload) {
	s.Payload = p
}

// FetchFailed sets the user-facing error. The previous payload is kept.
func (s *UIState) FetchFailed() {
	s.Error = FetchFailedMessage
}

// FetchFinished clears the loading flag. Runs on every completion of the current fetch.
func (s *UIState) FetchFinished() {
	s.IsLoading = false
}
