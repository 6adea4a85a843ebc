package models

// UnitPreference is the display unit system, carried on the wire as its marker string.
type UnitPreference string

const (
	Fahrenheit UnitPreference = "°F"
	Celsius    UnitPreference = "°C"
)

// Unit groups understood by the provider.
const (
	UnitGroupUS     = "us"
	UnitGroupMetric = "metric"
)

// UnitGroup maps a unit marker to the provider's unitGroup token.
// Only the exact Fahrenheit marker selects "us"; anything else, including "", is metric.
func UnitGroup(marker string) string {
	if marker == string(Fahrenheit) {
		return UnitGroupUS
	}
	return UnitGroupMetric
}

// Query is a single location lookup. Immutable once issued.
type Query struct {
	Location string
	Unit     UnitPreference
}

// UnitGroup returns the provider unitGroup for the query's unit.
func (q Query) UnitGroup() string {
	return UnitGroup(string(q.Unit))
}

// WeatherPayload is the subset of the provider timeline document the dashboard reads.
// Numeric fields are pointers so a missing value is not confused with zero.
type WeatherPayload struct {
	ResolvedAddress   string      `json:"resolvedAddress"`
	Address           string      `json:"address,omitempty"`
	Timezone          string      `json:"timezone,omitempty"`
	CurrentConditions *Conditions `json:"currentConditions,omitempty"`
	Days              []Day       `json:"days"`
}

// Conditions is a provider conditions record (current conditions or one hour).
type Conditions struct {
	Datetime   string   `json:"datetime,omitempty"`
	Temp       *float64 `json:"temp,omitempty"`
	FeelsLike  *float64 `json:"feelslike,omitempty"`
	Humidity   *float64 `json:"humidity,omitempty"`
	WindSpeed  *float64 `json:"windspeed,omitempty"`
	Conditions string   `json:"conditions,omitempty"`
}

// Day is one entry of the provider's days sequence.
type Day struct {
	Datetime   string       `json:"datetime"`
	Temp       *float64     `json:"temp,omitempty"`
	TempMax    *float64     `json:"tempmax,omitempty"`
	TempMin    *float64     `json:"tempmin,omitempty"`
	FeelsLike  *float64     `json:"feelslike,omitempty"`
	Humidity   *float64     `json:"humidity,omitempty"`
	WindSpeed  *float64     `json:"windspeed,omitempty"`
	Conditions string       `json:"conditions,omitempty"`
	Hours      []Conditions `json:"hours,omitempty"`
}
