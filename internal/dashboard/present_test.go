package dashboard

import (
	"fmt"
	"testing"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

func f(v float64) *float64 { return &v }

// TestIconFor verifies the priority-ordered, case-insensitive condition mapping.
func TestIconFor(t *testing.T) {
	tests := []struct {
		label string
		want  Icon
	}{
		{"Sunny", IconSun},
		{"Clear", IconSun},
		{"Rain, Partially cloudy", IconRain},
		{"Showers", IconRain},
		{"SNOW", IconSnow},
		{"Flurries", IconSnow},
		{"Thunderstorm", IconLightning},
		{"Lightning nearby", IconLightning},
		{"Fog", IconFog},
		{"Mist", IconFog},
		{"Haze", IconFog},
		{"Drizzle", IconDrizzle},
		{"Overcast", IconCloudy},
		{"Partially cloudy", IconCloudy},
		{"Cloudy", IconCloudy},
		{"Clear, Rain", IconSun},
		{"Freezing Drizzle/Freezing Rain", IconRain},
		{"", IconSun},
		{"Volcanic ash", IconSun},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := IconFor(tt.label); got != tt.want {
				t.Errorf("IconFor(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

// TestIconTitle verifies display names.
func TestIconTitle(t *testing.T) {
	if got := IconLightning.Title(); got != "Lightning" {
		t.Errorf("Title() = %q, want Lightning", got)
	}
}

// TestFormatDate verifies long and short day formats.
func TestFormatDate(t *testing.T) {
	if got := FormatDate("2024-05-06"); got != "Monday, May 6" {
		t.Errorf("FormatDate() = %q, want Monday, May 6", got)
	}
	if got := FormatDate("2024-12-25"); got != "Wednesday, Dec 25" {
		t.Errorf("FormatDate() = %q", got)
	}
	if got := DayOfWeek("2024-05-06"); got != "Mon" {
		t.Errorf("DayOfWeek() = %q, want Mon", got)
	}
	for _, bad := range []string{"", "tomorrow", "2024-13-01"} {
		if FormatDate(bad) != "" || DayOfWeek(bad) != "" {
			t.Errorf("unparseable %q should format as empty", bad)
		}
	}
}

// TestFormatHour verifies 12-hour labels, including the midnight and noon edges.
func TestFormatHour(t *testing.T) {
	tests := map[string]string{
		"00:00:00": "12AM",
		"03:00:00": "3AM",
		"11:00:00": "11AM",
		"12:00:00": "12PM",
		"14:00:00": "2PM",
		"23:00:00": "11PM",
		"":         "",
		"noon":     "",
		"25:00:00": "",
	}
	for in, want := range tests {
		if got := FormatHour(in); got != want {
			t.Errorf("FormatHour(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRound verifies half-up rounding, including negative halves.
func TestRound(t *testing.T) {
	tests := map[float64]float64{2.5: 3, 2.4: 2, -2.5: -2, -2.6: -3, 0.5: 1, -0.5: 0, 57.3: 57}
	for in, want := range tests {
		if got := Round(in); got != want {
			t.Errorf("Round(%v) = %v, want %v", in, got, want)
		}
	}
	if got := formatRounded(f(-0.4)); got != "0" {
		t.Errorf("formatRounded(-0.4) = %q, want 0", got)
	}
	if got := formatRounded(nil); got != "--" {
		t.Errorf("formatRounded(nil) = %q, want --", got)
	}
}

// TestCurrentOf verifies per-field fallback from currentConditions to days[0].
func TestCurrentOf(t *testing.T) {
	day := models.Day{Temp: f(60), FeelsLike: f(58), Humidity: f(70), WindSpeed: f(12), Conditions: "Rain"}

	t.Run("no current conditions", func(t *testing.T) {
		cur := CurrentOf(&models.WeatherPayload{Days: []models.Day{day}})
		if *cur.Temp != 60 || *cur.FeelsLike != 58 || *cur.Humidity != 70 || *cur.WindSpeed != 12 || cur.Conditions != "Rain" {
			t.Errorf("CurrentOf() = %+v, want days[0] values", cur)
		}
	})

	t.Run("partial current conditions", func(t *testing.T) {
		p := &models.WeatherPayload{
			CurrentConditions: &models.Conditions{Temp: f(0), Conditions: "Clear"},
			Days:              []models.Day{day},
		}
		cur := CurrentOf(p)
		if *cur.Temp != 0 {
			t.Errorf("Temp = %v, want 0 from currentConditions", *cur.Temp)
		}
		if cur.Conditions != "Clear" {
			t.Errorf("Conditions = %q, want Clear", cur.Conditions)
		}
		if *cur.WindSpeed != 12 || *cur.Humidity != 70 {
			t.Errorf("missing fields not taken from days[0]: %+v", cur)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		cur := CurrentOf(&models.WeatherPayload{})
		if cur.Temp != nil || cur.Conditions != "" {
			t.Errorf("CurrentOf(empty) = %+v", cur)
		}
		_ = CurrentOf(nil)
	})
}

func hoursOf(n int) []models.Conditions {
	hours := make([]models.Conditions, n)
	for i := range hours {
		hours[i] = models.Conditions{Datetime: fmt.Sprintf("%02d:00:00", i)}
	}
	return hours
}

// TestHourlyStrip verifies every third hour from index 0, capped at seven.
func TestHourlyStrip(t *testing.T) {
	strip := HourlyStrip(hoursOf(24))
	if len(strip) != 7 {
		t.Fatalf("len = %d, want 7", len(strip))
	}
	for i, h := range strip {
		if want := fmt.Sprintf("%02d:00:00", i*3); h.Datetime != want {
			t.Errorf("strip[%d] = %s, want %s", i, h.Datetime, want)
		}
	}
	if got := len(HourlyStrip(hoursOf(7))); got != 3 {
		t.Errorf("len(HourlyStrip(7 hours)) = %d, want 3", got)
	}
	if HourlyStrip(nil) != nil {
		t.Error("HourlyStrip(nil) should be empty")
	}
}

// TestOutlook verifies days[1..5] and short payloads.
func TestOutlook(t *testing.T) {
	days := make([]models.Day, 15)
	for i := range days {
		days[i].Datetime = fmt.Sprintf("2024-05-%02d", i+6)
	}
	out := Outlook(days)
	if len(out) != 5 || out[0].Datetime != "2024-05-07" || out[4].Datetime != "2024-05-11" {
		t.Errorf("Outlook() = %+v", out)
	}
	if got := len(Outlook(days[:3])); got != 2 {
		t.Errorf("len(Outlook(3 days)) = %d, want 2", got)
	}
	if Outlook(days[:1]) != nil {
		t.Error("Outlook(1 day) should be empty")
	}
}

// TestWindUnitAndDelays verifies unit suffixes and animation timing.
func TestWindUnitAndDelays(t *testing.T) {
	if WindUnit(models.Fahrenheit) != "mph" || WindUnit(models.Celsius) != "km/h" {
		t.Error("WindUnit mismatch")
	}
	if got := cssSeconds(HourlyDelay(3)); got != "1.2s" {
		t.Errorf("HourlyDelay(3) = %s, want 1.2s", got)
	}
	if got := cssSeconds(OutlookDelay(2, false)); got != "1.2s" {
		t.Errorf("OutlookDelay(2, collapsed) = %s, want 1.2s", got)
	}
	if got := cssSeconds(OutlookDelay(2, true)); got != "0.2s" {
		t.Errorf("OutlookDelay(2, expanded) = %s, want 0.2s", got)
	}
	if !ShouldSpin("Mostly SUNNY") || ShouldSpin("Clear") {
		t.Error("ShouldSpin mismatch")
	}
}
