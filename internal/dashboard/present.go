package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// Icon identifies one of the condition glyphs.
type Icon string

const (
	IconSun       Icon = "sun"
	IconRain      Icon = "rain"
	IconSnow      Icon = "snow"
	IconLightning Icon = "lightning"
	IconFog       Icon = "fog"
	IconDrizzle   Icon = "drizzle"
	IconCloudy    Icon = "cloudy"
)

// iconRules are checked in order; the first rule with a matching substring wins.
var iconRules = []struct {
	icon    Icon
	needles []string
}{
	{IconSun, []string{"sunny", "clear"}},
	{IconRain, []string{"rain", "shower"}},
	{IconSnow, []string{"snow", "flurr"}},
	{IconLightning, []string{"thunder", "lightning"}},
	{IconFog, []string{"fog", "mist", "haz"}},
	{IconDrizzle, []string{"drizzle"}},
	{IconCloudy, []string{"cloud", "overcast", "part"}},
}

// IconFor picks the glyph for a provider conditions label. Matching is
// case-insensitive; unknown or empty labels get the sun.
func IconFor(label string) Icon {
	folded := cases.Fold().String(label)
	for _, rule := range iconRules {
		for _, needle := range rule.needles {
			if strings.Contains(folded, needle) {
				return rule.icon
			}
		}
	}
	return IconSun
}

// Title returns the icon's display name, e.g. "Lightning".
func (i Icon) Title() string {
	return cases.Title(language.English).String(string(i))
}

const dateLayout = "2006-01-02"

// FormatDate renders "2024-05-06" as "Monday, May 6". Unparseable input yields "".
func FormatDate(s string) string {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return ""
	}
	return t.Format("Monday, Jan 2")
}

// DayOfWeek renders "2024-05-06" as "Mon". Unparseable input yields "".
func DayOfWeek(s string) string {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return ""
	}
	return t.Format("Mon")
}

// FormatHour renders an "HH:MM:SS" hour as a 12-hour label: "14:00:00" is "2PM",
// "00:00:00" is "12AM". Empty or unparseable input yields "".
func FormatHour(s string) string {
	if s == "" {
		return ""
	}
	head, _, _ := strings.Cut(s, ":")
	hour, err := strconv.Atoi(head)
	if err != nil || hour < 0 || hour > 23 {
		return ""
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return strconv.Itoa(h12) + suffix
}

// Round rounds half up, so 2.5 becomes 3 and -2.5 becomes -2.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// formatRounded renders a rounded value, or "--" when the provider omitted it.
func formatRounded(v *float64) string {
	if v == nil {
		return "--"
	}
	r := Round(*v)
	if r == 0 {
		r = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(r, 'f', 0, 64)
}

// Current is the headline reading after falling back field by field from
// currentConditions to the first day.
type Current struct {
	Temp       *float64
	FeelsLike  *float64
	Humidity   *float64
	WindSpeed  *float64
	Conditions string
}

// CurrentOf resolves the headline reading. Each field prefers currentConditions
// and falls back to days[0] when absent.
func CurrentOf(p *models.WeatherPayload) Current {
	var cur Current
	if p == nil {
		return cur
	}
	if cc := p.CurrentConditions; cc != nil {
		cur = Current{
			Temp:       cc.Temp,
			FeelsLike:  cc.FeelsLike,
			Humidity:   cc.Humidity,
			WindSpeed:  cc.WindSpeed,
			Conditions: cc.Conditions,
		}
	}
	if len(p.Days) == 0 {
		return cur
	}
	today := p.Days[0]
	if cur.Temp == nil {
		cur.Temp = today.Temp
	}
	if cur.FeelsLike == nil {
		cur.FeelsLike = today.FeelsLike
	}
	if cur.Humidity == nil {
		cur.Humidity = today.Humidity
	}
	if cur.WindSpeed == nil {
		cur.WindSpeed = today.WindSpeed
	}
	if cur.Conditions == "" {
		cur.Conditions = today.Conditions
	}
	return cur
}

const (
	hourlyStride  = 3
	hourlyEntries = 7
	outlookDays   = 5
)

// HourlyStrip keeps every third hour starting at midnight, at most seven entries.
func HourlyStrip(hours []models.Conditions) []models.Conditions {
	var strip []models.Conditions
	for i := 0; i < len(hours) && len(strip) < hourlyEntries; i += hourlyStride {
		strip = append(strip, hours[i])
	}
	return strip
}

// Outlook returns the five days after today (fewer if the payload is short).
// Its content does not depend on whether the section is expanded.
func Outlook(days []models.Day) []models.Day {
	if len(days) < 2 {
		return nil
	}
	end := 1 + outlookDays
	if end > len(days) {
		end = len(days)
	}
	return days[1:end]
}

// WindUnit is the wind speed suffix for the selected unit system.
func WindUnit(unit models.UnitPreference) string {
	if unit == models.Fahrenheit {
		return "mph"
	}
	return "km/h"
}

// HourlyDelay is the entry animation delay, in seconds, of hourly card i.
func HourlyDelay(i int) float64 {
	return 0.9 + 0.1*float64(i)
}

// OutlookDelay is the entry animation delay, in seconds, of outlook row i.
func OutlookDelay(i int, expanded bool) float64 {
	if expanded {
		return 0.1 * float64(i)
	}
	return 1.0 + 0.1*float64(i)
}

// ShouldSpin reports whether the headline icon rotates.
func ShouldSpin(label string) bool {
	return strings.Contains(cases.Fold().String(label), "sunny")
}

func cssSeconds(s float64) string {
	return fmt.Sprintf("%.1fs", s)
}
