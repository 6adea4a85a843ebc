package dashboard

import (
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// View is the template model derived from a UIState snapshot on every render.
type View struct {
	SearchText     string
	Unit           string
	IsFahrenheit   bool
	IsLoading      bool
	Error          string
	IsExpanded     bool
	RefreshSeconds int

	// ShowPayload is false while loading or before the first successful fetch.
	ShowPayload bool
	Location    string
	Date        string
	Current     CurrentView
	Hourly      []HourView
	Outlook     []DayView
}

type CurrentView struct {
	Temp       string
	Conditions string
	Icon       Icon
	Spin       bool
	Wind       string
	Humidity   string
	FeelsLike  string
}

type HourView struct {
	Time   string
	Icon   Icon
	Temp   string
	Delay  string
	Bounce bool
}

type DayView struct {
	Day   string
	Icon  Icon
	High  string
	Low   string
	Delay string
}

// BuildView derives the page model. refresh is how often the page reloads while a fetch is running.
func BuildView(s UIState, refresh time.Duration) View {
	unit := string(s.Unit)
	v := View{
		SearchText:   s.SearchText,
		Unit:         unit,
		IsFahrenheit: s.Unit == models.Fahrenheit,
		IsLoading:    s.IsLoading,
		Error:        s.Error,
		IsExpanded:   s.IsExpanded,
	}
	if s.IsLoading {
		v.RefreshSeconds = int(refresh.Round(time.Second) / time.Second)
		if v.RefreshSeconds < 1 {
			v.RefreshSeconds = 1
		}
	}
	if s.Payload == nil || s.IsLoading {
		return v
	}

	p := s.Payload
	v.ShowPayload = true
	v.Location = p.ResolvedAddress
	if len(p.Days) > 0 {
		v.Date = FormatDate(p.Days[0].Datetime)
	}

	cur := CurrentOf(p)
	v.Current = CurrentView{
		Temp:       formatRounded(cur.Temp) + unit,
		Conditions: cur.Conditions,
		Icon:       IconFor(cur.Conditions),
		Spin:       ShouldSpin(cur.Conditions),
		Wind:       formatRounded(cur.WindSpeed) + " " + WindUnit(s.Unit),
		Humidity:   formatRounded(cur.Humidity) + "%",
		FeelsLike:  formatRounded(cur.FeelsLike) + unit,
	}

	if len(p.Days) > 0 {
		for i, h := range HourlyStrip(p.Days[0].Hours) {
			v.Hourly = append(v.Hourly, HourView{
				Time:   FormatHour(h.Datetime),
				Icon:   IconFor(h.Conditions),
				Temp:   formatRounded(h.Temp) + unit,
				Delay:  cssSeconds(HourlyDelay(i)),
				Bounce: i == 0,
			})
		}
	}

	for i, d := range Outlook(p.Days) {
		v.Outlook = append(v.Outlook, DayView{
			Day:   DayOfWeek(d.Datetime),
			Icon:  IconFor(d.Conditions),
			High:  formatRounded(d.TempMax) + unit,
			Low:   formatRounded(d.TempMin) + unit,
			Delay: cssSeconds(OutlookDelay(i, s.IsExpanded)),
		})
	}
	return v
}
