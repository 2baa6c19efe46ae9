package forecasts

import (
	"fmt"
	"math"
	"time"

	"meteo/internal/types"
)

var frenchWeekdays = [...]string{
	time.Sunday:    "Dimanche",
	time.Monday:    "Lundi",
	time.Tuesday:   "Mardi",
	time.Wednesday: "Mercredi",
	time.Thursday:  "Jeudi",
	time.Friday:    "Vendredi",
	time.Saturday:  "Samedi",
}

var frenchMonths = [...]string{
	time.January:   "janvier",
	time.February:  "février",
	time.March:     "mars",
	time.April:     "avril",
	time.May:       "mai",
	time.June:      "juin",
	time.July:      "juillet",
	time.August:    "août",
	time.September: "septembre",
	time.October:   "octobre",
	time.November:  "novembre",
	time.December:  "décembre",
}

// Day is one local calendar day of forecast steps.
type Day struct {
	Date  string               `json:"date"` // YYYY-MM-DD in the forecast's zone
	Title string               `json:"title"`
	MinC  float64              `json:"min_temperature"`
	MaxC  float64              `json:"max_temperature"`
	Items []types.ForecastItem `json:"items"`
}

// DayTitle names the calendar day of t relative to now, both read in t's
// location: "Aujourd'hui", "Demain", otherwise e.g. "Lundi 17 juin".
func DayTitle(t, now time.Time) string {
	now = now.In(t.Location())
	if sameDay(t, now) {
		return "Aujourd'hui"
	}
	if sameDay(t, now.AddDate(0, 0, 1)) {
		return "Demain"
	}
	return fmt.Sprintf("%s %d %s", frenchWeekdays[t.Weekday()], t.Day(), frenchMonths[t.Month()])
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// GroupByDay splits forecast steps into consecutive local calendar days,
// keeping the input order. A nil loc means UTC.
func GroupByDay(items []types.ForecastItem, now time.Time, loc *time.Location) []Day {
	if loc == nil {
		loc = time.UTC
	}

	var days []Day
	for _, item := range items {
		t := item.Time().In(loc)
		date := t.Format(time.DateOnly)
		if n := len(days); n == 0 || days[n-1].Date != date {
			days = append(days, Day{
				Date:  date,
				Title: DayTitle(t, now),
				MinC:  math.Inf(1),
				MaxC:  math.Inf(-1),
			})
		}
		d := &days[len(days)-1]
		d.Items = append(d.Items, item)
		d.MinC = math.Min(d.MinC, item.Main.Temp)
		d.MaxC = math.Max(d.MaxC, item.Main.Temp)
	}
	return days
}

// ZoneFor returns a fixed zone for a UTC offset in seconds, as reported by
// the weather API.
func ZoneFor(offsetSeconds int) *time.Location {
	if offsetSeconds == 0 {
		return time.UTC
	}
	return time.FixedZone("", offsetSeconds)
}
