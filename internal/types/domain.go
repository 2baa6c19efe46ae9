package types

import "time"

// FavoriteCity is a bookmarked city. CityName is the natural key: saving the
// same name again refreshes the stored coordinates and timestamp.
type FavoriteCity struct {
	ID           string    `json:"id"`
	CityName     string    `json:"city_name" validate:"required,max=120"`
	Country      string    `json:"country,omitempty" validate:"omitempty,len=2"`
	Latitude     float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64   `json:"longitude" validate:"gte=-180,lte=180"`
	FromLocation bool      `json:"from_location"`
	LastUpdate   time.Time `json:"last_update"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName returns "City, CC", or just the city when the country is unknown.
func (f FavoriteCity) FullName() string {
	if f.Country == "" {
		return f.CityName
	}
	return f.CityName + ", " + f.Country
}

// Location returns the lookup target for this favorite.
func (f FavoriteCity) Location() Location {
	return Location{City: f.CityName, Lat: f.Latitude, Lon: f.Longitude}
}

// NotificationSubscription is membership of a city in the set of cities that
// receive the daily notification. The row exists only while enabled.
type NotificationSubscription struct {
	City      string    `json:"city"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	NextRunAt time.Time `json:"next_run_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Location returns the lookup target for this subscription.
func (s NotificationSubscription) Location() Location {
	return Location{City: s.City, Lat: s.Latitude, Lon: s.Longitude}
}

// AdviceSource records which producer generated a piece of advice.
type AdviceSource string

const (
	AdviceSourceRemote AdviceSource = "remote"
	AdviceSourceLocal  AdviceSource = "local"
)

// Notification is the daily message for one city, handed to a presenter.
type Notification struct {
	ID           string       `json:"id"`
	City         string       `json:"city"`
	Title        string       `json:"title"`
	Body         string       `json:"body"`
	Advice       string       `json:"advice,omitempty"`
	AdviceSource AdviceSource `json:"advice_source,omitempty"`
	Outdoor      bool         `json:"outdoor"`
	TemperatureC float64      `json:"temperature"`
	IconURL      string       `json:"icon_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
