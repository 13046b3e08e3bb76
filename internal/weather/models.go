package weather

import (
	"time"

	"github.com/i474232898/sunnyweather/internal/sky"
)

// Location identifies the point a snapshot was fetched for.
// Coordinates are kept as the strings the client supplied; empty values are
// passed through to the provider untouched.
type Location struct {
	Lng string `json:"lng"`
	Lat string `json:"lat"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.Lng + "," + l.Lat
}

// Snapshot is one complete weather reading: current conditions plus the
// multi-day forecast. A refresh replaces it wholesale.
type Snapshot struct {
	Realtime Realtime `json:"realtime"`
	Daily    Daily    `json:"daily"`
}

// Realtime holds current conditions.
type Realtime struct {
	Temperature float64    `json:"temperature"` // °C
	Skycon      sky.Code   `json:"skycon"`
	AirQuality  AirQuality `json:"air_quality"`
}

type AirQuality struct {
	AQI AQI `json:"aqi"`
}

// AQI carries the air quality index; CHN is the China national standard value.
type AQI struct {
	CHN float64 `json:"chn"`
}

// Daily is the multi-day forecast. Skycon and Temperature are index-aligned:
// entry i of both describes the same calendar day.
type Daily struct {
	Skycon      []DailySkycon      `json:"skycon"`
	Temperature []DailyTemperature `json:"temperature"`
	LifeIndex   LifeIndex          `json:"life_index"`
}

type DailySkycon struct {
	Date  time.Time `json:"date"`
	Value sky.Code  `json:"value"`
}

type DailyTemperature struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// LifeIndex groups the lifestyle advice categories, one entry per forecast day.
type LifeIndex struct {
	ColdRisk    []LifeDescription `json:"cold_risk"`
	Dressing    []LifeDescription `json:"dressing"`
	Ultraviolet []LifeDescription `json:"ultraviolet"`
	CarWashing  []LifeDescription `json:"car_washing"`
}

type LifeDescription struct {
	Desc string `json:"desc"`
}

// Record is a stored snapshot together with where and when it was fetched.
type Record struct {
	Location  Location  `json:"location"`
	FetchedAt time.Time `json:"fetched_at"` // always UTC
	Provider  string    `json:"provider"`
	Snapshot  Snapshot  `json:"snapshot"`
}
