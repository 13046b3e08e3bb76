// Package render turns a weather snapshot into the display-ready model the
// client draws without further lookups or formatting.
package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/i474232898/sunnyweather/internal/sky"
	"github.com/i474232898/sunnyweather/internal/weather"
)

// DateLayout is the layout of ForecastRow.Date.
const DateLayout = "2006-01-02"

var (
	// ErrEmptyLifeIndex is returned when a life index category has no entries.
	ErrEmptyLifeIndex = errors.New("life index category is empty")
	// ErrMisalignedForecast is returned when the daily temperature series is
	// shorter than the daily skycon series.
	ErrMisalignedForecast = errors.New("daily skycon and temperature are not aligned")
)

// Model is the fully resolved view of a snapshot.
type Model struct {
	Now       Now           `json:"now"`
	Forecast  []ForecastRow `json:"forecast"`
	LifeIndex LifeIndex     `json:"life_index"`
}

// Now is the current conditions block.
type Now struct {
	PlaceName   string       `json:"place_name"`
	CurrentTemp string       `json:"current_temp"`
	CurrentSky  string       `json:"current_sky"`
	CurrentAQI  string       `json:"current_aqi"`
	Background  sky.Resource `json:"background"`
}

// ForecastRow is one forecast day.
type ForecastRow struct {
	Date      string       `json:"date"`
	Icon      sky.Resource `json:"icon"`
	Info      string       `json:"info"`
	TempRange string       `json:"temp_range"`
}

// LifeIndex holds the first (today's) description of each category.
type LifeIndex struct {
	ColdRisk    string `json:"cold_risk"`
	Dressing    string `json:"dressing"`
	Ultraviolet string `json:"ultraviolet"`
	CarWashing  string `json:"car_washing"`
}

// Project builds the display model for snapshot. It is a pure function of its
// arguments. Forecast rows keep the order of daily.skycon; dates are
// formatted in the offset carried by each date.
func Project(snapshot weather.Snapshot, placeName string) (Model, error) {
	rt := snapshot.Realtime

	current, err := sky.Classify(rt.Skycon)
	if err != nil {
		return Model{}, fmt.Errorf("realtime: %w", err)
	}

	forecast, err := projectForecast(snapshot.Daily)
	if err != nil {
		return Model{}, err
	}

	life, err := projectLifeIndex(snapshot.Daily.LifeIndex)
	if err != nil {
		return Model{}, err
	}

	return Model{
		Now: Now{
			PlaceName:   placeName,
			CurrentTemp: Temperature(rt.Temperature),
			CurrentSky:  current.Info,
			CurrentAQI:  "Air Index " + strconv.Itoa(Round(rt.AirQuality.AQI.CHN)),
			Background:  current.Background,
		},
		Forecast:  forecast,
		LifeIndex: life,
	}, nil
}

func projectForecast(daily weather.Daily) ([]ForecastRow, error) {
	if len(daily.Temperature) < len(daily.Skycon) {
		return nil, fmt.Errorf("%w: %d skycon entries, %d temperature entries",
			ErrMisalignedForecast, len(daily.Skycon), len(daily.Temperature))
	}

	rows := make([]ForecastRow, 0, len(daily.Skycon))
	for i, s := range daily.Skycon {
		d, err := sky.Classify(s.Value)
		if err != nil {
			return nil, fmt.Errorf("forecast[%d]: %w", i, err)
		}
		t := daily.Temperature[i]
		rows = append(rows, ForecastRow{
			Date:      s.Date.Format(DateLayout),
			Icon:      d.Icon,
			Info:      d.Info,
			TempRange: fmt.Sprintf("%d ~ %d °C", Round(t.Min), Round(t.Max)),
		})
	}
	return rows, nil
}

func projectLifeIndex(li weather.LifeIndex) (LifeIndex, error) {
	var out LifeIndex
	categories := []struct {
		name    string
		entries []weather.LifeDescription
		dst     *string
	}{
		{"coldRisk", li.ColdRisk, &out.ColdRisk},
		{"dressing", li.Dressing, &out.Dressing},
		{"ultraviolet", li.Ultraviolet, &out.Ultraviolet},
		{"carWashing", li.CarWashing, &out.CarWashing},
	}
	for _, c := range categories {
		if len(c.entries) == 0 {
			return LifeIndex{}, fmt.Errorf("%w: %s", ErrEmptyLifeIndex, c.name)
		}
		*c.dst = c.entries[0].Desc
	}
	return out, nil
}

// Round rounds half up to the nearest integer: 23.5 -> 24, -2.5 -> -2.
func Round(v float64) int {
	f := math.Floor(v)
	if v-f >= 0.5 {
		f++
	}
	return int(f)
}

// Temperature formats a Celsius value the way the now block shows it.
func Temperature(v float64) string {
	return strconv.Itoa(Round(v)) + " °C"
}
