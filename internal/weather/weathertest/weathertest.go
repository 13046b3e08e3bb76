// Package weathertest provides snapshot fixtures for tests.
package weathertest

import (
	"time"

	"github.com/i474232898/sunnyweather/internal/sky"
	"github.com/i474232898/sunnyweather/internal/weather"
)

var dayCodes = []sky.Code{sky.ClearDay, sky.Cloudy, sky.LightRain, sky.LightSnow, sky.Fog, sky.Wind, sky.Hail}

// Snapshot returns a valid snapshot with the given number of forecast days,
// starting 2024-05-01 in UTC+8, with one entry per life index category.
func Snapshot(days int) weather.Snapshot {
	loc := time.FixedZone("CST", 8*60*60)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, loc)

	daily := weather.Daily{
		Skycon:      make([]weather.DailySkycon, 0, days),
		Temperature: make([]weather.DailyTemperature, 0, days),
		LifeIndex: weather.LifeIndex{
			ColdRisk:    []weather.LifeDescription{{Desc: "Low risk"}},
			Dressing:    []weather.LifeDescription{{Desc: "Light jacket"}},
			Ultraviolet: []weather.LifeDescription{{Desc: "Moderate"}},
			CarWashing:  []weather.LifeDescription{{Desc: "Suitable"}},
		},
	}
	for i := 0; i < days; i++ {
		daily.Skycon = append(daily.Skycon, weather.DailySkycon{
			Date:  start.AddDate(0, 0, i),
			Value: dayCodes[i%len(dayCodes)],
		})
		daily.Temperature = append(daily.Temperature, weather.DailyTemperature{
			Min: 10.4 + float64(i),
			Max: 20.5 + float64(i),
		})
	}

	return weather.Snapshot{
		Realtime: weather.Realtime{
			Temperature: 23.6,
			Skycon:      sky.PartlyCloudyDay,
			AirQuality:  weather.AirQuality{AQI: weather.AQI{CHN: 45.2}},
		},
		Daily: daily,
	}
}
