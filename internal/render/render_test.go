package render

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/i474232898/sunnyweather/internal/sky"
	"github.com/i474232898/sunnyweather/internal/weather"
	"github.com/i474232898/sunnyweather/internal/weather/weathertest"
)

func TestProjectScenario(t *testing.T) {
	model, err := Project(weathertest.Snapshot(3), "Beijing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantNow := Now{
		PlaceName:   "Beijing",
		CurrentTemp: "24 °C",
		CurrentSky:  "Partly Cloudy",
		CurrentAQI:  "Air Index 45",
		Background:  "bg_partly_cloudy_day",
	}
	if model.Now != wantNow {
		t.Fatalf("expected now %+v, got %+v", wantNow, model.Now)
	}

	wantRows := []ForecastRow{
		{Date: "2024-05-01", Icon: "ic_clear_day", Info: "Clear", TempRange: "10 ~ 21 °C"},
		{Date: "2024-05-02", Icon: "ic_cloudy", Info: "Overcast", TempRange: "11 ~ 22 °C"},
		{Date: "2024-05-03", Icon: "ic_light_rain", Info: "Light Rain", TempRange: "12 ~ 23 °C"},
	}
	if !reflect.DeepEqual(model.Forecast, wantRows) {
		t.Fatalf("expected rows %+v, got %+v", wantRows, model.Forecast)
	}

	wantLife := LifeIndex{ColdRisk: "Low risk", Dressing: "Light jacket", Ultraviolet: "Moderate", CarWashing: "Suitable"}
	if model.LifeIndex != wantLife {
		t.Fatalf("expected life index %+v, got %+v", wantLife, model.LifeIndex)
	}
}

func TestProjectRowCountMatchesInput(t *testing.T) {
	for _, days := range []int{0, 1, 5, 15} {
		model, err := Project(weathertest.Snapshot(days), "")
		if err != nil {
			t.Fatalf("days=%d: unexpected error: %v", days, err)
		}
		if len(model.Forecast) != days {
			t.Fatalf("days=%d: expected %d rows, got %d", days, days, len(model.Forecast))
		}
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	snap := weathertest.Snapshot(5)

	a, err := Project(snap, "Shanghai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Project(snap, "Shanghai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical models, got %+v and %+v", a, b)
	}
}

func TestProjectPreservesSourceOrder(t *testing.T) {
	snap := weathertest.Snapshot(3)
	snap.Daily.Skycon[0], snap.Daily.Skycon[2] = snap.Daily.Skycon[2], snap.Daily.Skycon[0]

	model, err := Project(snap, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Forecast[0].Date != "2024-05-03" || model.Forecast[2].Date != "2024-05-01" {
		t.Fatalf("rows must follow input order, got %+v", model.Forecast)
	}
}

func TestProjectUnknownSkyCode(t *testing.T) {
	t.Run("realtime", func(t *testing.T) {
		snap := weathertest.Snapshot(1)
		snap.Realtime.Skycon = "SUNNY"
		_, err := Project(snap, "")
		if !errors.Is(err, sky.ErrUnknownCode) {
			t.Fatalf("expected ErrUnknownCode, got %v", err)
		}
	})

	t.Run("forecast", func(t *testing.T) {
		snap := weathertest.Snapshot(3)
		snap.Daily.Skycon[1].Value = "TORNADO"
		_, err := Project(snap, "")
		if !errors.Is(err, sky.ErrUnknownCode) {
			t.Fatalf("expected ErrUnknownCode, got %v", err)
		}
		if !strings.Contains(err.Error(), "forecast[1]") {
			t.Fatalf("expected error to name the row, got %v", err)
		}
	})
}

func TestProjectEmptyLifeIndex(t *testing.T) {
	tests := []struct {
		name  string
		clear func(li *weather.LifeIndex)
	}{
		{"coldRisk", func(li *weather.LifeIndex) { li.ColdRisk = nil }},
		{"dressing", func(li *weather.LifeIndex) { li.Dressing = []weather.LifeDescription{} }},
		{"ultraviolet", func(li *weather.LifeIndex) { li.Ultraviolet = nil }},
		{"carWashing", func(li *weather.LifeIndex) { li.CarWashing = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := weathertest.Snapshot(2)
			tt.clear(&snap.Daily.LifeIndex)

			_, err := Project(snap, "")
			if !errors.Is(err, ErrEmptyLifeIndex) {
				t.Fatalf("expected ErrEmptyLifeIndex, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.name) {
				t.Fatalf("expected error to name %s, got %v", tt.name, err)
			}
		})
	}
}

func TestProjectMisalignedForecast(t *testing.T) {
	snap := weathertest.Snapshot(3)
	snap.Daily.Temperature = snap.Daily.Temperature[:2]

	_, err := Project(snap, "")
	if !errors.Is(err, ErrMisalignedForecast) {
		t.Fatalf("expected ErrMisalignedForecast, got %v", err)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{23.6, 24},
		{45.2, 45},
		{23.5, 24},
		{23.49, 23},
		{0, 0},
		{-0.4, 0},
		{-0.5, 0},
		{-2.5, -2},
		{-2.6, -3},
		{0.49999999999999994, 0},
		{-0.49999999999999994, 0},
	}

	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWriteText(t *testing.T) {
	model, err := Project(weathertest.Snapshot(2), "Beijing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := model.WriteText(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Beijing", "24 °C", "Air Index 45", "2024-05-02", "Light jacket"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
}
