package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/sunnyweather/internal/screen"
	"github.com/i474232898/sunnyweather/internal/store"
	"github.com/i474232898/sunnyweather/internal/weather"
	"github.com/i474232898/sunnyweather/internal/weather/weathertest"
)

type fakeProvider struct {
	mu   sync.Mutex
	snap weather.Snapshot
	err  error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Fetch(context.Context, weather.Location) (weather.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap, p.err
}

func (p *fakeProvider) set(snap weather.Snapshot, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap, p.err = snap, err
}

func newTestApp(t *testing.T) (*fiber.App, *fakeProvider) {
	t.Helper()

	provider := &fakeProvider{snap: weathertest.Snapshot(3)}
	svc := weather.NewService(store.NewMemoryStore(10, time.Hour), []weather.Provider{provider}, nil)
	screens := screen.NewRegistry(svc, nil)
	t.Cleanup(screens.CloseAll)

	app := NewApp(false)
	RegisterRoutes(app, svc, screens)
	return app, provider
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: unexpected error: %v", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/health", "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
}

func TestSkies(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/v1/skies", "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	entries := decode[[]map[string]string](t, body)
	if len(entries) != 22 {
		t.Fatalf("expected 22 sky entries, got %d", len(entries))
	}
	if entries[0]["code"] != "CLEAR_DAY" || entries[0]["icon"] != "ic_clear_day" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
}

func TestWeatherOneShot(t *testing.T) {
	app, provider := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/v1/weather?lng=116.4&lat=39.9&place=Beijing", "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
	}
	model := decode[struct {
		Now struct {
			PlaceName   string `json:"place_name"`
			CurrentTemp string `json:"current_temp"`
			CurrentAQI  string `json:"current_aqi"`
		} `json:"now"`
		Forecast []json.RawMessage `json:"forecast"`
	}](t, body)
	if model.Now.PlaceName != "Beijing" || model.Now.CurrentTemp != "24 °C" || model.Now.CurrentAQI != "Air Index 45" {
		t.Fatalf("unexpected now block %+v", model.Now)
	}
	if len(model.Forecast) != 3 {
		t.Fatalf("expected 3 forecast rows, got %d", len(model.Forecast))
	}

	status, _ = do(t, app, http.MethodGet, "/api/v1/weather?lng=999&lat=39.9", "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d for invalid longitude, got %d", http.StatusBadRequest, status)
	}

	bad := weathertest.Snapshot(1)
	bad.Realtime.Skycon = "SUNNY"
	provider.set(bad, nil)
	status, _ = do(t, app, http.MethodGet, "/api/v1/weather?lng=116.4&lat=39.9", "")
	if status != http.StatusInternalServerError {
		t.Fatalf("expected status %d for unknown sky code, got %d", http.StatusInternalServerError, status)
	}

	provider.set(weather.Snapshot{}, errors.New("network down"))
	status, _ = do(t, app, http.MethodGet, "/api/v1/weather?lng=116.4&lat=39.9", "")
	if status != http.StatusBadGateway {
		t.Fatalf("expected status %d for failed fetch, got %d", http.StatusBadGateway, status)
	}
}

func TestWeatherLatest(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/api/v1/weather/latest?lng=116.4&lat=39.9", "")
	if status != http.StatusNotFound {
		t.Fatalf("expected status %d before any fetch, got %d", http.StatusNotFound, status)
	}

	do(t, app, http.MethodGet, "/api/v1/weather?lng=116.4&lat=39.9", "")

	status, body := do(t, app, http.MethodGet, "/api/v1/weather/latest?lng=116.4&lat=39.9&place=Beijing", "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
	}
	resp := decode[struct {
		Provider string `json:"provider"`
		View     struct {
			Now struct {
				PlaceName   string `json:"place_name"`
				CurrentTemp string `json:"current_temp"`
			} `json:"now"`
		} `json:"view"`
	}](t, body)
	if resp.Provider != "fake" || resp.View.Now.PlaceName != "Beijing" || resp.View.Now.CurrentTemp != "24 °C" {
		t.Fatalf("unexpected latest response %+v", resp)
	}

	status, _ = do(t, app, http.MethodGet, "/api/v1/weather/latest?lng=116.4&lat=91", "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d for invalid latitude, got %d", http.StatusBadRequest, status)
	}
}

func TestWeatherHistory(t *testing.T) {
	app, _ := newTestApp(t)

	do(t, app, http.MethodGet, "/api/v1/weather?lng=116.4&lat=39.9", "")

	from := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	to := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	status, body := do(t, app, http.MethodGet, "/api/v1/weather/history?lng=116.4&lat=39.9&from="+from+"&to="+to, "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
	}
	resp := decode[struct {
		Records []json.RawMessage `json:"records"`
	}](t, body)
	if len(resp.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(resp.Records))
	}

	status, _ = do(t, app, http.MethodGet, "/api/v1/weather/history?lng=1&lat=2&from="+from+"&to="+to, "")
	if status != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, status)
	}

	status, _ = do(t, app, http.MethodGet, "/api/v1/weather/history?lng=116.4&lat=39.9&from="+to+"&to="+from, "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d for inverted range, got %d", http.StatusBadRequest, status)
	}
}

type screenResponse struct {
	ID         string `json:"id"`
	PlaceName  string `json:"place_name"`
	Refreshing bool   `json:"refreshing"`
	View       *struct {
		Now struct {
			CurrentTemp string `json:"current_temp"`
		} `json:"now"`
	} `json:"view"`
	Error string `json:"error"`
}

type eventResponse struct {
	Seq   uint64          `json:"seq"`
	OK    bool            `json:"ok"`
	View  json.RawMessage `json:"view"`
	Error string          `json:"error"`
}

func TestScreenLifecycle(t *testing.T) {
	app, provider := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/v1/screens",
		`{"location_lng":"116.4","location_lat":"39.9","place_name":"Beijing"}`)
	if status != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, status, body)
	}
	created := decode[screenResponse](t, body)
	base := "/api/v1/screens/" + created.ID

	status, body = do(t, app, http.MethodGet, base+"/events?wait=2s", "")
	if status != http.StatusOK {
		t.Fatalf("expected launch refresh event, got %d: %s", status, body)
	}
	ev := decode[eventResponse](t, body)
	if !ev.OK || ev.Seq != 1 || len(ev.View) == 0 {
		t.Fatalf("unexpected launch event %+v", ev)
	}

	status, body = do(t, app, http.MethodGet, base, "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	st := decode[screenResponse](t, body)
	if st.Refreshing || st.View == nil || st.View.Now.CurrentTemp != "24 °C" || st.PlaceName != "Beijing" {
		t.Fatalf("unexpected screen state %+v", st)
	}

	provider.set(weather.Snapshot{}, errors.New("network down"))
	status, _ = do(t, app, http.MethodPost, base+"/refresh", "")
	if status != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, status)
	}

	status, body = do(t, app, http.MethodGet, base+"/events?wait=2s", "")
	if status != http.StatusOK {
		t.Fatalf("expected failure event, got %d", status)
	}
	ev = decode[eventResponse](t, body)
	if ev.OK || ev.Error != failureMessage {
		t.Fatalf("unexpected failure event %+v", ev)
	}

	_, body = do(t, app, http.MethodGet, base, "")
	st = decode[screenResponse](t, body)
	if st.View == nil || st.Error != failureMessage {
		t.Fatalf("expected previous view to remain with error set, got %+v", st)
	}

	status, _ = do(t, app, http.MethodGet, base+"/events?wait=20ms", "")
	if status != http.StatusNoContent {
		t.Fatalf("expected status %d with no pending event, got %d", http.StatusNoContent, status)
	}

	status, _ = do(t, app, http.MethodDelete, base, "")
	if status != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, status)
	}
	status, _ = do(t, app, http.MethodGet, base, "")
	if status != http.StatusNotFound {
		t.Fatalf("expected status %d after delete, got %d", http.StatusNotFound, status)
	}
}

// checkSnakeCase fails on any object key containing an upper-case letter.
func checkSnakeCase(t *testing.T, v any, path string) {
	t.Helper()
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			if strings.ToLower(k) != k {
				t.Errorf("key %q at %s is not snake_case", k, path)
			}
			checkSnakeCase(t, child, path+"."+k)
		}
	case []any:
		for i, child := range v {
			checkSnakeCase(t, child, path+"["+strconv.Itoa(i)+"]")
		}
	}
}

func TestScreenResponseKeysAreSnakeCase(t *testing.T) {
	app, _ := newTestApp(t)

	_, body := do(t, app, http.MethodPost, "/api/v1/screens",
		`{"location_lng":"116.4","location_lat":"39.9","place_name":"Beijing"}`)
	created := decode[screenResponse](t, body)
	base := "/api/v1/screens/" + created.ID

	status, body := do(t, app, http.MethodGet, base+"/events?wait=2s", "")
	if status != http.StatusOK {
		t.Fatalf("expected event, got %d: %s", status, body)
	}
	checkSnakeCase(t, decode[map[string]any](t, body), "event")

	_, body = do(t, app, http.MethodGet, base, "")
	st := decode[map[string]any](t, body)
	if st["view"] == nil {
		t.Fatalf("expected a view in %s", body)
	}
	checkSnakeCase(t, st, "screen")
}

func TestScreenLaunchFirstNonEmptyWins(t *testing.T) {
	app, _ := newTestApp(t)

	_, body := do(t, app, http.MethodPost, "/api/v1/screens", "")
	created := decode[screenResponse](t, body)
	base := "/api/v1/screens/" + created.ID

	status, body := do(t, app, http.MethodPut, base+"/launch", `{"place_name":"Beijing"}`)
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
	}
	_, body = do(t, app, http.MethodPut, base+"/launch", `{"place_name":"Shanghai"}`)
	if st := decode[screenResponse](t, body); st.PlaceName != "Beijing" {
		t.Fatalf("expected first place name to stick, got %q", st.PlaceName)
	}
}

func TestScreenValidation(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, http.MethodPost, "/api/v1/screens", `{"location_lat":"123"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d for invalid latitude, got %d", http.StatusBadRequest, status)
	}

	status, _ = do(t, app, http.MethodGet, "/api/v1/screens/missing", "")
	if status != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, status)
	}

	_, body := do(t, app, http.MethodPost, "/api/v1/screens", "")
	created := decode[screenResponse](t, body)
	status, _ = do(t, app, http.MethodGet, "/api/v1/screens/"+created.ID+"/events?wait=5m", "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d for wait above limit, got %d", http.StatusBadRequest, status)
	}
}
