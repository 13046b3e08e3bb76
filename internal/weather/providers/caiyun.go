package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/sunnyweather/internal/sky"
	"github.com/i474232898/sunnyweather/internal/weather"
)

const DefaultCaiyunBaseURL = "https://api.caiyunapp.com/v2.5"

var (
	// ErrStatusNotOK is returned when Caiyun answers with a status other than "ok".
	ErrStatusNotOK = errors.New("caiyun status not ok")
	// ErrNoToken is returned when the provider has no API token.
	ErrNoToken = errors.New("caiyun token is not configured")
)

// CaiyunProvider implements weather.Provider for the Caiyun weather API.
// Realtime and daily data come from two endpoints that are queried
// concurrently; both must succeed for a snapshot to be produced, and the
// first failure is the one reported.
type CaiyunProvider struct {
	name    string
	token   string
	baseURL string
	http    *resilientClient
}

// NewCaiyunProvider creates a provider. An empty baseURL selects the public API.
func NewCaiyunProvider(client *http.Client, token, baseURL string) *CaiyunProvider {
	return NewCaiyunProviderWithBackoff(client, token, baseURL, DefaultBackoff)
}

func NewCaiyunProviderWithBackoff(client *http.Client, token, baseURL string, backoff BackoffConfig) *CaiyunProvider {
	if baseURL == "" {
		baseURL = DefaultCaiyunBaseURL
	}
	return &CaiyunProvider{
		name:    "caiyun",
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newResilientClient("caiyun", client, backoff),
	}
}

func (p *CaiyunProvider) Name() string {
	return p.name
}

func (p *CaiyunProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	if p.token == "" {
		return weather.Snapshot{}, ErrNoToken
	}

	// The first failure cancels the sibling request.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		realtime realtimePayload
		daily    dailyPayload
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := p.get(ctx, loc, "realtime.json", &realtime); err != nil {
			fail(err)
			return
		}
		if realtime.Status != "ok" {
			fail(fmt.Errorf("%w: realtime status %q", ErrStatusNotOK, realtime.Status))
		}
	}()
	go func() {
		defer wg.Done()
		if err := p.get(ctx, loc, "daily.json", &daily); err != nil {
			fail(err)
			return
		}
		if daily.Status != "ok" {
			fail(fmt.Errorf("%w: daily status %q", ErrStatusNotOK, daily.Status))
		}
	}()
	wg.Wait()

	if firstErr != nil {
		return weather.Snapshot{}, firstErr
	}

	return weather.Snapshot{
		Realtime: realtime.Result.Realtime.toModel(),
		Daily:    daily.Result.Daily.toModel(),
	}, nil
}

func (p *CaiyunProvider) get(ctx context.Context, loc weather.Location, endpoint string, out any) error {
	u := fmt.Sprintf("%s/%s/%s,%s/%s",
		p.baseURL, url.PathEscape(p.token), url.PathEscape(loc.Lng), url.PathEscape(loc.Lat), endpoint)

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := p.http.do(ctx, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

type realtimePayload struct {
	Status string `json:"status"`
	Result struct {
		Realtime caiyunRealtime `json:"realtime"`
	} `json:"result"`
}

type caiyunRealtime struct {
	Temperature float64 `json:"temperature"`
	Skycon      string  `json:"skycon"`
	AirQuality  struct {
		AQI struct {
			CHN float64 `json:"chn"`
		} `json:"aqi"`
	} `json:"air_quality"`
}

func (r caiyunRealtime) toModel() weather.Realtime {
	return weather.Realtime{
		Temperature: r.Temperature,
		Skycon:      sky.Code(r.Skycon),
		AirQuality:  weather.AirQuality{AQI: weather.AQI{CHN: r.AirQuality.AQI.CHN}},
	}
}

type dailyPayload struct {
	Status string `json:"status"`
	Result struct {
		Daily caiyunDaily `json:"daily"`
	} `json:"result"`
}

type caiyunDaily struct {
	Temperature []struct {
		Max float64 `json:"max"`
		Min float64 `json:"min"`
	} `json:"temperature"`
	Skycon []struct {
		Value string     `json:"value"`
		Date  caiyunTime `json:"date"`
	} `json:"skycon"`
	LifeIndex struct {
		ColdRisk    []caiyunLifeDescription `json:"coldRisk"`
		CarWashing  []caiyunLifeDescription `json:"carWashing"`
		Ultraviolet []caiyunLifeDescription `json:"ultraviolet"`
		Dressing    []caiyunLifeDescription `json:"dressing"`
	} `json:"life_index"`
}

type caiyunLifeDescription struct {
	Desc string `json:"desc"`
}

func (d caiyunDaily) toModel() weather.Daily {
	out := weather.Daily{
		Skycon:      make([]weather.DailySkycon, 0, len(d.Skycon)),
		Temperature: make([]weather.DailyTemperature, 0, len(d.Temperature)),
		LifeIndex: weather.LifeIndex{
			ColdRisk:    lifeDescriptions(d.LifeIndex.ColdRisk),
			Dressing:    lifeDescriptions(d.LifeIndex.Dressing),
			Ultraviolet: lifeDescriptions(d.LifeIndex.Ultraviolet),
			CarWashing:  lifeDescriptions(d.LifeIndex.CarWashing),
		},
	}
	for _, s := range d.Skycon {
		out.Skycon = append(out.Skycon, weather.DailySkycon{Date: s.Date.Time, Value: sky.Code(s.Value)})
	}
	for _, t := range d.Temperature {
		out.Temperature = append(out.Temperature, weather.DailyTemperature{Min: t.Min, Max: t.Max})
	}
	return out
}

func lifeDescriptions(in []caiyunLifeDescription) []weather.LifeDescription {
	out := make([]weather.LifeDescription, 0, len(in))
	for _, l := range in {
		out = append(out, weather.LifeDescription{Desc: l.Desc})
	}
	return out
}

// caiyunTime parses Caiyun dates such as "2019-10-20T00:00+08:00", which
// omit seconds and so are not valid RFC3339.
type caiyunTime struct {
	time.Time
}

var caiyunTimeLayouts = []string{
	"2006-01-02T15:04Z07:00",
	time.RFC3339,
	"2006-01-02",
}

func (t *caiyunTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range caiyunTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			t.Time = ts
			return nil
		}
	}
	return fmt.Errorf("invalid caiyun date %q", s)
}
