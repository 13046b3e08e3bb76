package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/sunnyweather/internal/render"
	"github.com/i474232898/sunnyweather/internal/screen"
	"github.com/i474232898/sunnyweather/internal/sky"
	"github.com/i474232898/sunnyweather/internal/store"
	"github.com/i474232898/sunnyweather/internal/weather"
)

const (
	// failureMessage is shown to the user when a refresh fails.
	failureMessage = "failed to fetch weather information"

	defaultEventWait = 30 * time.Second
	fetchTimeout     = 30 * time.Second
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, screens *screen.Registry) {
	v1 := app.Group("/api/v1")

	v1.Get("/skies", func(c *fiber.Ctx) error {
		codes := sky.Codes()
		out := make([]skyEntry, 0, len(codes))
		for _, code := range codes {
			d, err := sky.Classify(code)
			if err != nil {
				return err
			}
			out = append(out, skyEntry{Code: code, Descriptor: d})
		}
		return c.JSON(out)
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q := weatherQuery{Lng: c.Query("lng"), Lat: c.Query("lat"), Place: c.Query("place")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), fetchTimeout)
		defer cancel()

		snap, err := service.Fetch(ctx, q.Lng, q.Lat)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, failureMessage)
		}

		model, err := render.Project(snap, q.Place)
		if err != nil {
			return projectionError(err)
		}
		return c.JSON(model)
	})

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		q := weatherQuery{Lng: c.Query("lng"), Lat: c.Query("lat"), Place: c.Query("place")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := service.GetLatest(weather.Location{Lng: q.Lng, Lat: q.Lat})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather recorded for location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest weather")
		}

		model, err := render.Project(rec.Snapshot, q.Place)
		if err != nil {
			return projectionError(err)
		}
		return c.JSON(fiber.Map{
			"location":   rec.Location,
			"provider":   rec.Provider,
			"fetched_at": rec.FetchedAt,
			"view":       model,
		})
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := weather.Location{Lng: req.Lng, Lat: req.Lat}
		records, err := service.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location": loc,
			"from":     req.From,
			"to":       req.To,
			"records":  records,
		})
	})

	v1.Post("/screens", func(c *fiber.Ctx) error {
		params, err := parseLaunchParams(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctrl := screens.Open(params)
		ctrl.Refresh()

		view, err := newScreenView(ctrl.State())
		if err != nil {
			return projectionError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(view)
	})

	v1.Get("/screens/:id", func(c *fiber.Ctx) error {
		ctrl, err := lookupScreen(screens, c)
		if err != nil {
			return err
		}

		view, err := newScreenView(ctrl.State())
		if err != nil {
			return projectionError(err)
		}
		return c.JSON(view)
	})

	v1.Put("/screens/:id/launch", func(c *fiber.Ctx) error {
		ctrl, err := lookupScreen(screens, c)
		if err != nil {
			return err
		}
		params, err := parseLaunchParams(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctrl.Launch(params)

		view, err := newScreenView(ctrl.State())
		if err != nil {
			return projectionError(err)
		}
		return c.JSON(view)
	})

	v1.Post("/screens/:id/refresh", func(c *fiber.Ctx) error {
		ctrl, err := lookupScreen(screens, c)
		if err != nil {
			return err
		}

		started := ctrl.Refresh()
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"started":    started,
			"refreshing": ctrl.Refreshing(),
		})
	})

	v1.Get("/screens/:id/events", func(c *fiber.Ctx) error {
		ctrl, err := lookupScreen(screens, c)
		if err != nil {
			return err
		}

		q, err := parseEventsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), q.Wait)
		defer cancel()

		ev, err := ctrl.Next(ctx)
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return c.SendStatus(fiber.StatusNoContent)
		case errors.Is(err, screen.ErrClosed):
			return fiber.NewError(fiber.StatusGone, "screen closed")
		case err != nil:
			return err
		}

		view, err := newEventView(ev, ctrl.Params().PlaceName)
		if err != nil {
			return projectionError(err)
		}
		return c.JSON(view)
	})

	v1.Delete("/screens/:id", func(c *fiber.Ctx) error {
		if err := screens.Close(c.Params("id")); err != nil {
			if errors.Is(err, screen.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func lookupScreen(screens *screen.Registry, c *fiber.Ctx) (*screen.Controller, error) {
	ctrl, err := screens.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, screen.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return nil, err
	}
	return ctrl, nil
}

// projectionError reports a snapshot the classifier or projection rejected.
// It means the provider and the sky table disagree, so it is a server error.
func projectionError(err error) error {
	return fiber.NewError(fiber.StatusInternalServerError, "invalid weather data: "+err.Error())
}

type skyEntry struct {
	Code sky.Code `json:"code"`
	sky.Descriptor
}

// launchBody holds the parameters a screen is opened with.
type launchBody struct {
	LocationLng string `json:"location_lng" validate:"omitempty,longitude"`
	LocationLat string `json:"location_lat" validate:"omitempty,latitude"`
	PlaceName   string `json:"place_name"`
}

func parseLaunchParams(c *fiber.Ctx) (screen.LaunchParams, error) {
	var body launchBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return screen.LaunchParams{}, err
		}
	}
	if err := validate.Struct(body); err != nil {
		return screen.LaunchParams{}, err
	}
	return screen.LaunchParams{
		LocationLng: body.LocationLng,
		LocationLat: body.LocationLat,
		PlaceName:   body.PlaceName,
	}, nil
}

// weatherQuery holds query parameters for the one-shot and latest weather
// endpoints.
type weatherQuery struct {
	Lng   string `validate:"omitempty,longitude"`
	Lat   string `validate:"omitempty,latitude"`
	Place string
}

type eventsQuery struct {
	Wait time.Duration `validate:"min=0,max=2m"`
}

func parseEventsQuery(c *fiber.Ctx) (eventsQuery, error) {
	q := eventsQuery{Wait: defaultEventWait}
	if s := c.Query("wait"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return q, errors.New("invalid wait; use a duration such as 30s")
		}
		q.Wait = d
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Lng  string    `validate:"omitempty,longitude"`
	Lat  string    `validate:"omitempty,latitude"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Lng = c.Query("lng")
	h.Lat = c.Query("lat")

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
