package httpapi

import (
	"time"

	"github.com/i474232898/sunnyweather/internal/render"
	"github.com/i474232898/sunnyweather/internal/screen"
)

// screenView is the JSON shape of a screen. View is the projection of the
// last successful snapshot and stays in place after a failed refresh; Error
// is set while the latest refresh is a failure.
type screenView struct {
	ID          string        `json:"id"`
	LocationLng string        `json:"location_lng"`
	LocationLat string        `json:"location_lat"`
	PlaceName   string        `json:"place_name"`
	Refreshing  bool          `json:"refreshing"`
	View        *render.Model `json:"view"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
	Error       string        `json:"error,omitempty"`
	Detail      string        `json:"detail,omitempty"`
}

func newScreenView(st screen.State) (screenView, error) {
	v := screenView{
		ID:          st.ID,
		LocationLng: st.Params.LocationLng,
		LocationLat: st.Params.LocationLat,
		PlaceName:   st.Params.PlaceName,
		Refreshing:  st.Refreshing,
	}

	if st.LastSuccess != nil {
		model, err := render.Project(st.LastSuccess.Snapshot, st.Params.PlaceName)
		if err != nil {
			return screenView{}, err
		}
		v.View = &model
		at := st.LastSuccess.CompletedAt
		v.UpdatedAt = &at
	}

	if st.LastResult != nil && !st.LastResult.OK() {
		v.Error = failureMessage
		v.Detail = st.LastResult.Err.Error()
	}
	return v, nil
}

// eventView is the JSON shape of one refresh completion.
type eventView struct {
	ScreenID    string        `json:"screen_id"`
	Seq         uint64        `json:"seq"`
	OK          bool          `json:"ok"`
	CompletedAt time.Time     `json:"completed_at"`
	View        *render.Model `json:"view,omitempty"`
	Error       string        `json:"error,omitempty"`
	Detail      string        `json:"detail,omitempty"`
}

func newEventView(ev screen.Event, placeName string) (eventView, error) {
	v := eventView{
		ScreenID:    ev.ScreenID,
		Seq:         ev.Result.Seq,
		OK:          ev.Result.OK(),
		CompletedAt: ev.Result.CompletedAt,
	}

	if !ev.Result.OK() {
		v.Error = failureMessage
		v.Detail = ev.Result.Err.Error()
		return v, nil
	}

	model, err := render.Project(ev.Result.Snapshot, placeName)
	if err != nil {
		return eventView{}, err
	}
	v.View = &model
	return v, nil
}
