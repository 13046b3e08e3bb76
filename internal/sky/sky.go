package sky

import (
	"errors"
	"fmt"
)

// Code is a Caiyun skycon value such as CLEAR_DAY or LIGHT_RAIN.
type Code string

const (
	ClearDay          Code = "CLEAR_DAY"
	ClearNight        Code = "CLEAR_NIGHT"
	PartlyCloudyDay   Code = "PARTLY_CLOUDY_DAY"
	PartlyCloudyNight Code = "PARTLY_CLOUDY_NIGHT"
	Cloudy            Code = "CLOUDY"
	Wind              Code = "WIND"
	LightRain         Code = "LIGHT_RAIN"
	ModerateRain      Code = "MODERATE_RAIN"
	HeavyRain         Code = "HEAVY_RAIN"
	StormRain         Code = "STORM_RAIN"
	ThunderShower     Code = "THUNDER_SHOWER"
	Sleet             Code = "SLEET"
	LightSnow         Code = "LIGHT_SNOW"
	ModerateSnow      Code = "MODERATE_SNOW"
	HeavySnow         Code = "HEAVY_SNOW"
	StormSnow         Code = "STORM_SNOW"
	Hail              Code = "HAIL"
	LightHaze         Code = "LIGHT_HAZE"
	ModerateHaze      Code = "MODERATE_HAZE"
	HeavyHaze         Code = "HEAVY_HAZE"
	Fog               Code = "FOG"
	Dust              Code = "DUST"
)

// Resource names a drawable asset on the client (icon or background).
type Resource string

// Descriptor is the display metadata for a sky code.
type Descriptor struct {
	Info       string   `json:"info"`
	Icon       Resource `json:"icon"`
	Background Resource `json:"bg"`
}

// ErrUnknownCode is returned by Classify for codes outside the Caiyun vocabulary.
var ErrUnknownCode = errors.New("unknown sky code")

var codes = []Code{
	ClearDay, ClearNight, PartlyCloudyDay, PartlyCloudyNight, Cloudy, Wind,
	LightRain, ModerateRain, HeavyRain, StormRain, ThunderShower, Sleet,
	LightSnow, ModerateSnow, HeavySnow, StormSnow, Hail,
	LightHaze, ModerateHaze, HeavyHaze, Fog, Dust,
}

var table = map[Code]Descriptor{
	ClearDay:          {Info: "Clear", Icon: "ic_clear_day", Background: "bg_clear_day"},
	ClearNight:        {Info: "Clear", Icon: "ic_clear_night", Background: "bg_clear_night"},
	PartlyCloudyDay:   {Info: "Partly Cloudy", Icon: "ic_partly_cloud_day", Background: "bg_partly_cloudy_day"},
	PartlyCloudyNight: {Info: "Partly Cloudy", Icon: "ic_partly_cloud_night", Background: "bg_partly_cloudy_night"},
	Cloudy:            {Info: "Overcast", Icon: "ic_cloudy", Background: "bg_cloudy"},
	Wind:              {Info: "Windy", Icon: "ic_cloudy", Background: "bg_wind"},
	LightRain:         {Info: "Light Rain", Icon: "ic_light_rain", Background: "bg_rain"},
	ModerateRain:      {Info: "Moderate Rain", Icon: "ic_moderate_rain", Background: "bg_rain"},
	HeavyRain:         {Info: "Heavy Rain", Icon: "ic_heavy_rain", Background: "bg_rain"},
	StormRain:         {Info: "Rainstorm", Icon: "ic_storm_rain", Background: "bg_rain"},
	ThunderShower:     {Info: "Thunder Shower", Icon: "ic_thunder_shower", Background: "bg_rain"},
	Sleet:             {Info: "Sleet", Icon: "ic_sleet", Background: "bg_rain"},
	LightSnow:         {Info: "Light Snow", Icon: "ic_light_snow", Background: "bg_snow"},
	ModerateSnow:      {Info: "Moderate Snow", Icon: "ic_moderate_snow", Background: "bg_snow"},
	HeavySnow:         {Info: "Heavy Snow", Icon: "ic_heavy_snow", Background: "bg_snow"},
	StormSnow:         {Info: "Snowstorm", Icon: "ic_heavy_snow", Background: "bg_snow"},
	Hail:              {Info: "Hail", Icon: "ic_hail", Background: "bg_snow"},
	LightHaze:         {Info: "Light Haze", Icon: "ic_light_haze", Background: "bg_fog"},
	ModerateHaze:      {Info: "Moderate Haze", Icon: "ic_moderate_haze", Background: "bg_fog"},
	HeavyHaze:         {Info: "Heavy Haze", Icon: "ic_heavy_haze", Background: "bg_fog"},
	Fog:               {Info: "Fog", Icon: "ic_fog", Background: "bg_fog"},
	Dust:              {Info: "Dust", Icon: "ic_fog", Background: "bg_fog"},
}

// Classify maps a sky code to its descriptor. Codes outside the vocabulary
// are an error; there is no fallback descriptor.
func Classify(code Code) (Descriptor, error) {
	d, ok := table[code]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownCode, string(code))
	}
	return d, nil
}

// Valid reports whether the code has a descriptor.
func (c Code) Valid() bool {
	_, ok := table[c]
	return ok
}

// Codes returns every known code in declaration order.
func Codes() []Code {
	out := make([]Code, len(codes))
	copy(out, codes)
	return out
}
