// Package weather fetches and caches per-location weather snapshots
// from the Open-Meteo API
package weather

import "time"

// ForecastDays is the maximum forecast horizon the device displays.
const ForecastDays = 7

// Condition is the simplified category a WMO weather code maps to.
type Condition int

const (
	ConditionClear Condition = iota
	ConditionPartlyCloudy
	ConditionCloudy
	ConditionFog
	ConditionDrizzle
	ConditionRain
	ConditionFreezingRain
	ConditionSnow
	ConditionThunderstorm
	ConditionUnknown
)

// CodeToCondition maps a WMO weather interpretation code to its
// simplified display category.
func CodeToCondition(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 2:
		return ConditionPartlyCloudy
	case code == 3:
		return ConditionCloudy
	case code >= 45 && code <= 48:
		return ConditionFog
	case code >= 51 && code <= 55:
		return ConditionDrizzle
	case code >= 56 && code <= 57:
		return ConditionFreezingRain
	case code >= 61 && code <= 65:
		return ConditionRain
	case code >= 66 && code <= 67:
		return ConditionFreezingRain
	case code >= 71 && code <= 77:
		return ConditionSnow
	case code >= 80 && code <= 82:
		return ConditionRain
	case code >= 85 && code <= 86:
		return ConditionSnow
	case code >= 95 && code <= 99:
		return ConditionThunderstorm
	default:
		return ConditionUnknown
	}
}

func (c Condition) String() string {
	switch c {
	case ConditionClear:
		return "Clear"
	case ConditionPartlyCloudy:
		return "Partly Cloudy"
	case ConditionCloudy:
		return "Cloudy"
	case ConditionFog:
		return "Fog"
	case ConditionDrizzle:
		return "Drizzle"
	case ConditionRain:
		return "Rain"
	case ConditionFreezingRain:
		return "Freezing Rain"
	case ConditionSnow:
		return "Snow"
	case ConditionThunderstorm:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}

// Short returns the condensed label used on small screen regions.
func (c Condition) Short() string {
	switch c {
	case ConditionPartlyCloudy:
		return "P.Cloudy"
	case ConditionFreezingRain:
		return "F.Rain"
	case ConditionThunderstorm:
		return "T.Storm"
	case ConditionUnknown:
		return "???"
	default:
		return c.String()
	}
}

// Current holds the present conditions of one location.
type Current struct {
	Temperature   float64
	FeelsLike     float64
	WindSpeed     float64
	WindDirection float64
	Precipitation float64
	WeatherCode   int
	Condition     Condition
	IsDay         bool
}

// ForecastDay is one day of the daily forecast.
type ForecastDay struct {
	TempMax       float64
	TempMin       float64
	PrecipSum     float64
	PrecipProb    float64
	WindSpeedMax  float64
	WeatherCode   int
	Condition     Condition
	DayName       string
}

// Snapshot is the read-only weather state for one location. The core
// never mutates a snapshot; an invalid one renders as not-available.
type Snapshot struct {
	LocationName string
	Latitude     float64
	Longitude    float64
	Timezone     string

	Current  Current
	Forecast []ForecastDay

	SunriseHour int
	SunsetHour  int

	Valid      bool
	LastUpdate time.Time
	LastError  string
}

// Place is a fetch target.
type Place struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Provider hands out snapshots by location index. Index 0 is the
// primary location used for day/night theme resolution.
type Provider interface {
	Snapshot(index int) Snapshot
}
