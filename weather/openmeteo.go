package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Client fetches forecasts from the Open-Meteo API, which needs no API
// key.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu         sync.Mutex
	useCelsius bool
}

// NewClient builds a client with a bounded request timeout. baseURL
// may be empty to use the public API endpoint.
func NewClient(baseURL string, useCelsius bool) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		useCelsius: useCelsius,
	}
}

// SetUseCelsius switches the requested units for subsequent fetches.
// Safe to call while fetches are in flight.
func (c *Client) SetUseCelsius(celsius bool) {
	c.mu.Lock()
	c.useCelsius = celsius
	c.mu.Unlock()
}

func (c *Client) metric() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.useCelsius
}

// forecastResponse mirrors the subset of the Open-Meteo payload the
// device uses.
type forecastResponse struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Timezone       string  `json:"timezone"`
	CurrentWeather struct {
		Temperature   float64 `json:"temperature"`
		WindSpeed     float64 `json:"windspeed"`
		WindDirection float64 `json:"winddirection"`
		WeatherCode   int     `json:"weathercode"`
		IsDay         int     `json:"is_day"`
	} `json:"current_weather"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		PrecipSum   []float64 `json:"precipitation_sum"`
		PrecipProb  []float64 `json:"precipitation_probability_max"`
		WeatherCode []int     `json:"weathercode"`
		WindMax     []float64 `json:"windspeed_10m_max"`
		Sunrise     []string  `json:"sunrise"`
		Sunset      []string  `json:"sunset"`
	} `json:"daily"`
}

func (c *Client) buildURL(place Place) string {
	tempUnit, windUnit, precipUnit := "fahrenheit", "mph", "inch"
	if c.metric() {
		tempUnit, windUnit, precipUnit = "celsius", "kmh", "mm"
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', 4, 64))
	params.Set("current_weather", "true")
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,"+
		"precipitation_probability_max,weathercode,windspeed_10m_max,sunrise,sunset")
	params.Set("temperature_unit", tempUnit)
	params.Set("windspeed_unit", windUnit)
	params.Set("precipitation_unit", precipUnit)
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(ForecastDays))

	return c.baseURL + "?" + params.Encode()
}

// Fetch retrieves a snapshot for the place. A failed fetch returns an
// error and no snapshot; the caller keeps whatever it had.
func (c *Client) Fetch(ctx context.Context, place Place) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(place), nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read forecast response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("forecast request returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload forecastResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse forecast response: %w", err)
	}

	return payloadToSnapshot(place, payload, time.Now()), nil
}

func payloadToSnapshot(place Place, payload forecastResponse, now time.Time) Snapshot {
	snap := Snapshot{
		LocationName: place.Name,
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		Timezone:     payload.Timezone,
		Current: Current{
			Temperature:   payload.CurrentWeather.Temperature,
			FeelsLike:     payload.CurrentWeather.Temperature,
			WindSpeed:     payload.CurrentWeather.WindSpeed,
			WindDirection: payload.CurrentWeather.WindDirection,
			WeatherCode:   payload.CurrentWeather.WeatherCode,
			Condition:     CodeToCondition(payload.CurrentWeather.WeatherCode),
			IsDay:         payload.CurrentWeather.IsDay != 0,
		},
		Valid:      true,
		LastUpdate: now,
	}

	days := len(payload.Daily.Time)
	if days > ForecastDays {
		days = ForecastDays
	}
	for i := 0; i < days; i++ {
		day := ForecastDay{DayName: dayName(payload.Daily.Time[i])}
		if i < len(payload.Daily.TempMax) {
			day.TempMax = payload.Daily.TempMax[i]
		}
		if i < len(payload.Daily.TempMin) {
			day.TempMin = payload.Daily.TempMin[i]
		}
		if i < len(payload.Daily.PrecipSum) {
			day.PrecipSum = payload.Daily.PrecipSum[i]
		}
		if i < len(payload.Daily.PrecipProb) {
			day.PrecipProb = payload.Daily.PrecipProb[i]
		}
		if i < len(payload.Daily.WindMax) {
			day.WindSpeedMax = payload.Daily.WindMax[i]
		}
		if i < len(payload.Daily.WeatherCode) {
			day.WeatherCode = payload.Daily.WeatherCode[i]
			day.Condition = CodeToCondition(day.WeatherCode)
		}
		snap.Forecast = append(snap.Forecast, day)
	}

	snap.SunriseHour = localHour(payload.Daily.Sunrise, 6)
	snap.SunsetHour = localHour(payload.Daily.Sunset, 18)

	return snap
}

// dayName derives the short weekday label from an ISO date.
func dayName(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "???"
	}
	return t.Format("Mon")
}

// localHour extracts the hour from the first entry of an Open-Meteo
// local-time list like "2026-08-30T06:21".
func localHour(times []string, fallback int) int {
	if len(times) == 0 {
		return fallback
	}
	t, err := time.Parse("2006-01-02T15:04", times[0])
	if err != nil {
		return fallback
	}
	return t.Hour()
}
