package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeToCondition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code int
		want Condition
	}{
		{0, ConditionClear},
		{1, ConditionPartlyCloudy},
		{2, ConditionPartlyCloudy},
		{3, ConditionCloudy},
		{45, ConditionFog},
		{48, ConditionFog},
		{51, ConditionDrizzle},
		{55, ConditionDrizzle},
		{56, ConditionFreezingRain},
		{57, ConditionFreezingRain},
		{61, ConditionRain},
		{65, ConditionRain},
		{66, ConditionFreezingRain},
		{67, ConditionFreezingRain},
		{71, ConditionSnow},
		{77, ConditionSnow},
		{80, ConditionRain},
		{82, ConditionRain},
		{85, ConditionSnow},
		{86, ConditionSnow},
		{95, ConditionThunderstorm},
		{99, ConditionThunderstorm},
		{4, ConditionUnknown},
		{100, ConditionUnknown},
		{-1, ConditionUnknown},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, CodeToCondition(c.code), "code %d", c.code)
	}
}

func TestConditionShort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "P.Cloudy", ConditionPartlyCloudy.Short())
	assert.Equal(t, "F.Rain", ConditionFreezingRain.Short())
	assert.Equal(t, "T.Storm", ConditionThunderstorm.Short())
	assert.Equal(t, "???", ConditionUnknown.Short())
	assert.Equal(t, "Clear", ConditionClear.Short())
	assert.Equal(t, "Snow", ConditionSnow.Short())
}

func fixturePayload() forecastResponse {
	var payload forecastResponse
	payload.Latitude = 47.6
	payload.Longitude = -122.33
	payload.Timezone = "America/Los_Angeles"
	payload.CurrentWeather.Temperature = 68.5
	payload.CurrentWeather.WindSpeed = 4.2
	payload.CurrentWeather.WindDirection = 270
	payload.CurrentWeather.WeatherCode = 2
	payload.CurrentWeather.IsDay = 1
	payload.Daily.Time = []string{"2026-08-30", "2026-08-31", "2026-09-01"}
	payload.Daily.TempMax = []float64{72, 70, 68}
	payload.Daily.TempMin = []float64{55, 54, 53}
	payload.Daily.PrecipSum = []float64{0, 0.1, 0.4}
	payload.Daily.PrecipProb = []float64{5, 40, 80}
	payload.Daily.WeatherCode = []int{1, 61, 95}
	payload.Daily.WindMax = []float64{9, 12, 18}
	payload.Daily.Sunrise = []string{"2026-08-30T06:21"}
	payload.Daily.Sunset = []string{"2026-08-30T19:47"}
	return payload
}

func TestPayloadToSnapshot(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	place := Place{Name: "Seattle", Latitude: 47.6062, Longitude: -122.3321}

	snap := payloadToSnapshot(place, fixturePayload(), now)

	assert.True(t, snap.Valid)
	assert.Equal(t, "Seattle", snap.LocationName)
	assert.Equal(t, "America/Los_Angeles", snap.Timezone)
	assert.Equal(t, now, snap.LastUpdate)
	assert.Equal(t, 68.5, snap.Current.Temperature)
	assert.Equal(t, ConditionPartlyCloudy, snap.Current.Condition)
	assert.True(t, snap.Current.IsDay)
	assert.Equal(t, 6, snap.SunriseHour)
	assert.Equal(t, 19, snap.SunsetHour)

	require.Len(t, snap.Forecast, 3)
	assert.Equal(t, "Sun", snap.Forecast[0].DayName)
	assert.Equal(t, "Mon", snap.Forecast[1].DayName)
	assert.Equal(t, ConditionRain, snap.Forecast[1].Condition)
	assert.Equal(t, ConditionThunderstorm, snap.Forecast[2].Condition)
	assert.Equal(t, 80.0, snap.Forecast[2].PrecipProb)
}

func TestPayloadToSnapshotRaggedDaily(t *testing.T) {
	t.Parallel()

	payload := fixturePayload()
	payload.Daily.TempMin = payload.Daily.TempMin[:1]
	payload.Daily.WeatherCode = nil
	payload.Daily.Sunrise = nil
	payload.Daily.Sunset = []string{"not-a-time"}

	snap := payloadToSnapshot(Place{Name: "x"}, payload, time.Now())

	require.Len(t, snap.Forecast, 3)
	assert.Equal(t, 54.0, snap.Forecast[1].TempMin)
	assert.Equal(t, ConditionClear, snap.Forecast[1].Condition)
	assert.Equal(t, 6, snap.SunriseHour)
	assert.Equal(t, 18, snap.SunsetHour)
}

func TestClientFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("current_weather"))
		assert.Equal(t, "celsius", q.Get("temperature_unit"))
		assert.Equal(t, "kmh", q.Get("windspeed_unit"))
		assert.Equal(t, "mm", q.Get("precipitation_unit"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Equal(t, "7", q.Get("forecast_days"))
		assert.Equal(t, "47.6062", q.Get("latitude"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"latitude": 47.6,
			"longitude": -122.33,
			"timezone": "America/Los_Angeles",
			"current_weather": {"temperature": 18.2, "windspeed": 6.1, "winddirection": 180, "weathercode": 3, "is_day": 0},
			"daily": {
				"time": ["2026-08-30"],
				"temperature_2m_max": [21.0],
				"temperature_2m_min": [12.5],
				"precipitation_sum": [0.0],
				"precipitation_probability_max": [10.0],
				"weathercode": [3],
				"windspeed_10m_max": [11.0],
				"sunrise": ["2026-08-30T06:21"],
				"sunset": ["2026-08-30T19:47"]
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, true)
	snap, err := client.Fetch(context.Background(), Place{Name: "Seattle", Latitude: 47.6062, Longitude: -122.3321})
	require.NoError(t, err)

	assert.True(t, snap.Valid)
	assert.Equal(t, 18.2, snap.Current.Temperature)
	assert.Equal(t, ConditionCloudy, snap.Current.Condition)
	assert.False(t, snap.Current.IsDay)
	require.Len(t, snap.Forecast, 1)
	assert.Equal(t, 21.0, snap.Forecast[0].TempMax)
}

func TestClientImperialUnits(t *testing.T) {
	t.Parallel()

	client := NewClient("http://example.invalid", false)
	u, err := url.Parse(client.buildURL(Place{Latitude: 47.6062, Longitude: -122.3321}))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "fahrenheit", q.Get("temperature_unit"))
	assert.Equal(t, "mph", q.Get("windspeed_unit"))
	assert.Equal(t, "inch", q.Get("precipitation_unit"))
}

func TestClientUnitSwitchDuringFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current_weather": {"temperature": 1}, "daily": {"time": []}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, false)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			client.SetUseCelsius(i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := client.Fetch(context.Background(), Place{Name: "x"})
			assert.NoError(t, err)
		}
	}()
	wg.Wait()
}

func TestClientFetchErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, false)
	_, err := client.Fetch(context.Background(), Place{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestManagerSnapshotBounds(t *testing.T) {
	t.Parallel()

	m := NewManager(NewClient("", false))
	m.SetPlaces([]Place{{Name: "a"}, {Name: "b"}})

	assert.False(t, m.Snapshot(0).Valid)
	assert.False(t, m.Snapshot(-1).Valid)
	assert.False(t, m.Snapshot(5).Valid)
}

func TestManagerSetPlacesKeepsSnapshots(t *testing.T) {
	t.Parallel()

	m := NewManager(NewClient("", false))
	seattle := Place{Name: "Seattle", Latitude: 47.6062, Longitude: -122.3321}
	m.SetPlaces([]Place{seattle})

	m.mu.Lock()
	m.snapshots[0] = Snapshot{LocationName: "Seattle", Valid: true}
	m.mu.Unlock()

	// Reordering keeps the cached snapshot with its place.
	m.SetPlaces([]Place{{Name: "Tokyo", Latitude: 35.68, Longitude: 139.69}, seattle})

	assert.False(t, m.Snapshot(0).Valid)
	assert.True(t, m.Snapshot(1).Valid)
	assert.Equal(t, "Seattle", m.Snapshot(1).LocationName)

	// Dropping the place drops its snapshot.
	m.SetPlaces([]Place{{Name: "Tokyo", Latitude: 35.68, Longitude: 139.69}})
	assert.False(t, m.Snapshot(0).Valid)
}
