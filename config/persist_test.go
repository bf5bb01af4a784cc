package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/epicweatherbox/weatherbox/carousel"
	"github.com/epicweatherbox/weatherbox/countdown"
	"github.com/epicweatherbox/weatherbox/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeConfig(t *testing.T, store *Store, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(store.configPath, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	t.Run("absent document", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		state := store.Load()
		require.Len(t, state.Locations, 1)
		assert.Equal(t, DefaultLocation, state.Locations[0])
		assert.Equal(t, []carousel.Item{{Kind: carousel.KindLocation, DataIndex: 0}}, state.Carousel)
		assert.Equal(t, DefaultSettings(), state.Settings)
	})

	t.Run("corrupt document", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		writeConfig(t, store, "{not json")

		state := store.Load()
		assert.Equal(t, DefaultLocation, state.Locations[0])
	})

	t.Run("no enabled location substitutes default", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		writeConfig(t, store, `{
			"schemaVersion": 2,
			"locations": [{"name":"Oslo","lat":59.91,"lon":10.75,"enabled":false}]
		}`)

		state := store.Load()
		require.Equal(t, 1, state.EnabledLocations())
		assert.Equal(t, "Seattle", state.Locations[0].Name)
	})
}

func TestLoadLegacyMigration(t *testing.T) {
	t.Parallel()

	t.Run("primary only", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		writeConfig(t, store, `{
			"primary": {"name":"Seattle","lat":47.6062,"lon":-122.3321,"enabled":true}
		}`)

		state := store.Load()
		require.Len(t, state.Locations, 1)
		assert.Equal(t, "Seattle", state.Locations[0].Name)
		assert.InDelta(t, 47.6062, state.Locations[0].Latitude, 1e-9)
		assert.Equal(t, []carousel.Item{{Kind: carousel.KindLocation, DataIndex: 0}}, state.Carousel)
	})

	t.Run("enabled secondary migrates in order", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		writeConfig(t, store, `{
			"primary": {"name":"Seattle","lat":47.6062,"lon":-122.3321,"enabled":true},
			"secondary": {"name":"Tokyo","lat":35.6762,"lon":139.6503,"enabled":true}
		}`)

		state := store.Load()
		require.Len(t, state.Locations, 2)
		assert.Equal(t, "Seattle", state.Locations[0].Name)
		assert.Equal(t, "Tokyo", state.Locations[1].Name)
		assert.Equal(t, []carousel.Item{
			{Kind: carousel.KindLocation, DataIndex: 0},
			{Kind: carousel.KindLocation, DataIndex: 1},
		}, state.Carousel)
	})

	t.Run("disabled secondary dropped", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		writeConfig(t, store, `{
			"primary": {"name":"Seattle","lat":47.6062,"lon":-122.3321,"enabled":true},
			"secondary": {"name":"Tokyo","lat":35.6762,"lon":139.6503,"enabled":false}
		}`)

		state := store.Load()
		require.Len(t, state.Locations, 1)
		assert.Len(t, state.Carousel, 1)
	})

	t.Run("unnamed secondary dropped", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		writeConfig(t, store, `{
			"primary": {"name":"Seattle","lat":47.6062,"lon":-122.3321,"enabled":true},
			"secondary": {"name":"","lat":0,"lon":0,"enabled":true}
		}`)

		state := store.Load()
		assert.Len(t, state.Locations, 1)
	})

	t.Run("legacy custom screen and settings carried", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		longBody := strings.Repeat("x", 120)
		writeConfig(t, store, `{
			"primary": {"name":"Seattle","lat":47.6062,"lon":-122.3321,"enabled":true},
			"customScreenEnabled": true,
			"customScreenHeader": "Hello",
			"customScreenBody": "`+longBody+`",
			"customScreenFooter": "bye",
			"useCelsius": false,
			"nightModeStartHour": -2,
			"cycleSeconds": 15
		}`)

		state := store.Load()
		require.Len(t, state.CustomScreens, 1)
		assert.Equal(t, "Hello", state.CustomScreens[0].Header)
		// legacy generation bodies are capped at 80 characters
		assert.Len(t, state.CustomScreens[0].Body, 80)
		assert.False(t, state.Settings.UseCelsius)
		assert.Equal(t, 15, state.Settings.CycleSeconds)
		assert.Equal(t, NightBoundary{Kind: BoundaryAtSunset}, state.Settings.NightModeStart)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	state := DefaultState()
	require.NoError(t, state.AddLocation(Location{Name: "Tokyo", Latitude: 35.6762, Longitude: 139.6503, Enabled: true}))
	require.NoError(t, state.AddCountdown(countdown.Event{Title: "Easter", Kind: countdown.KindEaster}))
	require.NoError(t, state.AddCustomScreen(CustomScreen{Header: "Hi", Body: "Body", Footer: "Foot"}))
	state.Carousel = append(state.Carousel,
		carousel.Item{Kind: carousel.KindLocation, DataIndex: 1},
		carousel.Item{Kind: carousel.KindCountdown, DataIndex: 0},
	)
	state.Settings.NightModeStart = NightBoundary{Kind: BoundaryAtSunrise}
	state.Settings.UseCelsius = false

	require.NoError(t, store.Save(state))

	loaded := store.Load()
	assert.Equal(t, state.Locations, loaded.Locations)
	assert.Equal(t, state.Carousel, loaded.Carousel)
	assert.Equal(t, state.Countdowns, loaded.Countdowns)
	assert.Equal(t, state.CustomScreens, loaded.CustomScreens)
	assert.Equal(t, state.Settings, loaded.Settings)
}

func TestLoadDropsDanglingCarouselItems(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	writeConfig(t, store, `{
		"schemaVersion": 2,
		"locations": [{"name":"Seattle","lat":47.6,"lon":-122.3,"enabled":true}],
		"carousel": [
			{"kind":0,"dataIndex":0},
			{"kind":0,"dataIndex":4},
			{"kind":1,"dataIndex":0}
		]
	}`)

	state := store.Load()
	// the dangling location and countdown references are dropped
	assert.Equal(t, []carousel.Item{{Kind: carousel.KindLocation, DataIndex: 0}}, state.Carousel)
}

func TestThemeDocument(t *testing.T) {
	t.Parallel()

	t.Run("defaults when absent", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		ts := store.LoadTheme()
		assert.Equal(t, theme.ModeAuto, ts.Mode)
		assert.Equal(t, theme.PaletteClassic, ts.ActivePalette)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)

		ts := DefaultThemeState()
		ts.Mode = theme.ModeDark
		ts.ActivePalette = theme.PaletteCustom
		ts.Custom.Dark.Background = 0x1234

		require.NoError(t, store.SaveTheme(ts))
		loaded := store.LoadTheme()
		assert.Equal(t, ts, loaded)
	})

	t.Run("invalid values clamped", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		require.NoError(t, os.WriteFile(store.themePath, []byte(`{"mode":9,"activeTheme":42}`), 0o644))

		ts := store.LoadTheme()
		assert.Equal(t, theme.ModeAuto, ts.Mode)
		assert.Equal(t, theme.PaletteClassic, ts.ActivePalette)
	})
}

func TestStateMutations(t *testing.T) {
	t.Parallel()

	t.Run("last enabled location protected", func(t *testing.T) {
		t.Parallel()
		state := DefaultState()
		assert.ErrorIs(t, state.RemoveLocation(0), ErrLastLocation)

		disabled := state.Locations[0]
		disabled.Enabled = false
		assert.ErrorIs(t, state.UpdateLocation(0, disabled), ErrLastLocation)
	})

	t.Run("location capacity", func(t *testing.T) {
		t.Parallel()
		state := DefaultState()
		for i := 1; i < MaxLocations; i++ {
			require.NoError(t, state.AddLocation(Location{Name: "L", Enabled: true}))
		}
		assert.ErrorIs(t, state.AddLocation(Location{Name: "over"}), ErrTooManyLocations)
	})

	t.Run("custom screen fields truncated", func(t *testing.T) {
		t.Parallel()
		state := DefaultState()
		require.NoError(t, state.AddCustomScreen(CustomScreen{
			Header: strings.Repeat("h", 40),
			Body:   strings.Repeat("b", 400),
			Footer: strings.Repeat("f", 60),
		}))
		screen := state.CustomScreens[0]
		assert.Len(t, screen.Header, MaxHeaderLen)
		assert.Len(t, screen.Body, MaxBodyLen)
		assert.Len(t, screen.Footer, MaxFooterLen)
	})

	t.Run("countdown date validation", func(t *testing.T) {
		t.Parallel()
		state := DefaultState()
		assert.Error(t, state.AddCountdown(countdown.Event{Title: "bad", Kind: countdown.KindRecurring, Month: 13, Day: 1}))
		assert.NoError(t, state.AddCountdown(countdown.Event{Title: "easter", Kind: countdown.KindEaster}))
	})

	t.Run("countdown update validates date", func(t *testing.T) {
		t.Parallel()
		state := DefaultState()
		require.NoError(t, state.AddCountdown(countdown.Event{Title: "ok", Kind: countdown.KindRecurring, Month: 9, Day: 2}))
		assert.Error(t, state.UpdateCountdown(0, countdown.Event{Title: "bad", Kind: countdown.KindRecurring, Month: 13, Day: 1}))
		assert.Error(t, state.UpdateCountdown(0, countdown.Event{Title: "bad", Kind: countdown.KindFixedDate, Month: 2, Day: 0}))
		assert.NoError(t, state.UpdateCountdown(0, countdown.Event{Title: "easter", Kind: countdown.KindEaster}))
	})
}

func TestEffectiveBrightness(t *testing.T) {
	t.Parallel()

	settings := DefaultSettings() // night 22-7, brightness 50, night 20

	assert.Equal(t, 50, settings.EffectiveBrightness(12, 6, 18))
	assert.Equal(t, 20, settings.EffectiveBrightness(23, 6, 18))
	assert.Equal(t, 20, settings.EffectiveBrightness(3, 6, 18))
	assert.Equal(t, 20, settings.EffectiveBrightness(22, 6, 18))
	assert.Equal(t, 50, settings.EffectiveBrightness(7, 6, 18))

	t.Run("sun boundaries resolve from snapshot", func(t *testing.T) {
		t.Parallel()
		s := settings
		s.NightModeStart = NightBoundary{Kind: BoundaryAtSunset}
		s.NightModeEnd = NightBoundary{Kind: BoundaryAtSunrise}
		assert.Equal(t, 20, s.EffectiveBrightness(20, 6, 19))
		assert.Equal(t, 50, s.EffectiveBrightness(18, 6, 19))
		assert.Equal(t, 20, s.EffectiveBrightness(5, 6, 19))
		assert.Equal(t, 50, s.EffectiveBrightness(6, 6, 19))
	})

	t.Run("disabled night mode keeps day brightness", func(t *testing.T) {
		t.Parallel()
		s := settings
		s.NightModeEnabled = false
		assert.Equal(t, 50, s.EffectiveBrightness(23, 6, 18))
	})

	t.Run("degenerate window never dims", func(t *testing.T) {
		t.Parallel()
		s := settings
		s.NightModeStart = NightBoundary{Kind: BoundaryFixedHour, Hour: 8}
		s.NightModeEnd = NightBoundary{Kind: BoundaryFixedHour, Hour: 8}
		assert.Equal(t, 50, s.EffectiveBrightness(8, 6, 18))
	})
}

func TestWriteIsAtomic(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.Save(DefaultState()))

	// no temp file left behind
	entries, err := os.ReadDir(filepath.Dir(store.configPath))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"))
	}
}
