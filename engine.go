package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/epicweatherbox/weatherbox/api"
	"github.com/epicweatherbox/weatherbox/carousel"
	"github.com/epicweatherbox/weatherbox/config"
	"github.com/epicweatherbox/weatherbox/countdown"
	"github.com/epicweatherbox/weatherbox/display"
	"github.com/epicweatherbox/weatherbox/gifsafe"
	"github.com/epicweatherbox/weatherbox/screen"
	"github.com/epicweatherbox/weatherbox/store"
	"github.com/epicweatherbox/weatherbox/weather"
)

// Engine owns all mutable display state. A single goroutine runs the
// tick loop and drains the request mailbox, so admin mutations and
// carousel advances never interleave mid-render.
type Engine struct {
	cfg    *config.Store
	state  *config.State
	themes config.ThemeState
	seq    *carousel.Sequencer

	weatherMgr *weather.Manager
	weatherCli *weather.Client
	statsFeed  screen.StatsProvider
	db         *store.Database
	safety     *gifsafe.Controller

	renderer *display.Renderer
	sink     display.Sink
	anim     display.AnimationSink
	gifDir   string

	// assetCursor walks the validated assets round-robin, one
	// interstitial per full carousel rotation.
	assetCursor int

	clock    clockwork.Clock
	requests chan func()
}

func NewEngine(cfg *config.Store, weatherCli *weather.Client, weatherMgr *weather.Manager,
	statsFeed screen.StatsProvider, db *store.Database, safety *gifsafe.Controller,
	sink display.Sink, anim display.AnimationSink, gifDir string, clock clockwork.Clock) *Engine {

	state := cfg.Load()
	themes := cfg.LoadTheme()

	e := &Engine{
		cfg:        cfg,
		state:      state,
		themes:     themes,
		seq:        carousel.New(state.Carousel, state.Settings.ShowForecast),
		weatherMgr: weatherMgr,
		weatherCli: weatherCli,
		statsFeed:  statsFeed,
		db:         db,
		safety:     safety,
		renderer:   display.NewRenderer(),
		sink:       sink,
		anim:       anim,
		gifDir:     gifDir,
		clock:      clock,
		requests:   make(chan func()),
	}

	weatherCli.SetUseCelsius(state.Settings.UseCelsius)
	weatherMgr.SetPlaces(e.places())

	return e
}

// Run is the engine goroutine. Everything that touches state happens
// here: timed advances, admin mutations, and re-renders on new data.
func (e *Engine) Run(ctx context.Context) {
	ticker := e.clock.NewTicker(e.cycle())
	defer ticker.Stop()

	e.render()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			e.advance()
			e.render()
		case fn := <-e.requests:
			fn()
			ticker.Reset(e.cycle())
			e.render()
		case <-e.weatherMgr.Updated:
			e.render()
		}
	}
}

func (e *Engine) cycle() time.Duration {
	return time.Duration(e.state.Settings.CycleSeconds) * time.Second
}

// advance steps the carousel. Completing a full rotation is the moment
// to slip in an animated interstitial if a validated asset exists.
func (e *Engine) advance() {
	if e.seq.Len() == 0 {
		return
	}
	e.seq.Advance()
	cursor := e.seq.Cursor()
	if cursor.ItemIndex == 0 && cursor.SubIndex == 0 {
		e.playAnimation()
	}
}

// playAnimation hands the next validated asset to the playback sink,
// bracketed by the crash-attribution marker. Decoding happens on the
// far side of the sink.
func (e *Engine) playAnimation() {
	if e.anim == nil || e.db == nil {
		return
	}

	assets, err := e.db.GetAssets()
	if err != nil {
		slog.Warn("unable to list animated assets", "error", err)
		return
	}
	validated := assets[:0]
	for _, a := range assets {
		if a.Validated {
			validated = append(validated, a)
		}
	}
	if len(validated) == 0 {
		return
	}

	e.assetCursor %= len(validated)
	asset := validated[e.assetCursor]
	e.assetCursor++

	path := filepath.Join(e.gifDir, asset.AssetName)
	if err := e.safety.BeginAttempt(path); err != nil {
		slog.Warn("unable to mark playback attempt", "asset", asset.AssetName, "error", err)
		return
	}
	if err := e.anim.PresentAnimation(path); err != nil {
		slog.Warn("unable to present animation", "asset", asset.AssetName, "error", err)
	}
	e.safety.EndAttempt()
}

func (e *Engine) render() {
	frame := e.renderer.Render(screen.Compose(
		e.state, e.themes, e.seq, e.weatherMgr, e.statsFeed, e.clock.Now()))
	if err := e.sink.Present(frame); err != nil {
		slog.Warn("unable to present frame", "error", err)
	}
}

// places maps the location list onto weather fetch targets, keeping
// indices aligned with the carousel's data indices.
func (e *Engine) places() []weather.Place {
	places := make([]weather.Place, len(e.state.Locations))
	for i, loc := range e.state.Locations {
		places[i] = weather.Place{Name: loc.Name, Latitude: loc.Latitude, Longitude: loc.Longitude}
	}
	return places
}

// save persists the current state, carrying the sequencer's item order
// into the document.
func (e *Engine) save() {
	e.state.Carousel = e.seq.Items()
	if err := e.cfg.Save(e.state); err != nil {
		slog.Error("unable to save configuration", "error", err)
	}
}

// call runs fn on the engine goroutine and waits for its result.
func (e *Engine) call(fn func() error) error {
	errc := make(chan error, 1)
	e.requests <- func() { errc <- fn() }
	return <-errc
}

// Snapshot returns a detached copy of the state for the admin API.
func (e *Engine) Snapshot() api.Snapshot {
	var snap api.Snapshot
	e.call(func() error {
		state := *e.state
		state.Locations = slices.Clone(e.state.Locations)
		state.Carousel = e.seq.Items()
		state.Countdowns = slices.Clone(e.state.Countdowns)
		state.CustomScreens = slices.Clone(e.state.CustomScreens)

		snap = api.Snapshot{
			State:        state,
			Theme:        e.themes,
			Cursor:       e.seq.Cursor(),
			WeatherValid: e.weatherMgr.Snapshot(0).Valid,
			Brightness:   e.effectiveBrightness(),
		}
		return nil
	})
	return snap
}

// effectiveBrightness applies the night window to the configured
// brightness, resolving sunrise/sunset boundaries against the primary
// snapshot. Without a valid snapshot the boundaries fall back to the
// same 6/18 hours an empty forecast does.
func (e *Engine) effectiveBrightness() int {
	snap := e.weatherMgr.Snapshot(0)
	sunrise, sunset := snap.SunriseHour, snap.SunsetHour
	if !snap.Valid {
		sunrise, sunset = 6, 18
	}
	return e.state.Settings.EffectiveBrightness(e.clock.Now().Hour(), sunrise, sunset)
}

func (e *Engine) UpdateSettings(settings config.Settings) error {
	return e.call(func() error {
		e.state.UpdateSettings(settings)
		e.seq.SetShowForecast(e.state.Settings.ShowForecast)
		e.weatherCli.SetUseCelsius(e.state.Settings.UseCelsius)
		e.save()
		return nil
	})
}

func (e *Engine) UpdateTheme(themes config.ThemeState) error {
	return e.call(func() error {
		themes.Sanitize()
		e.themes = themes
		if err := e.cfg.SaveTheme(e.themes); err != nil {
			slog.Error("unable to save theme", "error", err)
		}
		return nil
	})
}

func (e *Engine) AddLocation(loc config.Location) error {
	return e.call(func() error {
		if err := e.state.AddLocation(loc); err != nil {
			return err
		}
		e.weatherMgr.SetPlaces(e.places())
		e.weatherMgr.RefreshNow()
		e.save()
		return nil
	})
}

func (e *Engine) UpdateLocation(index int, loc config.Location) error {
	return e.call(func() error {
		if err := e.state.UpdateLocation(index, loc); err != nil {
			return err
		}
		e.weatherMgr.SetPlaces(e.places())
		e.weatherMgr.RefreshNow()
		e.save()
		return nil
	})
}

func (e *Engine) RemoveLocation(index int) error {
	return e.call(func() error {
		if err := e.state.RemoveLocation(index); err != nil {
			return err
		}
		e.seq.RemoveKindData(carousel.KindLocation, index)
		e.weatherMgr.SetPlaces(e.places())
		e.save()
		return nil
	})
}

func (e *Engine) AddCountdown(event countdown.Event) error {
	return e.call(func() error {
		if err := e.state.AddCountdown(event); err != nil {
			return err
		}
		e.save()
		return nil
	})
}

func (e *Engine) UpdateCountdown(index int, event countdown.Event) error {
	return e.call(func() error {
		if err := e.state.UpdateCountdown(index, event); err != nil {
			return err
		}
		e.save()
		return nil
	})
}

func (e *Engine) RemoveCountdown(index int) error {
	return e.call(func() error {
		if err := e.state.RemoveCountdown(index); err != nil {
			return err
		}
		e.seq.RemoveKindData(carousel.KindCountdown, index)
		e.save()
		return nil
	})
}

func (e *Engine) AddCustomScreen(screen config.CustomScreen) error {
	return e.call(func() error {
		if err := e.state.AddCustomScreen(screen); err != nil {
			return err
		}
		e.save()
		return nil
	})
}

func (e *Engine) UpdateCustomScreen(index int, screen config.CustomScreen) error {
	return e.call(func() error {
		if err := e.state.UpdateCustomScreen(index, screen); err != nil {
			return err
		}
		e.save()
		return nil
	})
}

func (e *Engine) RemoveCustomScreen(index int) error {
	return e.call(func() error {
		if err := e.state.RemoveCustomScreen(index); err != nil {
			return err
		}
		e.seq.RemoveKindData(carousel.KindCustomText, index)
		e.save()
		return nil
	})
}

func (e *Engine) AddCarouselItem(item carousel.Item) error {
	return e.call(func() error {
		if err := e.seq.Add(item); err != nil {
			return err
		}
		e.save()
		return nil
	})
}

func (e *Engine) RemoveCarouselItem(index int) error {
	return e.call(func() error {
		if err := e.seq.RemoveAt(index); err != nil {
			return err
		}
		e.save()
		return nil
	})
}

func (e *Engine) MoveCarouselItem(from, to int) error {
	return e.call(func() error {
		if err := e.seq.Move(from, to); err != nil {
			return err
		}
		e.save()
		return nil
	})
}

// ForceRefresh resets the rotation to its first screen and kicks an
// immediate weather update. The request branch of the loop restarts
// the cycle timer and re-renders.
func (e *Engine) ForceRefresh() {
	e.call(func() error {
		e.seq.Reset()
		e.weatherMgr.RefreshNow()
		return nil
	})
}

var _ api.Engine = (*Engine)(nil)
