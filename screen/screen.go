// Package screen composes the renderable description of the carousel's
// current sub-screen. Compose is pure: it reads state and snapshots,
// resolves the theme, and returns an immutable value for the draw
// layer.
package screen

import (
	"fmt"
	"time"

	"github.com/epicweatherbox/weatherbox/carousel"
	"github.com/epicweatherbox/weatherbox/config"
	"github.com/epicweatherbox/weatherbox/countdown"
	"github.com/epicweatherbox/weatherbox/theme"
	"github.com/epicweatherbox/weatherbox/weather"
)

// Page selects the layout the draw layer uses for a screen.
type Page int

const (
	PageCurrent Page = iota
	PageForecastEarly
	PageForecastLate
	PageCountdown
	PageCustom
	PageStats
	PageUnavailable
)

// forecastPageDays is how many forecast days fit on one page.
const forecastPageDays = 3

// Indicator places the screen among its same-kind siblings, for the
// dot row at the bottom of the display.
type Indicator struct {
	Index int
	Total int
}

// ForecastEntry is one forecast row on a forecast page.
type ForecastEntry struct {
	DayName   string
	TempMax   float64
	TempMin   float64
	Condition weather.Condition
	Precip    float64
}

// Stats is a read-only channel-statistics snapshot for the stats feed
// screen.
type Stats struct {
	ChannelName string
	Subscribers int64
	Views       int64
	Videos      int64
	Valid       bool
	LastUpdate  time.Time
}

// StatsProvider hands out the latest channel statistics.
type StatsProvider interface {
	Stats() Stats
}

// Screen is the immutable renderable value handed to the draw layer.
// Which fields carry meaning depends on Page.
type Screen struct {
	Kind       carousel.Kind
	Page       Page
	Colors     theme.Colors
	Dark       bool
	UseCelsius bool
	NudgeY     int
	Indicator  Indicator

	Title    string
	Subtitle string
	Body     string
	Footer   string

	Temperature   float64
	FeelsLike     float64
	WindSpeed     float64
	WindDirection float64
	Condition     weather.Condition
	Forecast      []ForecastEntry

	DaysLeft int

	Stats Stats
}

// Compose builds the screen for the sequencer's current cursor. An
// empty carousel falls back to the first enabled location's current
// conditions; a dangling reference or invalid snapshot produces a
// not-available screen, never an error.
func Compose(state *config.State, themes config.ThemeState, seq *carousel.Sequencer,
	provider weather.Provider, stats StatsProvider, now time.Time) Screen {

	colors, dark := resolveColors(state, themes, provider, now)

	item, cursor, ok := seq.Current()
	if !ok {
		item = carousel.Item{Kind: carousel.KindLocation, DataIndex: 0}
		cursor = carousel.Cursor{}
	}

	base := Screen{
		Kind:       item.Kind,
		Colors:     colors,
		Dark:       dark,
		UseCelsius: state.Settings.UseCelsius,
		NudgeY:     state.Settings.UINudgeY,
		Indicator:  siblingIndicator(seq, item, cursor),
	}

	switch item.Kind {
	case carousel.KindLocation:
		return composeLocation(base, state, provider, item.DataIndex, cursor.SubIndex)
	case carousel.KindCountdown:
		return composeCountdown(base, state, item.DataIndex, now)
	case carousel.KindCustomText:
		return composeCustom(base, state, item.DataIndex)
	case carousel.KindStatsFeed:
		return composeStats(base, stats)
	default:
		return unavailable(base, "Unknown screen")
	}
}

// resolveColors resolves the active palette. Auto mode follows the
// primary location's day flag, or the fixed night window when no valid
// snapshot exists.
func resolveColors(state *config.State, themes config.ThemeState,
	provider weather.Provider, now time.Time) (theme.Colors, bool) {

	dark := false
	if themes.Mode == theme.ModeAuto {
		snap := weather.Snapshot{}
		if provider != nil {
			snap = provider.Snapshot(0)
		}
		dark = theme.AutoDark(snap.Valid, snap.Current.IsDay, now.Hour())
	}
	return themes.ActiveColors(dark), dark
}

// siblingIndicator counts the screen's position among carousel items of
// the same kind, expanded to sub-screens for location items.
func siblingIndicator(seq *carousel.Sequencer, current carousel.Item, cursor carousel.Cursor) Indicator {
	ind := Indicator{}
	for i, item := range seq.Items() {
		if item.Kind != current.Kind {
			continue
		}
		subs := seq.SubScreens(item)
		if i < cursor.ItemIndex {
			ind.Index += subs
		} else if i == cursor.ItemIndex {
			ind.Index += cursor.SubIndex
		}
		ind.Total += subs
	}
	if ind.Total == 0 {
		ind.Total = 1
	}
	return ind
}

func composeLocation(base Screen, state *config.State, provider weather.Provider,
	dataIndex, subIndex int) Screen {

	loc, ok := state.Location(dataIndex)
	if !ok {
		loc = config.DefaultLocation
	}
	base.Title = loc.Name

	snap := weather.Snapshot{}
	if provider != nil {
		snap = provider.Snapshot(dataIndex)
	}
	if !snap.Valid {
		return unavailable(base, "Weather unavailable")
	}

	switch subIndex {
	case 0:
		base.Page = PageCurrent
		base.Subtitle = snap.Current.Condition.String()
		base.Temperature = snap.Current.Temperature
		base.FeelsLike = snap.Current.FeelsLike
		base.WindSpeed = snap.Current.WindSpeed
		base.WindDirection = snap.Current.WindDirection
		base.Condition = snap.Current.Condition
	case 1:
		base.Page = PageForecastEarly
		base.Forecast = forecastPage(snap.Forecast, 0)
	default:
		base.Page = PageForecastLate
		base.Forecast = forecastPage(snap.Forecast, forecastPageDays)
	}
	if len(base.Forecast) == 0 && base.Page != PageCurrent {
		return unavailable(base, "Forecast unavailable")
	}
	return base
}

// forecastPage slices one page of forecast rows, skipping today.
func forecastPage(days []weather.ForecastDay, offset int) []ForecastEntry {
	start := 1 + offset
	entries := make([]ForecastEntry, 0, forecastPageDays)
	for i := start; i < len(days) && i < start+forecastPageDays; i++ {
		entries = append(entries, ForecastEntry{
			DayName:   days[i].DayName,
			TempMax:   days[i].TempMax,
			TempMin:   days[i].TempMin,
			Condition: days[i].Condition,
			Precip:    days[i].PrecipProb,
		})
	}
	return entries
}

func composeCountdown(base Screen, state *config.State, dataIndex int, now time.Time) Screen {
	event, ok := state.Countdown(dataIndex)
	if !ok {
		return unavailable(base, "Countdown removed")
	}

	base.Page = PageCountdown
	base.Title = event.Title
	base.DaysLeft = countdown.DaysUntil(event, now)
	switch base.DaysLeft {
	case 0:
		base.Subtitle = "Today!"
	case 1:
		base.Subtitle = "1 day to go"
	default:
		base.Subtitle = fmt.Sprintf("%d days to go", base.DaysLeft)
	}
	return base
}

func composeCustom(base Screen, state *config.State, dataIndex int) Screen {
	custom, ok := state.CustomScreen(dataIndex)
	if !ok {
		return unavailable(base, "Screen removed")
	}

	base.Page = PageCustom
	base.Title = custom.Header
	base.Body = custom.Body
	base.Footer = custom.Footer
	return base
}

func composeStats(base Screen, provider StatsProvider) Screen {
	s := Stats{}
	if provider != nil {
		s = provider.Stats()
	}
	if !s.Valid {
		return unavailable(base, "Stats unavailable")
	}

	base.Page = PageStats
	base.Title = s.ChannelName
	base.Subtitle = fmt.Sprintf("%s subscribers", compactCount(s.Subscribers))
	base.Stats = s
	return base
}

func unavailable(base Screen, message string) Screen {
	base.Page = PageUnavailable
	base.Body = message
	return base
}

// compactCount formats a count the way the device shows large numbers,
// e.g. 12.4K or 1.2M.
func compactCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
