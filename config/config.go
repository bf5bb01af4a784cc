// Package config holds the persisted device configuration and its
// schema migrations
package config

import (
	"errors"
	"fmt"

	"github.com/epicweatherbox/weatherbox/carousel"
	"github.com/epicweatherbox/weatherbox/countdown"
	"github.com/epicweatherbox/weatherbox/theme"
)

// Capacity limits for the configuration arrays.
const (
	MaxLocations     = 5
	MaxCustomScreens = 3

	MaxHeaderLen = 16
	MaxBodyLen   = 160
	MaxFooterLen = 30

	// legacy schema generations stored shorter bodies
	legacyMaxBodyLen = 80
)

// Display settings bounds, from the device hardware.
const (
	MinBrightness = 0
	MaxBrightness = 100

	MinCycleSeconds = 3
	MaxCycleSeconds = 120
)

var (
	ErrTooManyLocations  = errors.New("location list is full")
	ErrLastLocation      = errors.New("cannot remove the last enabled location")
	ErrTooManyCountdowns = errors.New("countdown list is full")
	ErrTooManyCustom     = errors.New("custom screen list is full")
	ErrIndexOutOfRange   = errors.New("index out of range")
)

// Location is one configured weather location.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Enabled   bool    `json:"enabled"`
}

// DefaultLocation is substituted whenever no enabled location survives a
// load, so the device always has something to show.
var DefaultLocation = Location{
	Name:      "Seattle",
	Latitude:  47.6062,
	Longitude: -122.3321,
	Enabled:   true,
}

// CustomScreen is a user-defined text screen.
type CustomScreen struct {
	Header string `json:"header"`
	Body   string `json:"body"`
	Footer string `json:"footer"`
}

// BoundaryKind selects how a night-mode boundary is interpreted.
type BoundaryKind int

const (
	BoundaryFixedHour BoundaryKind = iota
	BoundaryAtSunrise
	BoundaryAtSunset
)

// NightBoundary is a night-mode start or end. The persisted document
// encodes it as an hour-of-day integer with -1 meaning sunrise and -2
// meaning sunset; in memory the sentinel never leaks past this type.
type NightBoundary struct {
	Kind BoundaryKind
	Hour int // valid only for BoundaryFixedHour
}

const (
	sentinelSunrise = -1
	sentinelSunset  = -2
)

// Resolve returns the concrete hour for the boundary given the current
// sunrise/sunset hours from the primary weather snapshot.
func (b NightBoundary) Resolve(sunriseHour, sunsetHour int) int {
	switch b.Kind {
	case BoundaryAtSunrise:
		return sunriseHour
	case BoundaryAtSunset:
		return sunsetHour
	default:
		return b.Hour
	}
}

// EncodeHour packs the boundary into the document's hour-with-sentinel
// form.
func (b NightBoundary) EncodeHour() int {
	switch b.Kind {
	case BoundaryAtSunrise:
		return sentinelSunrise
	case BoundaryAtSunset:
		return sentinelSunset
	default:
		return b.Hour
	}
}

// DecodeBoundary is the inverse of EncodeHour. Out-of-range hours
// clamp to midnight.
func DecodeBoundary(v int) NightBoundary {
	switch {
	case v == sentinelSunrise:
		return NightBoundary{Kind: BoundaryAtSunrise}
	case v == sentinelSunset:
		return NightBoundary{Kind: BoundaryAtSunset}
	case v >= 0 && v <= 23:
		return NightBoundary{Kind: BoundaryFixedHour, Hour: v}
	default:
		return NightBoundary{Kind: BoundaryFixedHour, Hour: 0}
	}
}

// Settings are the scalar display settings.
type Settings struct {
	UseCelsius          bool
	Brightness          int
	NightModeEnabled    bool
	NightModeStart      NightBoundary
	NightModeEnd        NightBoundary
	NightModeBrightness int
	CycleSeconds        int
	ShowForecast        bool
	UINudgeY            int
}

// DefaultSettings mirrors the device firmware defaults.
func DefaultSettings() Settings {
	return Settings{
		UseCelsius:          true,
		Brightness:          50,
		NightModeEnabled:    true,
		NightModeStart:      NightBoundary{Kind: BoundaryFixedHour, Hour: 22},
		NightModeEnd:        NightBoundary{Kind: BoundaryFixedHour, Hour: 7},
		NightModeBrightness: 20,
		CycleSeconds:        10,
		ShowForecast:        true,
	}
}

// UpdateSettings replaces the scalar settings, clamping brightness and
// cycle time into range.
func (s *State) UpdateSettings(settings Settings) {
	settings.Brightness = clampInt(settings.Brightness, MinBrightness, MaxBrightness)
	settings.NightModeBrightness = clampInt(settings.NightModeBrightness, MinBrightness, MaxBrightness)
	if settings.CycleSeconds < MinCycleSeconds || settings.CycleSeconds > MaxCycleSeconds {
		settings.CycleSeconds = DefaultSettings().CycleSeconds
	}
	s.Settings = settings
}

// NightActive reports whether the night window covers the given local
// hour. Sunrise/sunset boundaries resolve against the primary
// location's snapshot hours.
func (s Settings) NightActive(hour, sunriseHour, sunsetHour int) bool {
	if !s.NightModeEnabled {
		return false
	}
	start := s.NightModeStart.Resolve(sunriseHour, sunsetHour)
	end := s.NightModeEnd.Resolve(sunriseHour, sunsetHour)
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// EffectiveBrightness is the panel brightness to apply at the given
// local hour.
func (s Settings) EffectiveBrightness(hour, sunriseHour, sunsetHour int) int {
	if s.NightActive(hour, sunriseHour, sunsetHour) {
		return s.NightModeBrightness
	}
	return s.Brightness
}

// ThemeState is persisted in its own document, separate from the main
// configuration.
type ThemeState struct {
	Mode          theme.Mode    `json:"mode"`
	ActivePalette int           `json:"activeTheme"`
	Custom        theme.Palette `json:"custom"`
}

// DefaultThemeState selects the Classic palette in auto mode.
func DefaultThemeState() ThemeState {
	return ThemeState{
		Mode:          theme.ModeAuto,
		ActivePalette: theme.PaletteClassic,
		Custom:        theme.DefaultCustom(),
	}
}

// Sanitize repairs an out-of-range mode, palette index, or empty
// custom palette.
func (t *ThemeState) Sanitize() {
	if t.Mode < theme.ModeAuto || t.Mode > theme.ModeLight {
		t.Mode = theme.ModeAuto
	}
	if t.ActivePalette < 0 || t.ActivePalette >= theme.PaletteCount {
		t.ActivePalette = theme.PaletteClassic
	}
	if t.Custom.Name == "" {
		t.Custom = theme.DefaultCustom()
	}
}

// ActiveColors resolves the active palette's variant for the dark
// signal.
func (t ThemeState) ActiveColors(dark bool) theme.Colors {
	p := theme.Builtin(t.ActivePalette)
	if t.ActivePalette == theme.PaletteCustom {
		p = t.Custom
	}
	return theme.Resolve(p, t.Mode, dark)
}

// State is the whole in-memory configuration. One instance exists for
// the process lifetime and is owned by the engine goroutine; every
// public operation below leaves the capacity and at-least-one-location
// invariants intact before returning.
type State struct {
	Locations     []Location        `json:"locations"`
	Carousel      []carousel.Item   `json:"carousel"`
	Countdowns    []countdown.Event `json:"countdowns"`
	CustomScreens []CustomScreen    `json:"customScreens"`
	Settings      Settings          `json:"-"`
}

// DefaultState is a single default location with a one-item carousel.
func DefaultState() *State {
	return &State{
		Locations: []Location{DefaultLocation},
		Carousel:  []carousel.Item{{Kind: carousel.KindLocation, DataIndex: 0}},
		Settings:  DefaultSettings(),
	}
}

// Location returns the location at index with centralized bounds
// checking. A carousel item can hold a stale index after external edits
// to the document, so every read funnels through here.
func (s *State) Location(index int) (Location, bool) {
	if index < 0 || index >= len(s.Locations) {
		return Location{}, false
	}
	return s.Locations[index], true
}

// Countdown returns the countdown event at index.
func (s *State) Countdown(index int) (countdown.Event, bool) {
	if index < 0 || index >= len(s.Countdowns) {
		return countdown.Event{}, false
	}
	return s.Countdowns[index], true
}

// CustomScreen returns the custom screen at index.
func (s *State) CustomScreen(index int) (CustomScreen, bool) {
	if index < 0 || index >= len(s.CustomScreens) {
		return CustomScreen{}, false
	}
	return s.CustomScreens[index], true
}

// EnabledLocations counts locations with the enabled flag set.
func (s *State) EnabledLocations() int {
	count := 0
	for _, loc := range s.Locations {
		if loc.Enabled {
			count++
		}
	}
	return count
}

// AddLocation appends a location.
func (s *State) AddLocation(loc Location) error {
	if len(s.Locations) >= MaxLocations {
		return ErrTooManyLocations
	}
	if loc.Name == "" {
		return errors.New("location name is required")
	}
	s.Locations = append(s.Locations, loc)
	return nil
}

// UpdateLocation replaces the location at index. Disabling the last
// enabled location is rejected.
func (s *State) UpdateLocation(index int, loc Location) error {
	if index < 0 || index >= len(s.Locations) {
		return ErrIndexOutOfRange
	}
	if !loc.Enabled && s.Locations[index].Enabled && s.EnabledLocations() == 1 {
		return ErrLastLocation
	}
	s.Locations[index] = loc
	return nil
}

// RemoveLocation deletes the location at index, compacting the list.
// Carousel items referencing a higher index must be re-indexed by the
// caller through the sequencer. Removing the last enabled location is
// rejected.
func (s *State) RemoveLocation(index int) error {
	if index < 0 || index >= len(s.Locations) {
		return ErrIndexOutOfRange
	}
	if s.Locations[index].Enabled && s.EnabledLocations() == 1 {
		return ErrLastLocation
	}
	s.Locations = append(s.Locations[:index], s.Locations[index+1:]...)
	return nil
}

// validateCountdownDate rejects impossible month/day pairs. Easter
// events carry no date of their own.
func validateCountdownDate(event countdown.Event) error {
	if event.Kind == countdown.KindEaster {
		return nil
	}
	if event.Month < 1 || event.Month > 12 || event.Day < 1 || event.Day > 31 {
		return fmt.Errorf("invalid countdown date %d/%d", event.Month, event.Day)
	}
	return nil
}

// AddCountdown appends a countdown event.
func (s *State) AddCountdown(event countdown.Event) error {
	if len(s.Countdowns) >= countdown.MaxEvents {
		return ErrTooManyCountdowns
	}
	if err := validateCountdownDate(event); err != nil {
		return err
	}
	s.Countdowns = append(s.Countdowns, event)
	return nil
}

// UpdateCountdown replaces the countdown at index.
func (s *State) UpdateCountdown(index int, event countdown.Event) error {
	if index < 0 || index >= len(s.Countdowns) {
		return ErrIndexOutOfRange
	}
	if err := validateCountdownDate(event); err != nil {
		return err
	}
	s.Countdowns[index] = event
	return nil
}

// RemoveCountdown deletes the countdown at index.
func (s *State) RemoveCountdown(index int) error {
	if index < 0 || index >= len(s.Countdowns) {
		return ErrIndexOutOfRange
	}
	s.Countdowns = append(s.Countdowns[:index], s.Countdowns[index+1:]...)
	return nil
}

// AddCustomScreen appends a custom text screen, truncating fields to
// their display limits.
func (s *State) AddCustomScreen(screen CustomScreen) error {
	if len(s.CustomScreens) >= MaxCustomScreens {
		return ErrTooManyCustom
	}
	s.CustomScreens = append(s.CustomScreens, clampCustomScreen(screen, MaxBodyLen))
	return nil
}

// UpdateCustomScreen replaces the custom screen at index.
func (s *State) UpdateCustomScreen(index int, screen CustomScreen) error {
	if index < 0 || index >= len(s.CustomScreens) {
		return ErrIndexOutOfRange
	}
	s.CustomScreens[index] = clampCustomScreen(screen, MaxBodyLen)
	return nil
}

// RemoveCustomScreen deletes the custom screen at index.
func (s *State) RemoveCustomScreen(index int) error {
	if index < 0 || index >= len(s.CustomScreens) {
		return ErrIndexOutOfRange
	}
	s.CustomScreens = append(s.CustomScreens[:index], s.CustomScreens[index+1:]...)
	return nil
}

func clampCustomScreen(screen CustomScreen, bodyLimit int) CustomScreen {
	screen.Header = truncate(screen.Header, MaxHeaderLen)
	screen.Body = truncate(screen.Body, bodyLimit)
	screen.Footer = truncate(screen.Footer, MaxFooterLen)
	return screen
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// sanitize repairs a freshly loaded state so every invariant holds:
// bounded list lengths, clamped scalar settings, at least one enabled
// location, and carousel items that reference real data.
func (s *State) sanitize() {
	if len(s.Locations) > MaxLocations {
		s.Locations = s.Locations[:MaxLocations]
	}
	if len(s.Countdowns) > countdown.MaxEvents {
		s.Countdowns = s.Countdowns[:countdown.MaxEvents]
	}
	if len(s.CustomScreens) > MaxCustomScreens {
		s.CustomScreens = s.CustomScreens[:MaxCustomScreens]
	}
	for i := range s.CustomScreens {
		s.CustomScreens[i] = clampCustomScreen(s.CustomScreens[i], MaxBodyLen)
	}

	if s.EnabledLocations() == 0 {
		s.Locations = []Location{DefaultLocation}
		s.Carousel = nil
	}

	// A missing carousel array is synthesized from the location list; an
	// explicitly empty one is a valid state and stays empty.
	if s.Carousel == nil {
		for i := range s.Locations {
			s.Carousel = append(s.Carousel, carousel.Item{Kind: carousel.KindLocation, DataIndex: i})
		}
	}

	kept := s.Carousel[:0]
	for _, item := range s.Carousel {
		if !s.itemResolves(item) {
			continue
		}
		kept = append(kept, item)
	}
	s.Carousel = kept

	s.Settings.Brightness = clampInt(s.Settings.Brightness, MinBrightness, MaxBrightness)
	s.Settings.NightModeBrightness = clampInt(s.Settings.NightModeBrightness, MinBrightness, MaxBrightness)
	if s.Settings.CycleSeconds < MinCycleSeconds || s.Settings.CycleSeconds > MaxCycleSeconds {
		s.Settings.CycleSeconds = DefaultSettings().CycleSeconds
	}
}

// itemResolves reports whether a carousel item points at existing data.
func (s *State) itemResolves(item carousel.Item) bool {
	switch item.Kind {
	case carousel.KindLocation:
		_, ok := s.Location(item.DataIndex)
		return ok
	case carousel.KindCountdown:
		_, ok := s.Countdown(item.DataIndex)
		return ok
	case carousel.KindCustomText:
		_, ok := s.CustomScreen(item.DataIndex)
		return ok
	case carousel.KindStatsFeed:
		return true
	default:
		return false
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
