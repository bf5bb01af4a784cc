package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/epicweatherbox/weatherbox/carousel"
	"github.com/epicweatherbox/weatherbox/countdown"
)

// Document file names, matching the firmware's flash layout.
const (
	configFileName = "config.json"
	themeFileName  = "themes.json"
)

// CurrentSchema is the schema version this build writes.
const CurrentSchema = 2

// Store reads and writes whole configuration documents under a root
// directory, the flash-backed file abstraction of the device.
type Store struct {
	configPath string
	themePath  string
}

// NewStore creates the root directory if needed and returns a store
// bound to it.
func NewStore(rootPath string) (*Store, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return &Store{
		configPath: filepath.Join(rootPath, configFileName),
		themePath:  filepath.Join(rootPath, themeFileName),
	}, nil
}

// document is the serialized shape of State. Scalar settings use the
// firmware's field names so documents written by older device builds
// keep loading.
type document struct {
	SchemaVersion int               `json:"schemaVersion"`
	Locations     []Location        `json:"locations"`
	Carousel      []carousel.Item   `json:"carousel,omitempty"`
	Countdowns    []countdown.Event `json:"countdowns,omitempty"`
	CustomScreens []CustomScreen    `json:"customScreens,omitempty"`

	UseCelsius          bool `json:"useCelsius"`
	Brightness          int  `json:"brightness"`
	NightModeEnabled    bool `json:"nightModeEnabled"`
	NightModeStartHour  int  `json:"nightModeStartHour"`
	NightModeEndHour    int  `json:"nightModeEndHour"`
	NightModeBrightness int  `json:"nightModeBrightness"`
	CycleSeconds        int  `json:"cycleSeconds"`
	ShowForecast        bool `json:"showForecast"`
	UINudgeY            int  `json:"uiNudgeY"`
}

func defaultDocument() document {
	settings := DefaultSettings()
	return document{
		SchemaVersion:       CurrentSchema,
		UseCelsius:          settings.UseCelsius,
		Brightness:          settings.Brightness,
		NightModeEnabled:    settings.NightModeEnabled,
		NightModeStartHour:  settings.NightModeStart.EncodeHour(),
		NightModeEndHour:    settings.NightModeEnd.EncodeHour(),
		NightModeBrightness: settings.NightModeBrightness,
		CycleSeconds:        settings.CycleSeconds,
		ShowForecast:        settings.ShowForecast,
		UINudgeY:            settings.UINudgeY,
	}
}

func (d document) toState() *State {
	state := &State{
		Locations:     d.Locations,
		Carousel:      d.Carousel,
		Countdowns:    d.Countdowns,
		CustomScreens: d.CustomScreens,
		Settings: Settings{
			UseCelsius:          d.UseCelsius,
			Brightness:          d.Brightness,
			NightModeEnabled:    d.NightModeEnabled,
			NightModeStart:      DecodeBoundary(d.NightModeStartHour),
			NightModeEnd:        DecodeBoundary(d.NightModeEndHour),
			NightModeBrightness: d.NightModeBrightness,
			CycleSeconds:        d.CycleSeconds,
			ShowForecast:        d.ShowForecast,
			UINudgeY:            d.UINudgeY,
		},
	}
	state.sanitize()
	return state
}

func stateToDocument(s *State) document {
	return document{
		SchemaVersion:       CurrentSchema,
		Locations:           s.Locations,
		Carousel:            s.Carousel,
		Countdowns:          s.Countdowns,
		CustomScreens:       s.CustomScreens,
		UseCelsius:          s.Settings.UseCelsius,
		Brightness:          s.Settings.Brightness,
		NightModeEnabled:    s.Settings.NightModeEnabled,
		NightModeStartHour:  s.Settings.NightModeStart.EncodeHour(),
		NightModeEndHour:    s.Settings.NightModeEnd.EncodeHour(),
		NightModeBrightness: s.Settings.NightModeBrightness,
		CycleSeconds:        s.Settings.CycleSeconds,
		ShowForecast:        s.Settings.ShowForecast,
		UINudgeY:            s.Settings.UINudgeY,
	}
}

// Load reads the configuration document. It never fails: an absent,
// unreadable, or corrupt document yields the built-in defaults, and
// older schema versions are migrated forward.
func (s *Store) Load() *State {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("unable to read config document, using defaults", "path", s.configPath, "error", err)
		}
		return DefaultState()
	}

	data, err = migrateDocument(data)
	if err != nil {
		slog.Warn("config document migration failed, using defaults", "path", s.configPath, "error", err)
		return DefaultState()
	}

	doc := defaultDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("corrupt config document, using defaults", "path", s.configPath, "error", err)
		return DefaultState()
	}

	return doc.toState()
}

// Save serializes the state and rewrites the whole document.
func (s *Store) Save(state *State) error {
	return writeDocument(s.configPath, stateToDocument(state))
}

// LoadTheme reads the theme document, falling back to defaults the same
// way Load does.
func (s *Store) LoadTheme() ThemeState {
	ts := DefaultThemeState()

	data, err := os.ReadFile(s.themePath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("unable to read theme document, using defaults", "path", s.themePath, "error", err)
		}
		return ts
	}

	if err := json.Unmarshal(data, &ts); err != nil {
		slog.Warn("corrupt theme document, using defaults", "path", s.themePath, "error", err)
		return DefaultThemeState()
	}

	ts.Sanitize()
	return ts
}

// SaveTheme rewrites the theme document.
func (s *Store) SaveTheme(ts ThemeState) error {
	return writeDocument(s.themePath, ts)
}

// writeDocument writes through a temp file and rename so a power loss
// mid-write never leaves a truncated document.
func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}
