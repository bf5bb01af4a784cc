package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Schema history:
//
//	v1: two fixed location slots ("primary"/"secondary"), a single
//	    custom screen as flat customScreen* fields, no carousel array,
//	    no schemaVersion field.
//	v2: generalized locations[], carousel[], countdowns[],
//	    customScreens[].
//
// Each entry migrates a document from its version to the next, so new
// versions only add a function here instead of re-deriving old-format
// detection on every load.
var migrations = map[int]func([]byte) ([]byte, error){
	1: migrateV1toV2,
}

// migrateDocument detects the stored schema version and applies the
// migration chain left-to-right until the document is current.
func migrateDocument(data []byte) ([]byte, error) {
	version := detectVersion(data)
	for version < CurrentSchema {
		step, ok := migrations[version]
		if !ok {
			return nil, fmt.Errorf("no migration from schema version %d", version)
		}
		migrated, err := step(data)
		if err != nil {
			return nil, fmt.Errorf("migrating schema v%d: %w", version, err)
		}
		slog.Info("migrated config document", "from", version, "to", version+1)
		data = migrated
		version++
	}
	return data, nil
}

func detectVersion(data []byte) int {
	var probe struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return CurrentSchema // let the loader surface the corruption
	}
	if probe.SchemaVersion == 0 {
		return 1 // pre-versioned documents are the legacy two-slot layout
	}
	return probe.SchemaVersion
}

// documentV1 is the legacy two-slot layout.
type documentV1 struct {
	Primary   *Location `json:"primary"`
	Secondary *Location `json:"secondary"`

	CustomScreenEnabled bool   `json:"customScreenEnabled"`
	CustomScreenHeader  string `json:"customScreenHeader"`
	CustomScreenBody    string `json:"customScreenBody"`
	CustomScreenFooter  string `json:"customScreenFooter"`

	UseCelsius          *bool `json:"useCelsius"`
	Brightness          *int  `json:"brightness"`
	NightModeEnabled    *bool `json:"nightModeEnabled"`
	NightModeStartHour  *int  `json:"nightModeStartHour"`
	NightModeEndHour    *int  `json:"nightModeEndHour"`
	NightModeBrightness *int  `json:"nightModeBrightness"`
	CycleSeconds        *int  `json:"cycleSeconds"`
	ShowForecast        *bool `json:"showForecast"`
	UINudgeY            *int  `json:"uiNudgeY"`
}

// migrateV1toV2 synthesizes the generalized layout from the two-slot
// one: the primary slot always migrates, the secondary only when it is
// enabled and named, and the carousel becomes one location item per
// migrated location in primary-then-secondary order.
func migrateV1toV2(data []byte) ([]byte, error) {
	var legacy documentV1
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to parse legacy document: %w", err)
	}

	doc := defaultDocument()

	if legacy.Primary != nil {
		doc.Locations = append(doc.Locations, *legacy.Primary)
	}
	if legacy.Secondary != nil && legacy.Secondary.Enabled && legacy.Secondary.Name != "" {
		doc.Locations = append(doc.Locations, *legacy.Secondary)
	}

	// carousel left nil: the loader synthesizes one item per location

	if legacy.CustomScreenEnabled {
		doc.CustomScreens = []CustomScreen{clampCustomScreen(CustomScreen{
			Header: legacy.CustomScreenHeader,
			Body:   legacy.CustomScreenBody,
			Footer: legacy.CustomScreenFooter,
		}, legacyMaxBodyLen)}
	}

	if legacy.UseCelsius != nil {
		doc.UseCelsius = *legacy.UseCelsius
	}
	if legacy.Brightness != nil {
		doc.Brightness = *legacy.Brightness
	}
	if legacy.NightModeEnabled != nil {
		doc.NightModeEnabled = *legacy.NightModeEnabled
	}
	if legacy.NightModeStartHour != nil {
		doc.NightModeStartHour = *legacy.NightModeStartHour
	}
	if legacy.NightModeEndHour != nil {
		doc.NightModeEndHour = *legacy.NightModeEndHour
	}
	if legacy.NightModeBrightness != nil {
		doc.NightModeBrightness = *legacy.NightModeBrightness
	}
	if legacy.CycleSeconds != nil {
		doc.CycleSeconds = *legacy.CycleSeconds
	}
	if legacy.ShowForecast != nil {
		doc.ShowForecast = *legacy.ShowForecast
	}
	if legacy.UINudgeY != nil {
		doc.UINudgeY = *legacy.UINudgeY
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize migrated document: %w", err)
	}
	return out, nil
}
