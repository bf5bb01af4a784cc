// Package models tracks all api models for request and responses
package models

import (
	"github.com/epicweatherbox/weatherbox/carousel"
	"github.com/epicweatherbox/weatherbox/config"
	"github.com/epicweatherbox/weatherbox/countdown"
	"github.com/epicweatherbox/weatherbox/store"
	"github.com/epicweatherbox/weatherbox/theme"
)

// SettingsPayload carries the scalar display settings over the wire
// using the device's document field names, sunrise/sunset sentinels
// included.
type SettingsPayload struct {
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

type ThemePayload struct {
	Mode          theme.Mode    `json:"mode"`
	ActivePalette int           `json:"activeTheme"`
	Custom        theme.Palette `json:"custom"`
}

type LocationRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Enabled   bool    `json:"enabled"`
}

type CountdownRequest struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
	Month int    `json:"month"`
	Day   int    `json:"day"`
}

type CustomScreenRequest struct {
	Header string `json:"header"`
	Body   string `json:"body"`
	Footer string `json:"footer"`
}

type CarouselItemRequest struct {
	Kind      string `json:"kind"`
	DataIndex int    `json:"dataIndex"`
}

type MoveItemRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type StatusResponse struct {
	Locations     []config.Location     `json:"locations"`
	Carousel      []carousel.Item       `json:"carousel"`
	Cursor        carousel.Cursor       `json:"cursor"`
	Countdowns    []countdown.Event     `json:"countdowns"`
	CustomScreens []config.CustomScreen `json:"customScreens"`
	Settings      SettingsPayload       `json:"settings"`
	Theme         ThemePayload          `json:"theme"`
	WeatherValid  bool                  `json:"weatherValid"`
	Brightness    int                   `json:"effectiveBrightness"`
}

type AssetListResponse struct {
	Assets     []store.Asset           `json:"assets"`
	Quarantine []store.QuarantineEntry `json:"quarantine"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
