// Package api is the admin web server for the display configuration
package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/epicweatherbox/weatherbox/api/models"
	"github.com/epicweatherbox/weatherbox/carousel"
	"github.com/epicweatherbox/weatherbox/config"
	"github.com/epicweatherbox/weatherbox/countdown"
	"github.com/epicweatherbox/weatherbox/store"
)

// Snapshot is a read-only copy of the engine's state, taken on the
// engine goroutine so handlers never observe a half-applied mutation.
type Snapshot struct {
	State        config.State
	Theme        config.ThemeState
	Cursor       carousel.Cursor
	WeatherValid bool
	Brightness   int // night-window-adjusted panel brightness
}

// Engine is the mailbox-backed surface the handlers drive. Every
// method runs its work on the engine goroutine and returns once the
// mutation is applied and persisted.
type Engine interface {
	Snapshot() Snapshot

	UpdateSettings(settings config.Settings) error
	UpdateTheme(themes config.ThemeState) error

	AddLocation(loc config.Location) error
	UpdateLocation(index int, loc config.Location) error
	RemoveLocation(index int) error

	AddCountdown(event countdown.Event) error
	UpdateCountdown(index int, event countdown.Event) error
	RemoveCountdown(index int) error

	AddCustomScreen(screen config.CustomScreen) error
	UpdateCustomScreen(index int, screen config.CustomScreen) error
	RemoveCustomScreen(index int) error

	AddCarouselItem(item carousel.Item) error
	RemoveCarouselItem(index int) error
	MoveCarouselItem(from, to int) error

	ForceRefresh()
}

type WebServer struct {
	router *gin.Engine
	engine Engine
	db     *store.Database
}

func NewWebServer(engine Engine, db *store.Database) *WebServer {
	router := gin.Default()

	ws := &WebServer{
		router: router,
		engine: engine,
		db:     db,
	}

	// Setup routes
	ws.setupRoutes()

	return ws
}

func (ws *WebServer) setupRoutes() {
	ws.router.GET("/", ws.handleConfigPage)

	// API routes
	ws.router.GET("/status", ws.handleStatus)
	ws.router.GET("/settings", ws.handleGetSettings)
	ws.router.PUT("/settings", ws.handleUpdateSettings)
	ws.router.GET("/theme", ws.handleGetTheme)
	ws.router.PUT("/theme", ws.handleUpdateTheme)

	ws.router.POST("/locations", ws.handleAddLocation)
	ws.router.PUT("/locations/:index", ws.handleUpdateLocation)
	ws.router.DELETE("/locations/:index", ws.handleRemoveLocation)

	ws.router.POST("/countdowns", ws.handleAddCountdown)
	ws.router.PUT("/countdowns/:index", ws.handleUpdateCountdown)
	ws.router.DELETE("/countdowns/:index", ws.handleRemoveCountdown)

	ws.router.POST("/screens", ws.handleAddCustomScreen)
	ws.router.PUT("/screens/:index", ws.handleUpdateCustomScreen)
	ws.router.DELETE("/screens/:index", ws.handleRemoveCustomScreen)

	ws.router.POST("/carousel", ws.handleAddCarouselItem)
	ws.router.DELETE("/carousel/:index", ws.handleRemoveCarouselItem)
	ws.router.PUT("/carousel/move", ws.handleMoveCarouselItem)

	ws.router.POST("/refresh", ws.handleForceRefresh)
	ws.router.GET("/assets", ws.handleListAssets)
}

func (ws *WebServer) Start(port string) {
	log.Printf("Starting web server on port %s", port)
	if err := ws.router.Run(port); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}

// Handler exposes the router for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// writeMutationError translates the engine's errors into status codes:
// bad indices are the client's stale view (404), capacity and
// last-location violations are conflicts (409).
func writeMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, config.ErrIndexOutOfRange), errors.Is(err, carousel.ErrOutOfRange):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, config.ErrTooManyLocations),
		errors.Is(err, config.ErrTooManyCountdowns),
		errors.Is(err, config.ErrTooManyCustom),
		errors.Is(err, config.ErrLastLocation),
		errors.Is(err, carousel.ErrCarouselFull):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	}
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid index parameter"})
		return 0, false
	}
	return index, true
}

func settingsPayload(s config.Settings) models.SettingsPayload {
	return models.SettingsPayload{
		UseCelsius:          s.UseCelsius,
		Brightness:          s.Brightness,
		NightModeEnabled:    s.NightModeEnabled,
		NightModeStartHour:  s.NightModeStart.EncodeHour(),
		NightModeEndHour:    s.NightModeEnd.EncodeHour(),
		NightModeBrightness: s.NightModeBrightness,
		CycleSeconds:        s.CycleSeconds,
		ShowForecast:        s.ShowForecast,
		UINudgeY:            s.UINudgeY,
	}
}

func payloadSettings(p models.SettingsPayload) config.Settings {
	return config.Settings{
		UseCelsius:          p.UseCelsius,
		Brightness:          p.Brightness,
		NightModeEnabled:    p.NightModeEnabled,
		NightModeStart:      config.DecodeBoundary(p.NightModeStartHour),
		NightModeEnd:        config.DecodeBoundary(p.NightModeEndHour),
		NightModeBrightness: p.NightModeBrightness,
		CycleSeconds:        p.CycleSeconds,
		ShowForecast:        p.ShowForecast,
		UINudgeY:            p.UINudgeY,
	}
}

func themePayload(t config.ThemeState) models.ThemePayload {
	return models.ThemePayload{
		Mode:          t.Mode,
		ActivePalette: t.ActivePalette,
		Custom:        t.Custom,
	}
}

func (ws *WebServer) handleStatus(c *gin.Context) {
	snap := ws.engine.Snapshot()
	c.JSON(http.StatusOK, models.StatusResponse{
		Locations:     snap.State.Locations,
		Carousel:      snap.State.Carousel,
		Cursor:        snap.Cursor,
		Countdowns:    snap.State.Countdowns,
		CustomScreens: snap.State.CustomScreens,
		Settings:      settingsPayload(snap.State.Settings),
		Theme:         themePayload(snap.Theme),
		WeatherValid:  snap.WeatherValid,
		Brightness:    snap.Brightness,
	})
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	snap := ws.engine.Snapshot()
	c.JSON(http.StatusOK, settingsPayload(snap.State.Settings))
}

func (ws *WebServer) handleUpdateSettings(c *gin.Context) {
	var req models.SettingsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if err := ws.engine.UpdateSettings(payloadSettings(req)); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Settings updated successfully"})
}

func (ws *WebServer) handleGetTheme(c *gin.Context) {
	snap := ws.engine.Snapshot()
	c.JSON(http.StatusOK, themePayload(snap.Theme))
}

func (ws *WebServer) handleUpdateTheme(c *gin.Context) {
	var req models.ThemePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	themes := config.ThemeState{
		Mode:          req.Mode,
		ActivePalette: req.ActivePalette,
		Custom:        req.Custom,
	}
	if err := ws.engine.UpdateTheme(themes); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Theme updated successfully"})
}

func locationFromRequest(req models.LocationRequest) config.Location {
	return config.Location{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Enabled:   req.Enabled,
	}
}

func (ws *WebServer) handleAddLocation(c *gin.Context) {
	var req models.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "name is required"})
		return
	}

	if err := ws.engine.AddLocation(locationFromRequest(req)); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Location '%s' added successfully", req.Name)})
}

func (ws *WebServer) handleUpdateLocation(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req models.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if err := ws.engine.UpdateLocation(index, locationFromRequest(req)); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Location updated successfully"})
}

func (ws *WebServer) handleRemoveLocation(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	if err := ws.engine.RemoveLocation(index); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Location removed successfully"})
}

func countdownFromRequest(req models.CountdownRequest) (countdown.Event, error) {
	kind, err := countdown.ParseKind(req.Kind)
	if err != nil {
		return countdown.Event{}, err
	}
	return countdown.Event{
		Title: req.Title,
		Kind:  kind,
		Month: req.Month,
		Day:   req.Day,
	}, nil
}

func (ws *WebServer) handleAddCountdown(c *gin.Context) {
	var req models.CountdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	event, err := countdownFromRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if err := ws.engine.AddCountdown(event); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Countdown '%s' added successfully", req.Title)})
}

func (ws *WebServer) handleUpdateCountdown(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req models.CountdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	event, err := countdownFromRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if err := ws.engine.UpdateCountdown(index, event); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Countdown updated successfully"})
}

func (ws *WebServer) handleRemoveCountdown(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	if err := ws.engine.RemoveCountdown(index); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Countdown removed successfully"})
}

func (ws *WebServer) handleAddCustomScreen(c *gin.Context) {
	var req models.CustomScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	screen := config.CustomScreen{Header: req.Header, Body: req.Body, Footer: req.Footer}
	if err := ws.engine.AddCustomScreen(screen); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Custom screen added successfully"})
}

func (ws *WebServer) handleUpdateCustomScreen(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req models.CustomScreenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	screen := config.CustomScreen{Header: req.Header, Body: req.Body, Footer: req.Footer}
	if err := ws.engine.UpdateCustomScreen(index, screen); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Custom screen updated successfully"})
}

func (ws *WebServer) handleRemoveCustomScreen(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	if err := ws.engine.RemoveCustomScreen(index); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Custom screen removed successfully"})
}

func (ws *WebServer) handleAddCarouselItem(c *gin.Context) {
	var req models.CarouselItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	kind, err := carousel.ParseKind(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if err := ws.engine.AddCarouselItem(carousel.Item{Kind: kind, DataIndex: req.DataIndex}); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Carousel item '%s' added successfully", req.Kind)})
}

func (ws *WebServer) handleRemoveCarouselItem(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	if err := ws.engine.RemoveCarouselItem(index); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Carousel item removed successfully"})
}

func (ws *WebServer) handleMoveCarouselItem(c *gin.Context) {
	var req models.MoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if err := ws.engine.MoveCarouselItem(req.From, req.To); err != nil {
		writeMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Carousel item moved successfully"})
}

func (ws *WebServer) handleForceRefresh(c *gin.Context) {
	ws.engine.ForceRefresh()
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Refresh triggered"})
}

func (ws *WebServer) handleListAssets(c *gin.Context) {
	if ws.db == nil {
		c.JSON(http.StatusOK, models.AssetListResponse{})
		return
	}

	assets, err := ws.db.GetAssets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}
	quarantine, err := ws.db.GetQuarantine()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fmt.Sprintf("Database error: %v", err)})
		return
	}

	c.JSON(http.StatusOK, models.AssetListResponse{Assets: assets, Quarantine: quarantine})
}
