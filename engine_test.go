package main

import (
	"context"
	"image"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicweatherbox/weatherbox/carousel"
	"github.com/epicweatherbox/weatherbox/config"
	"github.com/epicweatherbox/weatherbox/gifsafe"
	"github.com/epicweatherbox/weatherbox/store"
	"github.com/epicweatherbox/weatherbox/weather"
)

// chanSink delivers each presented frame to a channel so tests can
// observe render activity without touching the filesystem.
type chanSink struct {
	frames chan *image.RGBA
}

func newChanSink() *chanSink {
	return &chanSink{frames: make(chan *image.RGBA, 16)}
}

func (s *chanSink) Present(frame *image.RGBA) error {
	s.frames <- frame
	return nil
}

func (s *chanSink) waitFrame(t *testing.T) *image.RGBA {
	t.Helper()
	select {
	case frame := <-s.frames:
		return frame
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return nil
	}
}

// animRecorder counts interstitial playbacks.
type animRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (a *animRecorder) PresentAnimation(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paths = append(a.paths, path)
	return nil
}

func (a *animRecorder) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.paths)
}

func newTestEngine(t *testing.T, clock clockwork.Clock) (*Engine, *chanSink) {
	t.Helper()

	cfg, err := config.NewStore(t.TempDir())
	require.NoError(t, err)

	weatherCli := weather.NewClient("", false)
	weatherMgr := weather.NewManager(weatherCli)

	sink := newChanSink()
	engine := NewEngine(cfg, weatherCli, weatherMgr, nil, nil, nil,
		sink, nil, "", clock)
	return engine, sink
}

func TestEngineTickAdvancesCarousel(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	engine, sink := newTestEngine(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	sink.waitFrame(t)

	snap := engine.Snapshot()
	assert.Equal(t, carousel.Cursor{}, snap.Cursor)

	clock.BlockUntilContext(ctx, 1)
	clock.Advance(time.Duration(snap.State.Settings.CycleSeconds) * time.Second)
	sink.waitFrame(t)

	snap = engine.Snapshot()
	assert.Equal(t, carousel.Cursor{ItemIndex: 0, SubIndex: 1}, snap.Cursor)
}

func TestEngineMutationsPersist(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	engine, sink := newTestEngine(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)
	sink.waitFrame(t)

	require.NoError(t, engine.AddLocation(config.Location{
		Name:      "Tokyo",
		Latitude:  35.68,
		Longitude: 139.69,
		Enabled:   true,
	}))
	sink.waitFrame(t)

	require.NoError(t, engine.AddCarouselItem(carousel.Item{
		Kind:      carousel.KindLocation,
		DataIndex: 1,
	}))
	sink.waitFrame(t)

	snap := engine.Snapshot()
	require.Len(t, snap.State.Locations, 2)
	assert.Equal(t, "Tokyo", snap.State.Locations[1].Name)
	require.Len(t, snap.State.Carousel, 2)

	// Dropping the location also drops its carousel entry.
	require.NoError(t, engine.RemoveLocation(1))
	sink.waitFrame(t)

	snap = engine.Snapshot()
	assert.Len(t, snap.State.Locations, 1)
	assert.Len(t, snap.State.Carousel, 1)
}

// newAnimTestEngine wires a real asset registry and crash controller so
// interstitial playback runs end to end.
func newAnimTestEngine(t *testing.T, clock clockwork.Clock) (*Engine, *chanSink, *animRecorder) {
	t.Helper()

	dir := t.TempDir()
	db, err := store.NewDatabase(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InsertAsset(store.Asset{AssetName: "a.gif", Validated: true}))

	cfg, err := config.NewStore(dir)
	require.NoError(t, err)

	weatherCli := weather.NewClient("", false)
	weatherMgr := weather.NewManager(weatherCli)

	sink := newChanSink()
	anim := &animRecorder{}
	engine := NewEngine(cfg, weatherCli, weatherMgr, nil, db, gifsafe.NewController(dir, db),
		sink, anim, dir, clock)
	return engine, sink, anim
}

func tick(t *testing.T, ctx context.Context, clock *clockwork.FakeClock, sink *chanSink) {
	t.Helper()
	clock.BlockUntilContext(ctx, 1)
	clock.Advance(10 * time.Second)
	sink.waitFrame(t)
}

func TestEngineInterstitialOncePerRotation(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	engine, sink, anim := newAnimTestEngine(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)
	sink.waitFrame(t)

	// Default rotation is one location item with three sub-screens.
	tick(t, ctx, clock, sink)
	tick(t, ctx, clock, sink)
	assert.Equal(t, 0, anim.count())

	tick(t, ctx, clock, sink)
	assert.Equal(t, 1, anim.count())
}

func TestEngineEmptyCarouselSkipsInterstitial(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	engine, sink, anim := newAnimTestEngine(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)
	sink.waitFrame(t)

	require.NoError(t, engine.RemoveCarouselItem(0))
	sink.waitFrame(t)

	for i := 0; i < 3; i++ {
		tick(t, ctx, clock, sink)
	}
	assert.Equal(t, 0, anim.count())
}

func TestEngineSnapshotBrightnessFollowsNightWindow(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC))
	engine, sink := newTestEngine(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)
	sink.waitFrame(t)

	snap := engine.Snapshot()
	assert.Equal(t, snap.State.Settings.NightModeBrightness, snap.Brightness)

	day := clockwork.NewFakeClockAt(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	dayEngine, daySink := newTestEngine(t, day)
	go dayEngine.Run(ctx)
	daySink.waitFrame(t)

	snap = dayEngine.Snapshot()
	assert.Equal(t, snap.State.Settings.Brightness, snap.Brightness)
}

func TestEngineRejectsLastLocationRemoval(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	engine, sink := newTestEngine(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)
	sink.waitFrame(t)

	err := engine.RemoveLocation(0)
	assert.ErrorIs(t, err, config.ErrLastLocation)
}

func TestEngineForceRefreshResetsCursor(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	engine, sink := newTestEngine(t, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)
	sink.waitFrame(t)

	clock.BlockUntilContext(ctx, 1)
	clock.Advance(10 * time.Second)
	sink.waitFrame(t)

	snap := engine.Snapshot()
	require.NotEqual(t, carousel.Cursor{}, snap.Cursor)

	engine.ForceRefresh()
	sink.waitFrame(t)

	snap = engine.Snapshot()
	assert.Equal(t, carousel.Cursor{}, snap.Cursor)
}
