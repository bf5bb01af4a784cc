package weather

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const updateInterval = 20 * time.Minute

// Manager periodically refreshes snapshots for the configured places
// and signals the Updated channel when new data lands. It implements
// Provider for the render path.
type Manager struct {
	client *Client

	mu        sync.RWMutex
	places    []Place
	snapshots []Snapshot

	refresh chan struct{}

	Updated chan bool
}

// NewManager builds a manager around the client. Call SetPlaces before
// Run.
func NewManager(client *Client) *Manager {
	return &Manager{
		client:  client,
		refresh: make(chan struct{}, 1),
		Updated: make(chan bool, 1),
	}
}

// SetPlaces replaces the fetch targets, keeping any snapshot whose
// place is unchanged so a location edit does not blank the display.
func (m *Manager) SetPlaces(places []Place) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshots := make([]Snapshot, len(places))
	for i, place := range places {
		for j, old := range m.places {
			if old == place && j < len(m.snapshots) {
				snapshots[i] = m.snapshots[j]
				break
			}
		}
	}
	m.places = places
	m.snapshots = snapshots
}

// Snapshot returns the snapshot for a location index. Out-of-range
// indices return an invalid snapshot, which renders as not-available.
func (m *Manager) Snapshot(index int) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.snapshots) {
		return Snapshot{}
	}
	return m.snapshots[index]
}

// RefreshNow requests an immediate update pass without waiting for the
// next tick.
func (m *Manager) RefreshNow() {
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}

// Run fetches on an interval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	m.updateAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.updateAll(ctx)
		case <-m.refresh:
			m.updateAll(ctx)
		}
	}
}

func (m *Manager) updateAll(ctx context.Context) {
	m.mu.RLock()
	places := make([]Place, len(m.places))
	copy(places, m.places)
	m.mu.RUnlock()

	changed := false
	for i, place := range places {
		fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		snap, err := m.client.Fetch(fetchCtx, place)
		cancel()
		if err != nil {
			slog.Warn("weather fetch failed", "place", place.Name, "error", err)
			m.recordError(i, err)
			continue
		}

		m.mu.Lock()
		if i < len(m.snapshots) {
			m.snapshots[i] = snap
			changed = true
		}
		m.mu.Unlock()
		slog.Info("weather updated", "place", place.Name, "condition", snap.Current.Condition.String())
	}

	if changed {
		select {
		case m.Updated <- true:
		default:
		}
	}
}

// recordError keeps the stale snapshot but notes the failure, so the
// screen can show how old its data is.
func (m *Manager) recordError(index int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.snapshots) {
		return
	}
	m.snapshots[index].LastError = err.Error()
}
