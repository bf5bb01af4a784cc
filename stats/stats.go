// Package stats fetches channel statistics for the stats feed screen.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/epicweatherbox/weatherbox/screen"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3/channels"

	// The public API has a daily quota, so refreshes are spaced out.
	updateInterval = 30 * time.Minute
)

// Client fetches channel statistics from the YouTube Data API.
type Client struct {
	baseURL    string
	apiKey     string
	channelID  string
	httpClient *http.Client
}

// NewClient builds a client for one channel. baseURL may be empty to
// use the public endpoint.
func NewClient(baseURL, apiKey, channelID string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		channelID:  channelID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type channelsResponse struct {
	Items []struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			ViewCount       string `json:"viewCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Fetch retrieves the channel's current statistics.
func (c *Client) Fetch(ctx context.Context) (screen.Stats, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", c.channelID)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return screen.Stats{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return screen.Stats{}, fmt.Errorf("failed to fetch channel stats: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return screen.Stats{}, fmt.Errorf("failed to read stats response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return screen.Stats{}, fmt.Errorf("stats request returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload channelsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return screen.Stats{}, fmt.Errorf("failed to parse stats response: %w", err)
	}
	if len(payload.Items) == 0 {
		return screen.Stats{}, fmt.Errorf("channel %q not found", c.channelID)
	}

	item := payload.Items[0]
	return screen.Stats{
		ChannelName: item.Snippet.Title,
		Subscribers: parseCount(item.Statistics.SubscriberCount),
		Views:       parseCount(item.Statistics.ViewCount),
		Videos:      parseCount(item.Statistics.VideoCount),
		Valid:       true,
		LastUpdate:  time.Now(),
	}, nil
}

// parseCount handles the API's string-encoded counters.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Manager refreshes the statistics on an interval and serves the last
// good value. It implements screen.StatsProvider. A nil manager serves
// an invalid snapshot, so the feed is safe to leave unconfigured.
type Manager struct {
	client *Client

	mu    sync.RWMutex
	stats screen.Stats
}

func NewManager(client *Client) *Manager {
	return &Manager{client: client}
}

// Stats returns the latest snapshot.
func (m *Manager) Stats() screen.Stats {
	if m == nil {
		return screen.Stats{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Run fetches on an interval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	m.update(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.update(ctx)
		}
	}
}

func (m *Manager) update(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	s, err := m.client.Fetch(fetchCtx)
	if err != nil {
		slog.Warn("stats fetch failed", "error", err)
		return
	}

	m.mu.Lock()
	m.stats = s
	m.mu.Unlock()
	slog.Info("stats updated", "channel", s.ChannelName, "subscribers", s.Subscribers)
}
