package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "snippet,statistics", q.Get("part"))
		assert.Equal(t, "UC123", q.Get("id"))
		assert.Equal(t, "test-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [{
				"snippet": {"title": "EpicBuilds"},
				"statistics": {
					"subscriberCount": "12400",
					"viewCount": "2500000",
					"videoCount": "87"
				}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "UC123")
	s, err := client.Fetch(context.Background())
	require.NoError(t, err)

	assert.True(t, s.Valid)
	assert.Equal(t, "EpicBuilds", s.ChannelName)
	assert.Equal(t, int64(12400), s.Subscribers)
	assert.Equal(t, int64(2500000), s.Views)
	assert.Equal(t, int64(87), s.Videos)
}

func TestClientFetchUnknownChannel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "UCmissing")
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNilManagerServesInvalid(t *testing.T) {
	t.Parallel()

	var m *Manager
	assert.False(t, m.Stats().Valid)
}
