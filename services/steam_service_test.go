package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/epicfreebies/hype-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSteamService(baseURL string) *SteamService {
	return &SteamService{
		baseURL: baseURL,
		client:  http.DefaultClient,
		limiter: shared.NewSourceRateLimiter("steam", 0),
	}
}

func steamStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/storesearch"):
			w.Write([]byte(`{"items": [
				{"id": 440, "name": "Alpha Soundtrack"},
				{"id": 620, "name": "Alpha"}
			]}`))
		case strings.HasPrefix(r.URL.Path, "/api/appdetails"):
			w.Write([]byte(`{"620": {"success": true, "data": {"name": "Alpha", "publishers": ["Alpha Studios", "Alpha EU"]}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestLookupPublisherResolvesFirstListed(t *testing.T) {
	server := steamStub(t)
	defer server.Close()

	publisher, found, err := newTestSteamService(server.URL).LookupPublisher(context.Background(), "Alpha")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Alpha Studios", publisher)
}

func TestLookupPublisherNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	_, found, err := newTestSteamService(server.URL).LookupPublisher(context.Background(), "Alpha")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookupPublisherNoPublishersListed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/api/storesearch") {
			w.Write([]byte(`{"items": [{"id": 700, "name": "Alpha"}]}`))
			return
		}
		w.Write([]byte(`{"700": {"success": true, "data": {"name": "Alpha", "publishers": []}}}`))
	}))
	defer server.Close()

	_, found, err := newTestSteamService(server.URL).LookupPublisher(context.Background(), "Alpha")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookupPublisherUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, found, err := newTestSteamService(server.URL).LookupPublisher(context.Background(), "Alpha")
	require.Error(t, err)
	assert.False(t, found)
}
