package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/epicfreebies/hype-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPriceService(baseURL string) *PriceService {
	return &PriceService{
		baseURL: baseURL,
		client:  http.DefaultClient,
		limiter: shared.NewSourceRateLimiter("cheapshark", 0),
	}
}

func TestLookupPriceResolvesBestMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Query().Get("title") != "":
			w.Write([]byte(`[
				{"gameID": "101", "external": "Alpha Legends"},
				{"gameID": "102", "external": "Alpha"}
			]`))
		case r.URL.Query().Get("id") == "102":
			w.Write([]byte(`{"info": {"title": "Alpha"}, "deals": [{"price": "4.99", "retailPrice": "19.99"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	price, found, err := newTestPriceService(server.URL).LookupPrice(context.Background(), "Alpha")
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 19.99, price, 0.001)
}

func TestLookupPriceBelowThreshold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"gameID": "300", "external": "Completely Different Game"}]`))
	}))
	defer server.Close()

	_, found, err := newTestPriceService(server.URL).LookupPrice(context.Background(), "Alpha")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookupPriceNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, found, err := newTestPriceService(server.URL).LookupPrice(context.Background(), "Alpha")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLookupPriceUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, found, err := newTestPriceService(server.URL).LookupPrice(context.Background(), "Alpha")
	require.Error(t, err)
	assert.False(t, found)

	var serviceErr *shared.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "PRICE_SEARCH_STATUS", serviceErr.Code)
}
