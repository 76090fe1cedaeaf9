package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/epicfreebies/hype-backend/models"
	"github.com/epicfreebies/hype-backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	ledger := services.NewLedgerService(filepath.Join(t.TempDir(), "ledger.csv"))
	require.NoError(t, ledger.Save([]models.GiveawayRecord{
		{
			ID:              1,
			Title:           "Alpha",
			StartDate:       time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2021, 9, 8, 0, 0, 0, 0, time.UTC),
			NextSequelName:  "Alpha Legends",
			IsStrategicHype: true,
		},
		{
			ID:        2,
			Title:     "Beta",
			StartDate: time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2021, 12, 8, 0, 0, 0, 0, time.UTC),
		},
	}))

	giveaways := NewGiveawayHandler(ledger)
	stats := NewStatsHandler(ledger)

	app := fiber.New()
	app.Get("/api/giveaways", giveaways.GetGiveaways)
	app.Get("/api/giveaways/:id", giveaways.GetGiveawayByID)
	app.Get("/api/stats/summary", stats.GetSummary)

	return app
}

type giveawayListResponse struct {
	Success bool                    `json:"success"`
	Data    []models.GiveawayRecord `json:"data"`
	Error   string                  `json:"error"`
}

func TestGetGiveaways(t *testing.T) {
	app := newTestApp(t)

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/giveaways", nil))
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)

	var body giveawayListResponse
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Alpha", body.Data[0].Title)
}

func TestGetGiveawaysHypeFilter(t *testing.T) {
	app := newTestApp(t)

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/giveaways?hype=true", nil))
	require.NoError(t, err)
	defer response.Body.Close()

	var body giveawayListResponse
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.True(t, body.Data[0].IsStrategicHype)
}

func TestGetGiveawayByID(t *testing.T) {
	app := newTestApp(t)

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/giveaways/2", nil))
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)

	var body struct {
		Success bool                  `json:"success"`
		Data    models.GiveawayRecord `json:"data"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	assert.Equal(t, "Beta", body.Data.Title)
}

func TestGetGiveawayByIDNotFound(t *testing.T) {
	app := newTestApp(t)

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/giveaways/999", nil))
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
}

func TestGetGiveawayByIDInvalid(t *testing.T) {
	app := newTestApp(t)

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/giveaways/abc", nil))
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestGetSummary(t *testing.T) {
	app := newTestApp(t)

	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/stats/summary", nil))
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)

	var body struct {
		Success bool                    `json:"success"`
		Data    services.LedgerSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Data.TotalRecords)
	assert.Equal(t, 1, body.Data.StrategicHype)
	assert.Equal(t, 1, body.Data.WithSequel)
}
