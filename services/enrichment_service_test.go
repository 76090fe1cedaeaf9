package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/epicfreebies/hype-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePriceSource struct {
	calls int
	value float64
	found bool
	err   error
}

func (f *fakePriceSource) LookupPrice(_ context.Context, _ string) (float64, bool, error) {
	f.calls++
	return f.value, f.found, f.err
}

type fakePublisherSource struct {
	calls int
	value string
	found bool
	err   error
}

func (f *fakePublisherSource) LookupPublisher(_ context.Context, _ string) (string, bool, error) {
	f.calls++
	return f.value, f.found, f.err
}

type fakeDetailSource struct {
	calls      int
	configured bool
	details    *GameDetails
	found      bool
	err        error
}

func (f *fakeDetailSource) Configured() bool {
	return f.configured
}

func (f *fakeDetailSource) LookupDetails(_ context.Context, _ string) (*GameDetails, bool, error) {
	f.calls++
	return f.details, f.found, f.err
}

func newTestCache(t *testing.T) *CacheService {
	t.Helper()
	cache, err := NewCacheService(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	return cache
}

func testRecord(title string) *models.GiveawayRecord {
	return &models.GiveawayRecord{
		ID:        1,
		Title:     title,
		StartDate: date(2021, 3, 1),
		EndDate:   date(2021, 3, 8),
	}
}

func TestEnrichRecordResolvesAllFields(t *testing.T) {
	cache := newTestCache(t)
	prices := &fakePriceSource{value: 29.99, found: true}
	publishers := &fakePublisherSource{value: "Remedy Entertainment", found: true}
	details := &fakeDetailSource{
		configured: true,
		found:      true,
		details: &GameDetails{
			Name:        "Control",
			ReleaseDate: date(2019, 8, 27),
			HasRelease:  true,
			Rating:      85.0,
			HasRating:   true,
		},
	}
	service := NewEnrichmentService(cache, prices, publishers, details)

	record := testRecord("Control")
	require.NoError(t, service.EnrichRecord(context.Background(), record))

	require.NotNil(t, record.Price)
	assert.Equal(t, 29.99, *record.Price)
	assert.Equal(t, "Remedy Entertainment", record.Publisher)
	assert.Equal(t, "2019-08-27", record.ReleaseDate)
	assert.Equal(t, "85.0", record.Rating)
}

func TestEnrichRecordPriceIsTerminal(t *testing.T) {
	cache := newTestCache(t)
	prices := &fakePriceSource{value: 9.99, found: true}
	publishers := &fakePublisherSource{value: "Studio", found: true}
	details := &fakeDetailSource{configured: false}
	service := NewEnrichmentService(cache, prices, publishers, details)

	first := testRecord("Alpha")
	require.NoError(t, service.EnrichRecord(context.Background(), first))
	require.NotNil(t, first.Price)
	assert.Equal(t, 9.99, *first.Price)

	// A later run sees a different catalog price; the cached one must win.
	prices.value = 59.99
	second := testRecord("Alpha")
	require.NoError(t, service.EnrichRecord(context.Background(), second))

	assert.Equal(t, 1, prices.calls, "price is never re-queried once set")
	require.NotNil(t, second.Price)
	assert.Equal(t, 9.99, *second.Price)
}

func TestEnrichRecordPriceFailureResolvesToZero(t *testing.T) {
	cache := newTestCache(t)
	prices := &fakePriceSource{err: errors.New("connection reset")}
	publishers := &fakePublisherSource{found: true, value: "Studio"}
	details := &fakeDetailSource{configured: false}
	service := NewEnrichmentService(cache, prices, publishers, details)

	record := testRecord("Beta")
	require.NoError(t, service.EnrichRecord(context.Background(), record))

	require.NotNil(t, record.Price)
	assert.Equal(t, 0.0, *record.Price)

	// Zero is terminal even though it came from a network error.
	prices.err = nil
	prices.found = true
	prices.value = 39.99
	require.NoError(t, service.EnrichRecord(context.Background(), testRecord("Beta")))
	assert.Equal(t, 1, prices.calls)
}

func TestEnrichRecordWarmCacheMakesNoExternalCalls(t *testing.T) {
	cache := newTestCache(t)
	entry := cache.Entry("Gamma")
	entry.Price.Resolve(14.99)
	entry.Publisher.Resolve("Indie Studio")
	entry.ReleaseDate.Resolve(date(2020, 4, 1))
	entry.Rating.Resolve(77.0)

	prices := &fakePriceSource{}
	publishers := &fakePublisherSource{}
	details := &fakeDetailSource{configured: true}
	service := NewEnrichmentService(cache, prices, publishers, details)

	record := testRecord("Gamma")
	require.NoError(t, service.EnrichRecord(context.Background(), record))

	assert.Equal(t, 0, prices.calls)
	assert.Equal(t, 0, publishers.calls)
	assert.Equal(t, 0, details.calls)
	assert.Equal(t, "Indie Studio", record.Publisher)
}

func TestEnrichRecordPublisherNotFoundIsRetryable(t *testing.T) {
	cache := newTestCache(t)
	prices := &fakePriceSource{found: true, value: 5.0}
	publishers := &fakePublisherSource{found: false}
	details := &fakeDetailSource{configured: false}
	service := NewEnrichmentService(cache, prices, publishers, details)

	record := testRecord("Delta")
	require.NoError(t, service.EnrichRecord(context.Background(), record))
	assert.Equal(t, models.PublisherNotFound, record.Publisher)

	// The sentinel is not terminal: the next run asks again and succeeds.
	publishers.found = true
	publishers.value = "Big Publisher"
	second := testRecord("Delta")
	require.NoError(t, service.EnrichRecord(context.Background(), second))

	assert.Equal(t, 2, publishers.calls)
	assert.Equal(t, "Big Publisher", second.Publisher)
}

func TestEnrichRecordTransientPublisherErrorLeavesFieldUntouched(t *testing.T) {
	cache := newTestCache(t)
	prices := &fakePriceSource{found: true, value: 5.0}
	publishers := &fakePublisherSource{err: errors.New("timeout")}
	details := &fakeDetailSource{configured: false}
	service := NewEnrichmentService(cache, prices, publishers, details)

	record := testRecord("Epsilon")
	record.Publisher = models.PublisherUnknown
	require.NoError(t, service.EnrichRecord(context.Background(), record))

	// No sentinel write: the record keeps its "not yet attempted" marker and
	// the cache entry stays unresolved for the next run.
	assert.Equal(t, models.PublisherUnknown, record.Publisher)
	assert.True(t, cache.Entry("Epsilon").Publisher.NeedsLookup(true))
}

func TestEnrichRecordReleaseAndRatingTrackedIndependently(t *testing.T) {
	cache := newTestCache(t)
	prices := &fakePriceSource{found: true, value: 5.0}
	publishers := &fakePublisherSource{found: true, value: "Studio"}
	details := &fakeDetailSource{
		configured: true,
		found:      true,
		details: &GameDetails{
			ReleaseDate: date(2017, 3, 3),
			HasRelease:  true,
			HasRating:   false, // service knows the date but has no score
		},
	}
	service := NewEnrichmentService(cache, prices, publishers, details)

	record := testRecord("Zeta")
	require.NoError(t, service.EnrichRecord(context.Background(), record))

	assert.Equal(t, "2017-03-03", record.ReleaseDate)
	assert.Equal(t, models.ScoreNotFound, record.Rating)

	entry := cache.Entry("Zeta")
	assert.True(t, entry.ReleaseDate.IsResolved())
	assert.True(t, entry.Rating.IsFailed())
}

func TestEnrichRecordSkipsDetailsWithoutCredentials(t *testing.T) {
	cache := newTestCache(t)
	prices := &fakePriceSource{found: true, value: 5.0}
	publishers := &fakePublisherSource{found: true, value: "Studio"}
	details := &fakeDetailSource{configured: false}
	service := NewEnrichmentService(cache, prices, publishers, details)

	record := testRecord("Eta")
	require.NoError(t, service.EnrichRecord(context.Background(), record))

	assert.Equal(t, 0, details.calls)
	assert.Empty(t, record.ReleaseDate, "no sentinel written for a skipped lookup")
	assert.True(t, cache.Entry("Eta").ReleaseDate.NeedsLookup(false))
}

func TestEnrichmentPersistsAcrossServiceInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cache, err := NewCacheService(path)
	require.NoError(t, err)

	prices := &fakePriceSource{found: true, value: 24.99}
	publishers := &fakePublisherSource{found: true, value: "Studio"}
	details := &fakeDetailSource{configured: false}
	service := NewEnrichmentService(cache, prices, publishers, details)
	require.NoError(t, service.EnrichRecord(context.Background(), testRecord("Theta")))

	// A fresh process over the same cache file sees the resolved fields.
	reloaded, err := NewCacheService(path)
	require.NoError(t, err)

	freshPrices := &fakePriceSource{}
	freshPublishers := &fakePublisherSource{}
	freshService := NewEnrichmentService(reloaded, freshPrices, freshPublishers, &fakeDetailSource{configured: false})

	record := testRecord("Theta")
	require.NoError(t, freshService.EnrichRecord(context.Background(), record))

	assert.Equal(t, 0, freshPrices.calls)
	assert.Equal(t, 0, freshPublishers.calls)
	require.NotNil(t, record.Price)
	assert.Equal(t, 24.99, *record.Price)
}
