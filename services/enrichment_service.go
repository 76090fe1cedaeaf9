package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/epicfreebies/hype-backend/models"
	"github.com/epicfreebies/hype-backend/shared"
	"github.com/sirupsen/logrus"
)

// Source interfaces the resolver depends on. The concrete adapters satisfy
// them in production; tests inject fakes. Keeping the adapter set explicit on
// the service (instead of package-level state) is what makes a cold-cache
// test run without touching the network.

// PriceSource looks up a title's current retail price.
type PriceSource interface {
	LookupPrice(ctx context.Context, title string) (float64, bool, error)
}

// PublisherSource looks up a title's publisher.
type PublisherSource interface {
	LookupPublisher(ctx context.Context, title string) (string, bool, error)
}

// DetailSource looks up release date and aggregate rating in one call.
type DetailSource interface {
	Configured() bool
	LookupDetails(ctx context.Context, title string) (*GameDetails, bool, error)
}

// EnrichmentService is the metadata resolver: a per-record state machine that
// fills price, publisher, release date, and rating independently, consulting
// the cache first and spending at most one external attempt per field per
// run. Fields never block each other; a slow or failing source costs only its
// own field.
type EnrichmentService struct {
	cache      *CacheService
	prices     PriceSource
	publishers PublisherSource
	details    DetailSource
}

// NewEnrichmentService creates a resolver over the given cache and sources.
func NewEnrichmentService(cache *CacheService, prices PriceSource, publishers PublisherSource, details DetailSource) *EnrichmentService {
	return &EnrichmentService{
		cache:      cache,
		prices:     prices,
		publishers: publishers,
		details:    details,
	}
}

// EnrichRecord resolves all missing basic-metadata fields for one giveaway
// record and copies the cached values back onto it. Transient source failures
// leave fields untouched for the next run; only cache persistence problems
// surface as errors.
func (s *EnrichmentService) EnrichRecord(ctx context.Context, record *models.GiveawayRecord) error {
	logger := logrus.WithFields(logrus.Fields{
		"service": "EnrichmentService",
		"id":      record.ID,
		"title":   record.Title,
	})

	entry := s.cache.Entry(record.Title)

	if entry.FullyAttempted() {
		logger.Debug("Cache entry complete, skipping external lookups")
	} else {
		if err := s.resolvePrice(ctx, record.Title, entry); err != nil {
			return err
		}
		if err := s.resolvePublisher(ctx, record.Title, entry); err != nil {
			return err
		}
		if err := s.resolveDetails(ctx, record.Title, entry); err != nil {
			return err
		}
	}

	s.copyBack(entry, record)
	return nil
}

// resolvePrice attempts the price lookup. Price is terminal on any outcome:
// no match, low score, and network errors all resolve to 0.0, and a set
// price is never overwritten on later runs.
func (s *EnrichmentService) resolvePrice(ctx context.Context, title string, entry *models.CacheEntry) error {
	if !entry.Price.NeedsLookup(false) {
		return nil
	}

	value, found, err := s.prices.LookupPrice(ctx, title)
	if err != nil {
		logServiceError(err)
		logrus.WithField("title", title).Warn("Price lookup failed, recording terminal 0.0")
		entry.Price.Resolve(0.0)
	} else if !found {
		entry.Price.Resolve(0.0)
	} else {
		entry.Price.Resolve(value)
	}

	return s.persist()
}

// resolvePublisher attempts the publisher lookup. The "not found" state is
// retried on later runs; transient errors leave the field untouched.
func (s *EnrichmentService) resolvePublisher(ctx context.Context, title string, entry *models.CacheEntry) error {
	if !entry.Publisher.NeedsLookup(true) {
		return nil
	}

	value, found, err := s.publishers.LookupPublisher(ctx, title)
	if err != nil {
		logServiceError(err)
		logrus.WithField("title", title).Warn("Publisher lookup failed, leaving field for next run")
		return nil
	}

	if !found {
		entry.Publisher.Fail()
	} else {
		entry.Publisher.Resolve(value)
	}

	return s.persist()
}

// resolveDetails attempts the combined release-date/rating lookup. The two
// fields are tracked independently: a prior success on one never blocks or
// implies the other, and only fields still unresolved are written.
func (s *EnrichmentService) resolveDetails(ctx context.Context, title string, entry *models.CacheEntry) error {
	needRelease := entry.ReleaseDate.NeedsLookup(false)
	needRating := entry.Rating.NeedsLookup(false)
	if !needRelease && !needRating {
		return nil
	}

	if !s.details.Configured() {
		logrus.WithField("title", title).Debug("Metadata service not configured, skipping details lookup")
		return nil
	}

	details, found, err := s.details.LookupDetails(ctx, title)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil
		}
		logServiceError(err)
		logrus.WithField("title", title).Warn("Details lookup failed, leaving fields for next run")
		return nil
	}

	if needRelease {
		if found && details.HasRelease {
			entry.ReleaseDate.Resolve(details.ReleaseDate)
		} else {
			entry.ReleaseDate.Fail()
		}
		if err := s.persist(); err != nil {
			return err
		}
	}

	if needRating {
		if found && details.HasRating {
			entry.Rating.Resolve(details.Rating)
		} else {
			entry.Rating.Fail()
		}
		if err := s.persist(); err != nil {
			return err
		}
	}

	return nil
}

// copyBack projects the cache entry onto the record using the documented
// sentinel strings. An unattempted publisher exports as PublisherUnknown,
// which downstream consumers read as "enrichment still pending", distinct
// from the attempted-and-missing PublisherNotFound.
func (s *EnrichmentService) copyBack(entry *models.CacheEntry, record *models.GiveawayRecord) {
	if entry.Price.IsResolved() {
		price := entry.Price.Value
		record.Price = &price
	}

	switch {
	case entry.Publisher.IsResolved():
		record.Publisher = entry.Publisher.Value
	case entry.Publisher.IsFailed():
		record.Publisher = models.PublisherNotFound
	default:
		record.Publisher = models.PublisherUnknown
	}

	switch {
	case entry.ReleaseDate.IsResolved():
		record.ReleaseDate = entry.ReleaseDate.Value.Format(models.ISODateLayout)
	case entry.ReleaseDate.IsFailed():
		record.ReleaseDate = models.DateNotFound
	}

	switch {
	case entry.Rating.IsResolved():
		record.Rating = strconv.FormatFloat(entry.Rating.Value, 'f', 1, 64)
	case entry.Rating.IsFailed():
		record.Rating = models.ScoreNotFound
	}
}

func (s *EnrichmentService) persist() error {
	if err := s.cache.Save(); err != nil {
		logrus.WithError(err).Error("Failed to persist metadata cache")
		return err
	}
	return nil
}

func logServiceError(err error) {
	var serviceError *shared.ServiceError
	if errors.As(err, &serviceError) {
		serviceError.LogError()
	}
}
