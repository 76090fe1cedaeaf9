package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/epicfreebies/hype-backend/models"
	"github.com/sirupsen/logrus"
)

// FranchiseQuery carries the inputs a lookup tier needs to find franchise
// siblings for one record.
type FranchiseQuery struct {
	Title     string
	Publisher string
}

// FranchiseTier is one strategy for finding sibling releases in a title's
// franchise. The resolver walks an ordered tier list and stops at the first
// tier that produces results, so tiers can be tested and reordered
// independently.
type FranchiseTier interface {
	Name() string
	Lookup(ctx context.Context, query FranchiseQuery) ([]models.SiblingRelease, error)
}

// ManualOverride pins a title's next franchise entry. Overrides encode known
// marketing tie-ins where computed timing would be ambiguous or unavailable,
// and always classify as strategic regardless of the window.
type ManualOverride struct {
	SequelName string
	SequelDate time.Time
}

// DefaultManualOverrides returns the curated override table.
func DefaultManualOverrides() map[string]ManualOverride {
	return map[string]ManualOverride{
		"Saints Row: The Third Remastered": {
			SequelName: "Saints Row",
			SequelDate: time.Date(2022, 8, 23, 0, 0, 0, 0, time.UTC),
		},
		"Borderlands: The Handsome Collection": {
			SequelName: "Borderlands 3",
			SequelDate: time.Date(2019, 9, 13, 0, 0, 0, 0, time.UTC),
		},
	}
}

// FranchiseService finds the next chronological release in a record's
// franchise and derives the strategic-hype classification. Results are cached
// per promotion instance: the same title given away twice gets a lead time
// computed from each giveaway's own start date.
type FranchiseService struct {
	cache     *CacheService
	overrides map[string]ManualOverride
	tiers     []FranchiseTier
}

// NewFranchiseService creates a resolver with the curated override table and
// the given lookup tiers, consulted in order.
func NewFranchiseService(cache *CacheService, tiers ...FranchiseTier) *FranchiseService {
	return &FranchiseService{
		cache:     cache,
		overrides: DefaultManualOverrides(),
		tiers:     tiers,
	}
}

// ResolveRecord resolves franchise timing for one record and copies the
// outcome onto it. It only runs once the title's release date resolved to a
// real value; records with a failed or pending release lookup are skipped.
func (s *FranchiseService) ResolveRecord(ctx context.Context, record *models.GiveawayRecord) error {
	logger := logrus.WithFields(logrus.Fields{
		"service": "FranchiseService",
		"id":      record.ID,
		"title":   record.Title,
	})

	if !s.cache.Entry(record.Title).ReleaseDate.IsResolved() {
		logger.Debug("Release date not resolved, skipping franchise lookup")
		return nil
	}

	key := models.FranchiseKey(record.Title, record.StartDate)
	if cached, exists := s.cache.Franchise(key); exists && cached.Status == models.FieldResolved {
		s.copyBack(cached, record)
		return nil
	}

	// Tier 1: the curated override table takes precedence over all external
	// lookups and classifies as strategic unconditionally.
	if override, exists := s.overrides[record.Title]; exists {
		delta := HypeDeltaDays(override.SequelDate, record.StartDate)
		sequelDate := override.SequelDate
		entry := &models.FranchiseEntry{
			Status:        models.FieldResolved,
			Source:        models.FranchiseSourceOverride,
			SequelName:    override.SequelName,
			SequelDate:    &sequelDate,
			HypeDeltaDays: &delta,
			Strategic:     true,
		}
		logger.WithFields(logrus.Fields{
			"sequel":          override.SequelName,
			"hype_delta_days": delta,
		}).Info("Franchise resolved from manual override")
		return s.store(key, entry, record)
	}

	siblings, source, sawTransientFailure := s.lookupTiers(ctx, record, logger)

	if len(siblings) == 0 {
		if sawTransientFailure {
			// Inconclusive attempt: leave the instance unresolved so the next
			// run retries instead of caching a false "Standalone".
			logger.Warn("All franchise tiers inconclusive, deferring to next run")
			return nil
		}
		entry := &models.FranchiseEntry{
			Status:     models.FieldResolved,
			Source:     source,
			SequelName: models.SequelStandalone,
		}
		logger.Info("No franchise membership found, marking standalone")
		return s.store(key, entry, record)
	}

	sequelName, sequelDate, found := selectNextRelease(siblings, record.StartDate)
	if !found {
		entry := &models.FranchiseEntry{
			Status:     models.FieldResolved,
			Source:     source,
			SequelName: models.SequelNone,
		}
		logger.WithField("siblings", len(siblings)).Info("Franchise has no release after giveaway start")
		return s.store(key, entry, record)
	}

	delta := HypeDeltaDays(sequelDate, record.StartDate)
	entry := &models.FranchiseEntry{
		Status:        models.FieldResolved,
		Source:        source,
		SequelName:    sequelName,
		SequelDate:    &sequelDate,
		HypeDeltaDays: &delta,
		Strategic:     IsStrategicHype(delta),
	}
	logger.WithFields(logrus.Fields{
		"source":          source,
		"sequel":          sequelName,
		"sequel_date":     sequelDate.Format(models.ISODateLayout),
		"hype_delta_days": delta,
		"strategic":       entry.Strategic,
	}).Info("Franchise resolved with computed lead time")

	return s.store(key, entry, record)
}

// lookupTiers walks the tier list in order and returns the first non-empty
// sibling set. Tier errors are inconclusive, not terminal: the walk continues
// and the caller avoids caching a conclusion built on a failed attempt.
func (s *FranchiseService) lookupTiers(ctx context.Context, record *models.GiveawayRecord, logger *logrus.Entry) ([]models.SiblingRelease, string, bool) {
	query := FranchiseQuery{
		Title:     record.Title,
		Publisher: realPublisher(record.Publisher),
	}

	sawTransientFailure := false
	for _, tier := range s.tiers {
		siblings, err := tier.Lookup(ctx, query)
		if err != nil {
			if errors.Is(err, ErrNotConfigured) {
				logger.WithField("tier", tier.Name()).Debug("Tier skipped, credentials not configured")
				sawTransientFailure = true
				continue
			}
			logServiceError(err)
			logger.WithField("tier", tier.Name()).Warn("Franchise tier lookup failed")
			sawTransientFailure = true
			continue
		}
		if len(siblings) > 0 {
			return siblings, tier.Name(), sawTransientFailure
		}
		logger.WithField("tier", tier.Name()).Debug("Tier returned no siblings")
	}

	return nil, "", sawTransientFailure
}

func (s *FranchiseService) store(key string, entry *models.FranchiseEntry, record *models.GiveawayRecord) error {
	s.cache.SetFranchise(key, entry)
	if err := s.cache.Save(); err != nil {
		logrus.WithError(err).Error("Failed to persist franchise resolution")
		return err
	}
	s.copyBack(entry, record)
	return nil
}

func (s *FranchiseService) copyBack(entry *models.FranchiseEntry, record *models.GiveawayRecord) {
	record.NextSequelName = entry.SequelName
	if entry.SequelDate != nil {
		record.NextSequelDate = entry.SequelDate.Format(models.ISODateLayout)
	} else {
		record.NextSequelDate = models.SequelDateNA
	}
	record.HypeDeltaDays = entry.HypeDeltaDays
	record.IsStrategicHype = entry.Strategic
}

// selectNextRelease normalizes sibling dates and picks the earliest release
// strictly after the giveaway start. Malformed dates skip their candidate
// only; siblings dated on or before the start never survive.
func selectNextRelease(siblings []models.SiblingRelease, startDate time.Time) (string, time.Time, bool) {
	var (
		bestName string
		bestDate time.Time
		found    bool
	)

	for _, sibling := range siblings {
		releaseDate, err := parseSiblingDate(sibling.RawDate)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"sibling":  sibling.Name,
				"raw_date": sibling.RawDate,
			}).Debug("Skipping sibling with unparseable date")
			continue
		}
		if !releaseDate.After(startDate) {
			continue
		}
		if !found || releaseDate.Before(bestDate) {
			bestName = sibling.Name
			bestDate = releaseDate
			found = true
		}
	}

	return bestName, bestDate, found
}

// parseSiblingDate normalizes the representations the tiers emit: RFC3339
// timestamps, plain ISO dates, and numeric epoch seconds.
func parseSiblingDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("empty date")
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse(models.ISODateLayout, raw); err == nil {
		return parsed.UTC(), nil
	}
	if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(epoch, 0).UTC(), nil
	}
	return time.Time{}, errors.New("unsupported date representation: " + raw)
}

// realPublisher filters the publisher sentinels out of tier queries.
func realPublisher(publisher string) string {
	if publisher == "" || publisher == models.PublisherUnknown || publisher == models.PublisherNotFound {
		return ""
	}
	return publisher
}

// collectionTier is the metadata-service fallback: resolve the title's
// collection id, then list the collection's releases.
type collectionTier struct {
	igdb *IGDBService
}

// NewCollectionTier wraps the metadata service as a franchise lookup tier.
func NewCollectionTier(igdb *IGDBService) FranchiseTier {
	return &collectionTier{igdb: igdb}
}

func (t *collectionTier) Name() string {
	return models.FranchiseSourceCollection
}

func (t *collectionTier) Lookup(ctx context.Context, query FranchiseQuery) ([]models.SiblingRelease, error) {
	details, found, err := t.igdb.LookupDetails(ctx, query.Title)
	if err != nil {
		return nil, err
	}
	if !found || details.CollectionID == 0 {
		return nil, nil
	}
	return t.igdb.CollectionReleases(ctx, details.CollectionID)
}

var _ FranchiseTier = (*WikidataService)(nil)
var _ FranchiseTier = (*collectionTier)(nil)
