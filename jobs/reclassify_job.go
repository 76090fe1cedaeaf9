package jobs

import (
	"time"

	"github.com/epicfreebies/hype-backend/models"
	"github.com/epicfreebies/hype-backend/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReclassifyJob recomputes hype deltas and strategic flags for the whole
// ledger from the persisted sequel dates. It shares the classifier with the
// live enrichment step, so stored flags and displayed statistics cannot
// drift apart on the window threshold. Records resolved from the manual
// override table keep their unconditional strategic flag.
type ReclassifyJob struct {
	Ledger *services.LedgerService
	Cache  *services.CacheService
}

func NewReclassifyJob(ledger *services.LedgerService, cache *services.CacheService) *ReclassifyJob {
	return &ReclassifyJob{Ledger: ledger, Cache: cache}
}

func (j *ReclassifyJob) Run() {
	startTime := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"job":    "reclassify",
		"run_id": uuid.NewString(),
	})
	logger.Info("Running hype reclassification job...")

	records, err := j.Ledger.Load()
	if err != nil {
		logger.Errorf("Reclassification job failed: error loading ledger: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	changed := 0
	for i := range records {
		if j.reclassify(&records[i]) {
			changed++
		}
	}

	if changed > 0 {
		if err := j.Ledger.Save(records); err != nil {
			logger.Errorf("Reclassification job failed: error saving ledger: %v", err)
			return
		}
	}

	logger.Infof("Reclassification job completed: %d of %d records updated (took %v)",
		changed, len(records), time.Since(startTime))
}

func (j *ReclassifyJob) reclassify(record *models.GiveawayRecord) bool {
	key := models.FranchiseKey(record.Title, record.StartDate)
	if entry, exists := j.Cache.Franchise(key); exists && entry.Source == models.FranchiseSourceOverride {
		return false
	}

	sequelDate, err := time.Parse(models.ISODateLayout, record.NextSequelDate)
	var delta *int
	var strategic bool
	if err == nil {
		delta, strategic = services.ClassifyHype(&sequelDate, record.StartDate)
	} else {
		// Sentinel or empty sequel date: no delta, never strategic
		delta, strategic = nil, false
	}

	changed := strategic != record.IsStrategicHype || !intPointersEqual(delta, record.HypeDeltaDays)
	record.HypeDeltaDays = delta
	record.IsStrategicHype = strategic
	return changed
}

func intPointersEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
