package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/epicfreebies/hype-backend/models"
	"github.com/epicfreebies/hype-backend/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EnrichJob runs the metadata resolver and franchise resolver over every
// ledger record, one at a time in source order. A single record's failure
// never aborts the batch: errors (and panics from a misbehaving decode) are
// contained at the per-record boundary and the batch continues.
type EnrichJob struct {
	Ledger    *services.LedgerService
	Enricher  *services.EnrichmentService
	Franchise *services.FranchiseService
}

func NewEnrichJob(ledger *services.LedgerService, enricher *services.EnrichmentService, franchise *services.FranchiseService) *EnrichJob {
	return &EnrichJob{Ledger: ledger, Enricher: enricher, Franchise: franchise}
}

func (j *EnrichJob) Run(ctx context.Context) {
	startTime := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"job":    "enrich",
		"run_id": uuid.NewString(),
	})
	logger.Info("Running enrichment job...")

	records, err := j.Ledger.Load()
	if err != nil {
		logger.Errorf("Enrichment job failed: error loading ledger: %v", err)
		return
	}
	if len(records) == 0 {
		logger.Warn("Enrichment job: ledger is empty")
		return
	}

	failures := 0
	for i := range records {
		if err := j.processRecord(ctx, &records[i]); err != nil {
			failures++
			logger.WithFields(logrus.Fields{
				"id":    records[i].ID,
				"title": records[i].Title,
			}).Errorf("Record enrichment failed, continuing batch: %v", err)
		}
	}

	if err := j.Ledger.Save(records); err != nil {
		logger.Errorf("Enrichment job failed: error saving ledger: %v", err)
		return
	}

	logger.Infof("Enrichment job completed: processed %d records, %d failures (took %v)",
		len(records), failures, time.Since(startTime))
}

func (j *EnrichJob) processRecord(ctx context.Context, record *models.GiveawayRecord) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic while processing record: %v", recovered)
		}
	}()

	if err := j.Enricher.EnrichRecord(ctx, record); err != nil {
		return err
	}
	return j.Franchise.ResolveRecord(ctx, record)
}
