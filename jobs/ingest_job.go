package jobs

import (
	"context"
	"time"

	"github.com/epicfreebies/hype-backend/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IngestJob pulls the free-games promotions feed and appends new giveaway
// instances to the ledger.
type IngestJob struct {
	Ledger *services.LedgerService
	Epic   *services.EpicService
}

func NewIngestJob(ledger *services.LedgerService, epic *services.EpicService) *IngestJob {
	return &IngestJob{Ledger: ledger, Epic: epic}
}

func (j *IngestJob) Run(ctx context.Context) {
	startTime := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"job":    "ingest",
		"run_id": uuid.NewString(),
	})
	logger.Info("Running giveaway ingest job...")

	existing, err := j.Ledger.Load()
	if err != nil {
		logger.Errorf("Ingest job failed: error loading ledger: %v", err)
		return
	}

	incoming, err := j.Epic.FetchFreePromotions(ctx)
	if err != nil {
		logger.Errorf("Ingest job failed: error fetching promotions feed: %v", err)
		return
	}

	merged, added := j.Ledger.AppendNew(existing, incoming)
	if added == 0 {
		logger.Info("Ingest job: no new giveaways found")
		return
	}

	if err := j.Ledger.Save(merged); err != nil {
		logger.Errorf("Ingest job failed: error saving ledger: %v", err)
		return
	}

	logger.Infof("Ingest job completed: added %d new giveaways (took %v)",
		added, time.Since(startTime))
}
