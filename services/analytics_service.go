package services

import (
	"strconv"
	"time"

	"github.com/epicfreebies/hype-backend/models"
)

// Approximate CPI multipliers bringing past-year prices to 2026 value.
var inflationMultipliers = map[int]float64{
	2018: 1.32, 2019: 1.29, 2020: 1.27, 2021: 1.22,
	2022: 1.12, 2023: 1.08, 2024: 1.04, 2025: 1.01, 2026: 1.00,
}

// RealValue adjusts a historical price to 2026 dollars using the giveaway's
// start year. Years outside the table pass through unadjusted.
func RealValue(price float64, startDate time.Time) float64 {
	multiplier, exists := inflationMultipliers[startDate.Year()]
	if !exists {
		multiplier = 1.0
	}
	return price * multiplier
}

// LedgerSummary aggregates the enriched ledger for the reporting API.
// Sentinel values are excluded from aggregates, never errors: partial
// enrichment is the steady state.
type LedgerSummary struct {
	TotalRecords   int     `json:"total_records"`
	TotalValue     float64 `json:"total_value"`
	TotalRealValue float64 `json:"total_real_value"`
	RatedRecords   int     `json:"rated_records"`
	AverageRating  float64 `json:"average_rating"`
	StrategicHype  int     `json:"strategic_hype"`
	WithSequel     int     `json:"with_sequel"`
	Standalone     int     `json:"standalone"`
}

// Summarize computes summary statistics over the enriched ledger.
func Summarize(records []models.GiveawayRecord) LedgerSummary {
	summary := LedgerSummary{TotalRecords: len(records)}

	ratingSum := 0.0
	for _, record := range records {
		if record.Price != nil {
			summary.TotalValue += *record.Price
			summary.TotalRealValue += RealValue(*record.Price, record.StartDate)
		}
		if rating, err := strconv.ParseFloat(record.Rating, 64); err == nil {
			ratingSum += rating
			summary.RatedRecords++
		}
		if record.IsStrategicHype {
			summary.StrategicHype++
		}
		switch record.NextSequelName {
		case "":
			// not yet resolved
		case models.SequelStandalone:
			summary.Standalone++
		case models.SequelNone:
			// franchise exists, nothing upcoming
		default:
			summary.WithSequel++
		}
	}

	if summary.RatedRecords > 0 {
		summary.AverageRating = ratingSum / float64(summary.RatedRecords)
	}

	return summary
}
