package services

import (
	"math"
	"time"
)

// Strategic-hype window in days between a giveaway's start and the next
// franchise release. The live enrichment step and the batch reclassification
// job both classify through ClassifyHype so the stored flags and the
// recomputed statistics can never disagree on the threshold.
const (
	HypeWindowMinDays = 0
	HypeWindowMaxDays = 90
)

// HypeDeltaDays returns whole days from the giveaway start to the sequel
// release, negative when the sequel already shipped.
func HypeDeltaDays(sequelDate, startDate time.Time) int {
	return int(math.Floor(sequelDate.Sub(startDate).Hours() / 24))
}

// IsStrategicHype reports whether a lead time falls inside the hype window.
func IsStrategicHype(deltaDays int) bool {
	return deltaDays >= HypeWindowMinDays && deltaDays <= HypeWindowMaxDays
}

// ClassifyHype derives the lead-time delta and strategic flag for a sequel
// date. A nil sequel date yields a nil delta and a false flag.
func ClassifyHype(sequelDate *time.Time, startDate time.Time) (*int, bool) {
	if sequelDate == nil {
		return nil, false
	}
	delta := HypeDeltaDays(*sequelDate, startDate)
	return &delta, IsStrategicHype(delta)
}
