package models

import "time"

// Franchise resolution sources, recorded so later runs (and the batch
// reclassifier) know whether the strategic flag was curated or computed.
const (
	FranchiseSourceOverride   = "override"
	FranchiseSourceKnowledge  = "knowledge_graph"
	FranchiseSourceCollection = "collection"
)

// FranchiseEntry is the cached outcome of one franchise/sequel resolution.
// Unlike basic metadata it is keyed per promotion instance (title plus start
// date), because the lead-time window moves with the giveaway, not the game.
type FranchiseEntry struct {
	Status FieldStatus `json:"status,omitempty"`
	Source string      `json:"source,omitempty"`

	// SequelName is a real title, SequelStandalone, or SequelNone.
	SequelName string     `json:"sequel_name,omitempty"`
	SequelDate *time.Time `json:"sequel_date,omitempty"`

	HypeDeltaDays *int `json:"hype_delta_days,omitempty"`
	Strategic     bool `json:"strategic,omitempty"`
}

// FranchiseKey builds the per-instance cache key for franchise resolution.
func FranchiseKey(title string, start time.Time) string {
	return title + "|" + start.Format(ISODateLayout)
}

// SiblingRelease is one entry of a franchise as reported by a lookup tier.
// RawDate is kept unparsed because the tiers disagree on representation
// (ISO dates from the knowledge graph, epoch seconds from the metadata
// service); normalization happens per candidate during selection so one
// malformed date cannot sink the whole lookup.
type SiblingRelease struct {
	Name    string
	RawDate string
}
