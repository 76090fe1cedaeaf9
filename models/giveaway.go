package models

import "time"

// Sentinel strings carried on exported records. Downstream consumers (the
// analytics notebook, the README generator, the dashboard) filter on these
// exact values, so they are part of the external contract and must not change.
const (
	PublisherUnknown  = "Unknown Publisher"
	PublisherNotFound = "Publisher Not Found"
	DateNotFound      = "Date Not Found"
	ScoreNotFound     = "Score Not Found"
	SequelStandalone  = "Standalone"
	SequelNone        = "No Future Sequel Found"
	SequelDateNA      = "N/A"
)

// LedgerDateLayout is the dd-mm-yyyy layout the giveaway ledger has always
// used on disk.
const LedgerDateLayout = "02-01-2006"

// ISODateLayout is used for release and sequel dates on exported records.
const ISODateLayout = "2006-01-02"

// GiveawayRecord is one promotional instance of a free game: a title offered
// between a start and an end date, enriched with externally looked-up
// metadata and the franchise-hype classification.
type GiveawayRecord struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// Price is nil until resolved; 0.0 is a terminal value covering both
	// "genuinely free elsewhere" and "no catalog match".
	Price *float64 `json:"price,omitempty"`

	// Publisher holds a real publisher name, PublisherUnknown, or
	// PublisherNotFound.
	Publisher string `json:"publisher,omitempty"`

	// ReleaseDate is an ISO date string or DateNotFound. Rating is the
	// aggregate 0-100 score rendered as text, or ScoreNotFound. Both columns
	// are mixed-type downstream, so they stay strings at this boundary.
	ReleaseDate string `json:"release_date,omitempty"`
	Rating      string `json:"rating,omitempty"`

	NextSequelName string `json:"next_sequel_name,omitempty"`
	NextSequelDate string `json:"next_sequel_date,omitempty"`

	HypeDeltaDays   *int `json:"hype_delta_days,omitempty"`
	IsStrategicHype bool `json:"is_strategic_hype"`
}

// CacheEntry holds the title-invariant metadata for one distinct title.
// A title given away more than once shares a single entry, which is what
// keeps re-released games from burning external API budget on every run.
// Franchise timing is instance-specific and lives in FranchiseEntry instead.
type CacheEntry struct {
	Price       Field[float64]   `json:"price"`
	Publisher   Field[string]    `json:"publisher"`
	ReleaseDate Field[time.Time] `json:"release_date"`
	Rating      Field[float64]   `json:"rating"`
}

// FullyAttempted reports whether every basic-metadata field has reached a
// state the resolver would not spend another call on this run.
func (e *CacheEntry) FullyAttempted() bool {
	return e.Price.Status != FieldUnresolved &&
		e.Publisher.IsResolved() &&
		e.ReleaseDate.Status != FieldUnresolved &&
		e.Rating.Status != FieldUnresolved
}
