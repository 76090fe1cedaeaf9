package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/epicfreebies/hype-backend/models"
	"github.com/sirupsen/logrus"
)

var ledgerHeader = []string{
	"id", "game", "start_date", "end_date",
	"price", "publisher", "release_date", "aggregated_rating",
	"next_sequel_name", "next_sequel_date", "hype_delta_days", "is_strategic_hype",
}

// LedgerService is the thin I/O boundary around the append-only giveaway
// ledger CSV. The ledger is shared with external collaborators (analytics
// notebooks, the README generator), so the column set and dd-mm-yyyy dates
// are contractual. Rows are never deleted; enrichment only fills columns in.
type LedgerService struct {
	path string
}

// NewLedgerService creates a ledger store for the given CSV path.
func NewLedgerService(path string) *LedgerService {
	return &LedgerService{path: path}
}

// Load reads the full ledger. A missing file yields an empty ledger. Rows
// without a title are dropped with a warning (nothing can be looked up for
// them); a start date after the end date is logged but kept as-is. Rows
// missing an id get one assigned monotonically past the highest seen.
func (s *LedgerService) Load() ([]models.GiveawayRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", s.path).Info("No ledger file found, starting empty")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger %s: %w", s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // older ledgers have fewer columns

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", s.path, err)
	}

	var records []models.GiveawayRecord
	maxID := 0
	dropped := 0

	for i, row := range rows {
		if i == 0 && len(row) > 1 && strings.EqualFold(row[0], "id") {
			continue // header row
		}
		record, ok := parseLedgerRow(row)
		if !ok {
			dropped++
			continue
		}
		if record.ID > maxID {
			maxID = record.ID
		}
		records = append(records, record)
	}

	for i := range records {
		if records[i].ID == 0 {
			maxID++
			records[i].ID = maxID
		}
	}

	if dropped > 0 {
		logrus.WithField("dropped_rows", dropped).Warn("Dropped ledger rows with missing titles")
	}
	logrus.WithFields(logrus.Fields{
		"path":    s.path,
		"records": len(records),
	}).Info("Loaded giveaway ledger")

	return records, nil
}

// Save writes the full ledger back via a temp file and rename.
func (s *LedgerService) Save(records []models.GiveawayRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory %s: %w", dir, err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create ledger temp file: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(ledgerHeader); err != nil {
		file.Close()
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(formatLedgerRow(record)); err != nil {
			file.Close()
			return fmt.Errorf("failed to write ledger row %d: %w", record.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close ledger temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	return nil
}

// AppendNew merges incoming giveaway instances into the existing ledger,
// deduplicated by (title, start date), continuing ids monotonically from the
// highest existing one. Returns the merged ledger and the number added.
func (s *LedgerService) AppendNew(existing, incoming []models.GiveawayRecord) ([]models.GiveawayRecord, int) {
	seen := make(map[string]bool, len(existing))
	maxID := 0
	for _, record := range existing {
		seen[models.FranchiseKey(record.Title, record.StartDate)] = true
		if record.ID > maxID {
			maxID = record.ID
		}
	}

	merged := existing
	added := 0
	for _, record := range incoming {
		key := models.FranchiseKey(record.Title, record.StartDate)
		if record.Title == "" || seen[key] {
			continue
		}
		seen[key] = true
		maxID++
		record.ID = maxID
		merged = append(merged, record)
		added++
	}

	return merged, added
}

func parseLedgerRow(row []string) (models.GiveawayRecord, bool) {
	get := func(index int) string {
		if index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	title := get(1)
	if title == "" {
		return models.GiveawayRecord{}, false
	}

	record := models.GiveawayRecord{Title: title}

	if id, err := strconv.Atoi(get(0)); err == nil {
		record.ID = id
	}

	startDate, startErr := parseLedgerDate(get(2))
	endDate, endErr := parseLedgerDate(get(3))
	if startErr != nil {
		logrus.WithFields(logrus.Fields{
			"title":      title,
			"start_date": get(2),
		}).Warn("Ledger row has unparseable start date, dropping")
		return models.GiveawayRecord{}, false
	}
	record.StartDate = startDate
	if endErr == nil {
		record.EndDate = endDate
		if startDate.After(endDate) {
			// Soft invariant: logged, never corrected
			logrus.WithFields(logrus.Fields{
				"title":      title,
				"start_date": get(2),
				"end_date":   get(3),
			}).Warn("Ledger row has start date after end date")
		}
	}

	if price, err := strconv.ParseFloat(get(4), 64); err == nil {
		record.Price = &price
	}
	record.Publisher = get(5)
	record.ReleaseDate = get(6)
	record.Rating = get(7)
	record.NextSequelName = get(8)
	record.NextSequelDate = get(9)
	if delta, err := strconv.Atoi(get(10)); err == nil {
		record.HypeDeltaDays = &delta
	}
	record.IsStrategicHype = strings.EqualFold(get(11), "true")

	return record, true
}

func formatLedgerRow(record models.GiveawayRecord) []string {
	price := ""
	if record.Price != nil {
		price = strconv.FormatFloat(*record.Price, 'f', 2, 64)
	}
	endDate := ""
	if !record.EndDate.IsZero() {
		endDate = record.EndDate.Format(models.LedgerDateLayout)
	}
	delta := ""
	if record.HypeDeltaDays != nil {
		delta = strconv.Itoa(*record.HypeDeltaDays)
	}

	return []string{
		strconv.Itoa(record.ID),
		record.Title,
		record.StartDate.Format(models.LedgerDateLayout),
		endDate,
		price,
		record.Publisher,
		record.ReleaseDate,
		record.Rating,
		record.NextSequelName,
		record.NextSequelDate,
		delta,
		strconv.FormatBool(record.IsStrategicHype),
	}
}

func parseLedgerDate(value string) (time.Time, error) {
	return time.Parse(models.LedgerDateLayout, value)
}
