// Package projection converts record-store rows into the native shape of each
// projection target. Every builder is a pure function: identical rows always
// produce identical keys and identical contents.
package projection

import (
	"strconv"
	"time"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

// Document collections
const (
	CollectionUsers        = "users"
	CollectionHands        = "hands"
	CollectionTransactions = "transactions"
	CollectionTournaments  = "tournaments"
)

// Partitioned tables
const (
	TableHandsByTableDate       = "hands_by_table_date"
	TableTransactionsByUserDate = "transactions_by_user_date"
)

// Graph vocabulary
const (
	LabelUser    = "User"
	LabelTable   = "Table"
	KeyUser      = "user_id"
	KeyTable     = "table_id"
	EdgePlayedAt = "PLAYED_AT"
)

// Unknown replaces missing text attributes.
const Unknown = "Unknown"

// DayLayout is the day bucket format of partition keys.
const DayLayout = "2006-01-02"

func money(v *float64) float64 {
	if v == nil {
		return 0.0
	}
	return *v
}

func text(v *string) string {
	if v == nil || *v == "" {
		return Unknown
	}
	return *v
}

func count32(v *int32) int64 {
	if v == nil {
		return 0
	}
	return int64(*v)
}

func id(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func flag(v *bool) bool {
	return v != nil && *v
}

// timestamp normalizes to UTC at millisecond precision, the resolution every
// target store keeps.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Day returns the UTC day bucket of t.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

func requirePositive(row models.SourceRow, field string, v int64) error {
	if v <= 0 {
		return store.NewMappingError(string(row.Entity()), row.RowID(), field+" must be positive, got "+strconv.FormatInt(v, 10))
	}
	return nil
}

func key(v int64) string {
	return strconv.FormatInt(v, 10)
}
