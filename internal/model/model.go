package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is a single (record, count) pair viewed from a frozen frequency table.
// Key holds the raw record bytes; it is not required to be valid UTF-8.
type Entry struct {
	Key   string
	Count uint64
}

// SortKey selects how ranked entries are ordered.
type SortKey uint8

const (
	// SortByCount orders by count descending, ties by record bytes ascending.
	SortByCount SortKey = iota
	// SortByKey orders by record bytes ascending.
	SortByKey
	// SortNone keeps the table's native iteration order.
	SortNone
)

// ParseSortKey parses "count", "key" or "none", ignoring case.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count":
		return SortByCount, nil
	case "key":
		return SortByKey, nil
	case "none":
		return SortNone, nil
	default:
		return 0, fmt.Errorf("unknown sort key '%s' (want count, key or none)", s)
	}
}

func (k SortKey) String() string {
	switch k {
	case SortByCount:
		return "count"
	case SortByKey:
		return "key"
	case SortNone:
		return "none"
	default:
		return fmt.Sprintf("SortKey(%d)", uint8(k))
	}
}

// Summary describes the outcome of a single counting run.
type Summary struct {
	TotalRecords    uint64
	DistinctRecords int
	Emitted         int
	// Stopped is set when the output consumer went away before all entries were written.
	Stopped bool
}

// Report is the payload handed to every enabled Writer after a successful run.
type Report struct {
	// ID tells apart reports of the same run name.
	ID        uuid.UUID
	RunName   string
	Timestamp time.Time
	SortBy    SortKey
	Limit     int
	Entries   []Entry
	Summary   Summary
}
