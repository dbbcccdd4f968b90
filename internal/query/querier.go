package query

import (
	"context"
	"fmt"
	"strings"

	"Go2LineCount/internal/config"
	"Go2LineCount/internal/engine/impl/exact"
	"Go2LineCount/internal/engine/rank"
	"Go2LineCount/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Querier defines the interface for querying counted records.
type Querier interface {
	Top(ctx context.Context, sortBy model.SortKey, limit int) ([]model.Entry, error)
	Summary(ctx context.Context) (model.Summary, error)
}

// tableQuerier ranks a frozen frequency table on every request.
type tableQuerier struct {
	table   *exact.Table
	workers int
}

// NewTableQuerier creates a querier over a table that is no longer written to.
func NewTableQuerier(table *exact.Table, workers int) Querier {
	return &tableQuerier{table: table, workers: workers}
}

func (q *tableQuerier) Top(_ context.Context, sortBy model.SortKey, limit int) ([]model.Entry, error) {
	return rank.New(sortBy, limit, q.workers).Rank(q.table.Entries()), nil
}

func (q *tableQuerier) Summary(_ context.Context) (model.Summary, error) {
	return model.Summary{
		TotalRecords:    q.table.Total(),
		DistinctRecords: q.table.Len(),
	}, nil
}

// clickhouseQuerier reads the latest report of a run from the record_counts table.
type clickhouseQuerier struct {
	conn    clickhouse.Conn
	runName string
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig, runName string) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn, runName: runName}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// latestRun restricts a query to the rows of the newest report of the run.
// Reports are told apart by ReportID, so two written in the same instant never mix.
const latestRun = `
	FROM record_counts
	WHERE RunName = ? AND ReportID = (
		SELECT argMax(ReportID, Timestamp) FROM record_counts WHERE RunName = ?
	)`

// topQuery builds the ranking query. String comparison in ClickHouse is bytewise,
// which gives the same order as the in-memory ranker.
func topQuery(sortBy model.SortKey, limit int) string {
	var b strings.Builder
	b.WriteString("SELECT Record, Count")
	b.WriteString(latestRun)

	switch sortBy {
	case model.SortByCount:
		b.WriteString(" ORDER BY Count DESC, Record ASC")
	case model.SortByKey:
		b.WriteString(" ORDER BY Record ASC")
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return b.String()
}

func (q *clickhouseQuerier) Top(ctx context.Context, sortBy model.SortKey, limit int) ([]model.Entry, error) {
	rows, err := q.conn.Query(ctx, topQuery(sortBy, limit), q.runName, q.runName)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.Key, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan record count: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary describes the stored report, which holds only the emitted entries.
func (q *clickhouseQuerier) Summary(ctx context.Context) (model.Summary, error) {
	var (
		total    uint64
		distinct uint64
	)
	row := q.conn.QueryRow(ctx, "SELECT sum(Count), count()"+latestRun, q.runName, q.runName)
	if err := row.Scan(&total, &distinct); err != nil {
		return model.Summary{}, fmt.Errorf("failed to scan report summary: %w", err)
	}
	return model.Summary{
		TotalRecords:    total,
		DistinctRecords: int(distinct),
		Emitted:         int(distinct),
	}, nil
}
