package manager

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"Go2LineCount/internal/config"
	"Go2LineCount/internal/engine/impl/exact"
	"Go2LineCount/internal/engine/rank"
	"Go2LineCount/internal/model"
	"Go2LineCount/pkg/records"

	"github.com/google/uuid"
)

// Manager orchestrates one counting run: count, rank, emit, then hand the
// ranked report to every configured writer.
type Manager struct {
	runName   string
	sortBy    model.SortKey
	limit     int
	workers   int
	numShards uint32
	writers   []model.Writer
}

// NewManager creates a new Manager. The writers are owned by the manager and
// released by Close.
func NewManager(cfg *config.Config, writers []model.Writer) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sortBy, err := cfg.SortKey()
	if err != nil {
		return nil, err
	}

	return &Manager{
		runName:   cfg.Counter.RunName,
		sortBy:    sortBy,
		limit:     cfg.Counter.MaxItems,
		workers:   cfg.Counter.NumWorkers,
		numShards: cfg.Counter.NumShards,
		writers:   writers,
	}, nil
}

// OpenInput opens the named file, or standard input when path is empty or "-".
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.InputOpenError{Path: path, Err: err}
	}
	return f, nil
}

// Count reads every record of in into a new frequency table.
func (m *Manager) Count(in io.Reader) (*exact.Table, error) {
	start := time.Now()
	table := exact.New(m.runName, m.numShards)
	if err := table.CountFrom(records.NewReader(in)); err != nil {
		return nil, err
	}
	log.Printf("Counted %d records, %d distinct, in %s", table.Total(), table.Len(), time.Since(start))
	return table, nil
}

// Rank orders the table's entries with the given sort key and limit.
func (m *Manager) Rank(table *exact.Table, sortBy model.SortKey, limit int) []model.Entry {
	start := time.Now()
	ranker := rank.New(sortBy, limit, m.workers)
	ranked := ranker.Rank(table.Entries())
	log.Printf("Ranked %d of %d entries with %s in %s", len(ranked), table.Len(), ranker.Name(), time.Since(start))
	return ranked
}

// Run counts in, writes the ranked report to out, and then fans the report out
// to the writers. Writers only run when every line reached out.
// ctx canceled during emission stops the run successfully.
func (m *Manager) Run(ctx context.Context, in io.Reader, out io.Writer) (model.Summary, error) {
	var summary model.Summary

	table, err := m.Count(in)
	if err != nil {
		return summary, err
	}
	summary.TotalRecords = table.Total()
	summary.DistinctRecords = table.Len()

	ranked := m.Rank(table, m.sortBy, m.limit)

	res, err := exact.NewTextWriter(out).Emit(ctx, ranked, m.limit)
	summary.Emitted = res.Lines
	summary.Stopped = res.Stopped
	if err != nil {
		return summary, err
	}
	if res.Stopped {
		log.Printf("Output closed after %d lines, stopping.", res.Lines)
		return summary, nil
	}

	if len(m.writers) == 0 {
		return summary, nil
	}
	report := model.Report{
		ID:        uuid.New(),
		RunName:   m.runName,
		Timestamp: time.Now(),
		SortBy:    m.sortBy,
		Limit:     m.limit,
		Entries:   ranked[:res.Lines],
		Summary:   summary,
	}
	return summary, m.writeReport(ctx, report)
}

// writeReport hands the report to every writer concurrently and joins their failures.
func (m *Manager) writeReport(ctx context.Context, report model.Report) error {
	log.Printf("Writing report '%s' to %d writers.", report.RunName, len(m.writers))

	errs := make([]error, len(m.writers))
	var wg sync.WaitGroup
	wg.Add(len(m.writers))

	for i, writer := range m.writers {
		go func(i int, w model.Writer) {
			defer wg.Done()
			if err := w.Write(ctx, report); err != nil {
				log.Printf("Error writing report with writer %s: %v", w.Name(), err)
				errs[i] = &model.SinkError{Writer: w.Name(), Err: err}
			}
		}(i, writer)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Close releases every writer.
func (m *Manager) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, &model.SinkError{Writer: w.Name(), Err: err})
		}
	}
	log.Println("Manager stopped.")
	return errors.Join(errs...)
}
