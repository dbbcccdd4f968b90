package manager

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"Go2LineCount/internal/config"
	"Go2LineCount/internal/model"

	"github.com/google/uuid"
)

type recordingWriter struct {
	mu      sync.Mutex
	name    string
	err     error
	reports []model.Report
	closed  bool
}

func (r *recordingWriter) Name() string { return r.name }

func (r *recordingWriter) Write(_ context.Context, report model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return r.err
}

func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

func newManager(t *testing.T, sortBy string, maxItems int, writers ...model.Writer) *Manager {
	t.Helper()
	cfg := config.Default()
	cfg.Counter.SortBy = sortBy
	cfg.Counter.MaxItems = maxItems
	m, err := NewManager(cfg, writers)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

const sixLines = "b\nc\na\nb\nb\nc\n"

func TestRun_Examples(t *testing.T) {
	tests := []struct {
		name     string
		sortBy   string
		maxItems int
		want     string
	}{
		{"count", "count", 0, "b\t3\nc\t2\na\t1\n"},
		{"key with limit", "key", 2, "a\t1\nb\t3\n"},
		{"count with limit", "count", 1, "b\t3\n"},
		{"key", "KEY", 0, "a\t1\nb\t3\nc\t2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t, tt.sortBy, tt.maxItems)
			var out bytes.Buffer
			summary, err := m.Run(context.Background(), strings.NewReader(sixLines), &out)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, out.String())
			}
			if summary.TotalRecords != 6 || summary.DistinctRecords != 3 {
				t.Errorf("Unexpected summary: %+v", summary)
			}
		})
	}
}

func TestRun_RoundTripUnordered(t *testing.T) {
	input := "x\r\ny\nx\n\nz\nx\n\ny"
	m := newManager(t, "none", 0)

	var out bytes.Buffer
	if _, err := m.Run(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := map[string]uint64{"x": 3, "y": 2, "z": 1, "": 2}
	got := make(map[string]uint64)
	for _, line := range strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n") {
		i := strings.LastIndexByte(line, '\t')
		if i < 0 {
			t.Fatalf("Malformed line %q", line)
		}
		n, err := strconv.ParseUint(line[i+1:], 10, 64)
		if err != nil {
			t.Fatalf("Malformed count in %q: %v", line, err)
		}
		if _, dup := got[line[:i]]; dup {
			t.Errorf("Record %q emitted twice", line[:i])
		}
		got[line[:i]] = n
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d records, got %v", len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Record %q: expected %d, got %d", k, v, got[k])
		}
	}
}

func TestRun_WritersReceiveReport(t *testing.T) {
	w1 := &recordingWriter{name: "one"}
	w2 := &recordingWriter{name: "two"}
	m := newManager(t, "count", 2, w1, w2)

	var out bytes.Buffer
	if _, err := m.Run(context.Background(), strings.NewReader(sixLines), &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, w := range []*recordingWriter{w1, w2} {
		if len(w.reports) != 1 {
			t.Fatalf("Writer %s: expected 1 report, got %d", w.name, len(w.reports))
		}
		r := w.reports[0]
		if len(r.Entries) != 2 || r.Entries[0] != (model.Entry{Key: "b", Count: 3}) {
			t.Errorf("Writer %s: unexpected entries %v", w.name, r.Entries)
		}
		if r.SortBy != model.SortByCount || r.Limit != 2 || r.Summary.TotalRecords != 6 {
			t.Errorf("Writer %s: unexpected report %+v", w.name, r)
		}
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !w1.closed || !w2.closed {
		t.Error("Expected writers to be closed")
	}
}

func TestRun_ReportsHaveDistinctIDs(t *testing.T) {
	w := &recordingWriter{name: "rec"}
	m := newManager(t, "count", 0, w)

	for range 2 {
		var out bytes.Buffer
		if _, err := m.Run(context.Background(), strings.NewReader(sixLines), &out); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	}
	if len(w.reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(w.reports))
	}
	if w.reports[0].ID == uuid.Nil || w.reports[0].ID == w.reports[1].ID {
		t.Errorf("Expected distinct report ids, got %v and %v", w.reports[0].ID, w.reports[1].ID)
	}
}

func TestRun_WriterFailure(t *testing.T) {
	boom := errors.New("sink offline")
	m := newManager(t, "count", 0, &recordingWriter{name: "ok"}, &recordingWriter{name: "bad", err: boom})

	var out bytes.Buffer
	_, err := m.Run(context.Background(), strings.NewReader(sixLines), &out)

	var serr *model.SinkError
	if !errors.As(err, &serr) || serr.Writer != "bad" || !errors.Is(err, boom) {
		t.Fatalf("Expected SinkError from 'bad', got %v", err)
	}
	if out.String() != "b\t3\nc\t2\na\t1\n" {
		t.Errorf("Output must be complete before writers run, got %q", out.String())
	}
}

func TestRun_DecodingErrorSkipsWriters(t *testing.T) {
	w := &recordingWriter{name: "rec"}
	m := newManager(t, "key", 0, w)

	var out bytes.Buffer
	_, err := m.Run(context.Background(), strings.NewReader("a\n\xff\nb\n"), &out)

	var derr *model.TextDecodingError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected TextDecodingError, got %v", err)
	}
	if out.String() != "a\t1\nb\t1\n" {
		t.Errorf("Expected lines before the bad record, got %q", out.String())
	}
	if len(w.reports) != 0 {
		t.Error("Writers must not run after a failed emission")
	}
}

func TestRun_CanceledStopsQuietly(t *testing.T) {
	w := &recordingWriter{name: "rec"}
	m := newManager(t, "count", 0, w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	summary, err := m.Run(ctx, strings.NewReader(sixLines), &out)
	if err != nil {
		t.Fatalf("Expected success after cancellation, got %v", err)
	}
	if !summary.Stopped || out.Len() != 0 || len(w.reports) != 0 {
		t.Errorf("Expected a quiet stop, got %q (%+v)", out.String(), summary)
	}
}

func TestOpenInput(t *testing.T) {
	_, err := OpenInput(filepath.Join(t.TempDir(), "no_test_file_here"))
	var oerr *model.InputOpenError
	if !errors.As(err, &oerr) {
		t.Fatalf("Expected InputOpenError, got %v", err)
	}

	for _, path := range []string{"", "-"} {
		in, err := OpenInput(path)
		if err != nil {
			t.Fatalf("OpenInput(%q) failed: %v", path, err)
		}
		in.Close()
	}
}

func TestNewManager_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Counter.SortBy = "length"
	if _, err := NewManager(cfg, nil); err == nil {
		t.Error("Expected error for invalid sort key")
	}
}
