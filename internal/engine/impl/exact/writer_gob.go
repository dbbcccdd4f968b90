package exact

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"Go2LineCount/internal/model"
)

// SummaryData holds the metadata for a persisted report, internal to the writer.
type SummaryData struct {
	ReportID        string `json:"report_id"`
	RunName         string `json:"run_name"`
	SortBy          string `json:"sort_by"`
	Limit           int    `json:"limit"`
	TotalRecords    uint64 `json:"total_records"`
	DistinctRecords int    `json:"distinct_records"`
	Entries         int    `json:"entries"`
	Timestamp       string `json:"timestamp"`
}

// GobWriter writes ranked reports to disk in gob format.
// It implements the model.Writer interface.
type GobWriter struct {
	rootPath string
}

// NewGobWriter creates a new writer rooted at rootPath.
func NewGobWriter(rootPath string) (model.Writer, error) {
	if rootPath == "" {
		return nil, fmt.Errorf("gob writer requires a root_path")
	}
	return &GobWriter{rootPath: rootPath}, nil
}

func (w *GobWriter) Name() string { return "gob" }

// Write creates <root>/<timestamp>/<run>/<report id>/ holding report.gob and summary.json.
func (w *GobWriter) Write(ctx context.Context, report model.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runDir := filepath.Join(w.rootPath, report.Timestamp.Format("2006-01-02_15-04-05"), report.RunName, report.ID.String())
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	filePath := filepath.Join(runDir, "report.gob")
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", filePath, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(report.Entries); err != nil {
		return fmt.Errorf("failed to encode entries to gob for file '%s': %w", filePath, err)
	}

	summary := SummaryData{
		ReportID:        report.ID.String(),
		RunName:         report.RunName,
		SortBy:          report.SortBy.String(),
		Limit:           report.Limit,
		TotalRecords:    report.Summary.TotalRecords,
		DistinctRecords: report.Summary.DistinctRecords,
		Entries:         len(report.Entries),
		Timestamp:       report.Timestamp.UTC().Format(time.RFC3339),
	}
	summaryFile, err := os.Create(filepath.Join(runDir, "summary.json"))
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}

	log.Printf("Wrote %d entries to %s", len(report.Entries), runDir)
	return nil
}

func (w *GobWriter) Close() error { return nil }
