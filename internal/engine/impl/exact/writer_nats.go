package exact

import (
	"context"
	"fmt"
	"log"
	"time"

	"Go2LineCount/internal/config"
	"Go2LineCount/internal/model"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const natsFlushTimeout = 5 * time.Second

// NATSWriter publishes every ranked entry as a protobuf-encoded message.
type NATSWriter struct {
	nc      *nats.Conn
	subject string
}

// NewNATSWriter connects to the configured NATS server.
func NewNATSWriter(cfg config.NATSConfig) (model.Writer, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("nats writer requires a subject")
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", url)
	return &NATSWriter{nc: nc, subject: cfg.Subject}, nil
}

func (w *NATSWriter) Name() string { return "nats" }

// Write publishes one message per entry, in rank order, then flushes.
func (w *NATSWriter) Write(ctx context.Context, report model.Report) error {
	for i, e := range report.Entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := EncodeEntry(report, i, e)
		if err != nil {
			return err
		}
		if err := w.nc.Publish(w.subject, data); err != nil {
			return fmt.Errorf("failed to publish entry %d: %w", i, err)
		}
	}
	if err := w.nc.FlushTimeout(natsFlushTimeout); err != nil {
		return fmt.Errorf("failed to flush nats connection: %w", err)
	}
	log.Printf("Published %d entries to '%s'", len(report.Entries), w.subject)
	return nil
}

// EncodeEntry serializes one ranked entry as a google.protobuf.Struct.
// Counts above 2^53 lose precision in the numeric "count" field.
func EncodeEntry(report model.Report, index int, e model.Entry) ([]byte, error) {
	msg, err := structpb.NewStruct(map[string]any{
		"report_id": report.ID.String(),
		"run":       report.RunName,
		"sort_by":   report.SortBy.String(),
		"rank":      index + 1,
		"record":    e.Key,
		"count":     e.Count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build message for entry %d: %w", index, err)
	}
	return proto.Marshal(msg)
}

// Close drains and closes the NATS connection.
func (w *NATSWriter) Close() error {
	if w.nc == nil {
		return nil
	}
	err := w.nc.Drain()
	log.Println("NATS connection drained and closed.")
	return err
}
