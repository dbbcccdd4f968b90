package exact

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"syscall"
	"unicode/utf8"

	"Go2LineCount/internal/model"
)

// EmitResult describes what an emission wrote.
type EmitResult struct {
	Lines int
	// Stopped is set when the consumer went away before every line was written.
	Stopped bool
}

// TextWriter emits ranked entries as "record\tcount\n" lines.
type TextWriter struct {
	bw   *bufio.Writer
	line []byte
}

// NewTextWriter creates a buffered text writer over out.
func NewTextWriter(out io.Writer) *TextWriter {
	return &TextWriter{bw: bufio.NewWriter(out), line: make([]byte, 0, 128)}
}

// Emit writes at most limit entries (all when limit is 0) in the given order.
//
// Emission stops early, without error, once ctx is canceled or the sink reports
// a broken pipe. A record that is not valid UTF-8 ends emission with a
// *model.TextDecodingError after the preceding lines have been flushed.
// Other write failures are returned as *model.OutputWriteError.
func (w *TextWriter) Emit(ctx context.Context, entries []model.Entry, limit int) (EmitResult, error) {
	var res EmitResult

	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			res.Stopped = true
			return res, w.flush(&res)
		}

		e := entries[i]
		if !utf8.ValidString(e.Key) {
			if err := w.flush(&res); err != nil || res.Stopped {
				return res, err
			}
			return res, &model.TextDecodingError{Index: i, Record: e.Key}
		}

		w.line = append(w.line[:0], e.Key...)
		w.line = append(w.line, '\t')
		w.line = strconv.AppendUint(w.line, e.Count, 10)
		w.line = append(w.line, '\n')
		if _, err := w.bw.Write(w.line); err != nil {
			return res, w.fail(err, &res)
		}
		res.Lines++
	}

	return res, w.flush(&res)
}

func (w *TextWriter) flush(res *EmitResult) error {
	if err := w.bw.Flush(); err != nil {
		return w.fail(err, res)
	}
	return nil
}

// fail turns a broken pipe into a graceful stop and anything else into an error.
func (w *TextWriter) fail(err error, res *EmitResult) error {
	if isBrokenPipe(err) {
		res.Stopped = true
		return nil
	}
	return &model.OutputWriteError{Err: err}
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
