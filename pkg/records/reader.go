package records

import (
	"bufio"
	"errors"
	"io"

	"Go2LineCount/internal/model"
)

const defaultBufferSize = 64 * 1024

// Reader splits a byte stream into records on '\n' boundaries.
// A "\r\n" pair is stripped as a single terminator; a final record without
// a terminator is still returned. Records are raw bytes with no encoding assumed.
type Reader struct {
	br    *bufio.Reader
	line  []byte
	count uint64
	done  bool
}

// NewReader creates a new record reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, defaultBufferSize)}
}

// Next returns the next record, or io.EOF once the stream is exhausted.
// The returned slice is only valid until the next call to Next.
// Any other error is a *model.InputReadError and ends the sequence.
func (r *Reader) Next() ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}
	r.line = r.line[:0]
	for {
		chunk, err := r.br.ReadSlice('\n')
		switch {
		case err == nil:
			line := chunk
			if len(r.line) > 0 {
				r.line = append(r.line, chunk...)
				line = r.line
			}
			r.count++
			return trimTerminator(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
			// Long line, keep accumulating.
			r.line = append(r.line, chunk...)
		case errors.Is(err, io.EOF):
			r.done = true
			r.line = append(r.line, chunk...)
			if len(r.line) == 0 {
				return nil, io.EOF
			}
			r.count++
			return r.line, nil
		default:
			r.done = true
			r.line = r.line[:0]
			return nil, &model.InputReadError{Err: err}
		}
	}
}

// Count returns the number of records produced so far.
func (r *Reader) Count() uint64 {
	return r.count
}

// trimTerminator strips a trailing "\n" or "\r\n".
func trimTerminator(line []byte) []byte {
	n := len(line)
	if n == 0 || line[n-1] != '\n' {
		return line
	}
	if n > 1 && line[n-2] == '\r' {
		return line[:n-2]
	}
	return line[:n-1]
}
