package model

import (
	"fmt"
	"strconv"
)

// InputOpenError reports a named input that could not be opened.
type InputOpenError struct {
	Path string
	Err  error
}

func (e *InputOpenError) Error() string {
	return fmt.Sprintf("failed to open input '%s': %v", e.Path, e.Err)
}

func (e *InputOpenError) Unwrap() error { return e.Err }

// InputReadError reports an I/O failure in the middle of the input stream.
type InputReadError struct {
	Err error
}

func (e *InputReadError) Error() string {
	return fmt.Sprintf("failed to read input: %v", e.Err)
}

func (e *InputReadError) Unwrap() error { return e.Err }

// OutputWriteError reports a failed write to the output stream.
// A closed pipe is never reported this way.
type OutputWriteError struct {
	Err error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("failed to write output: %v", e.Err)
}

func (e *OutputWriteError) Unwrap() error { return e.Err }

// TextDecodingError reports a counted record that is not valid UTF-8 at emission time.
// Index is the zero-based position of the entry in the ranked output.
type TextDecodingError struct {
	Index  int
	Record string
}

func (e *TextDecodingError) Error() string {
	return fmt.Sprintf("record %d is not valid UTF-8: %s", e.Index, strconv.QuoteToASCII(e.Record))
}

// SinkError reports a report writer failure.
type SinkError struct {
	Writer string
	Err    error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("writer '%s' failed: %v", e.Writer, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
