package records

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"Go2LineCount/internal/model"
)

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var out []string
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, string(rec))
	}
}

func TestReader_Next(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty stream", "", nil},
		{"crlf normalization", "a\r\nb\n", []string{"a", "b"}},
		{"missing final terminator", "x\ny", []string{"x", "y"}},
		{"empty records", "\n\n", []string{"", ""}},
		{"lone cr is data", "a\rb\n", []string{"a\rb"}},
		{"trailing cr without newline kept", "a\r", []string{"a\r"}},
		{"only crlf", "\r\n", []string{""}},
		{"binary bytes", "\xff\xfe\n\x00\n", []string{"\xff\xfe", "\x00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			got := readAll(t, r)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if r.Count() != uint64(len(tt.want)) {
				t.Errorf("Expected count %d, got %d", len(tt.want), r.Count())
			}
		})
	}
}

func TestReader_LongLines(t *testing.T) {
	long := strings.Repeat("z", 3*defaultBufferSize+17)
	input := long + "\r\nshort\n" + long

	got := readAll(t, NewReader(strings.NewReader(input)))
	want := []string{long, "short", long}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Long line mismatch: got %d records", len(got))
	}
}

func TestReader_SmallReads(t *testing.T) {
	got := readAll(t, NewReader(iotest.OneByteReader(strings.NewReader("ab\r\ncd\n"))))
	if !reflect.DeepEqual(got, []string{"ab", "cd"}) {
		t.Errorf("Unexpected records: %q", got)
	}
}

func TestReader_ReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	r := NewReader(io.MultiReader(strings.NewReader("ok\npart"), iotest.ErrReader(boom)))

	rec, err := r.Next()
	if err != nil || string(rec) != "ok" {
		t.Fatalf("Expected first record 'ok', got %q, %v", rec, err)
	}

	_, err = r.Next()
	var rerr *model.InputReadError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected InputReadError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected sequence to end after error, got %v", err)
	}
}
