package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriteRowSurfacesWriterError(t *testing.T) {
	wantErr := errors.New("disk full")
	w := csv.NewWriter(failingWriter{err: wantErr})

	if err := writeRow(w, []string{"eval", "fitness"}); !errors.Is(err, wantErr) {
		t.Errorf("writeRow err = %v, want underlying writer error", err)
	}
}

func TestWriteRowFlushesRecord(t *testing.T) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := writeRow(w, []string{"1", "0.5"}); err != nil {
		t.Fatalf("writeRow: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "1,0.5" {
		t.Errorf("flushed record = %q, want \"1,0.5\"", got)
	}
}
