// Package snaplog appends history records to hourly zstd-compressed JSONL
// files.
package snaplog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/craigm26/BARTDepartureBoard/internal/persistence"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	// Now picks the hour bucket; tests replace it.
	Now func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		Now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.PathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

func (w *JSONLZstdWriter) PathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// Entry is one journal line. Exactly one of Poll and Stop is set.
type Entry struct {
	Type string                  `json:"type"`
	Poll *persistence.PollRecord `json:"poll,omitempty"`
	Stop *persistence.StopRecord `json:"stop,omitempty"`
}

// Journal records polls and published stops under <dataDir>/journal.
type Journal struct {
	w *JSONLZstdWriter

	// OnError is called when a write fails. Nil ignores failures.
	OnError func(error)
}

func NewJournal(dataDir string) *Journal {
	return &Journal{w: NewJSONLZstdWriter(filepath.Join(dataDir, "journal"), "board")}
}

func (j *Journal) Writer() *JSONLZstdWriter { return j.w }

func (j *Journal) RecordPoll(r persistence.PollRecord) {
	j.write(Entry{Type: "poll", Poll: &r})
}

func (j *Journal) RecordStop(r persistence.StopRecord) {
	j.write(Entry{Type: "stop", Stop: &r})
}

func (j *Journal) write(e Entry) {
	if err := j.w.Write(e); err != nil && j.OnError != nil {
		j.OnError(err)
	}
}

func (j *Journal) Close() error { return j.w.Close() }
