// Package journal records handled collisions as zstd-compressed JSON lines,
// one file per UTC hour.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const hourLayout = "2006-01-02-15"

// Journal writes to <dir>/collisions-<hour>.jsonl.zst and flushes a zstd
// block per record.
type Journal struct {
	dir string
	now func() time.Time

	mu    sync.Mutex
	hour  string
	f     *os.File
	zw    *zstd.Encoder
	lines *json.Encoder
}

func New(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

// Write appends v as one line
func (j *Journal) Write(v any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if hour := j.now().UTC().Format(hourLayout); hour != j.hour {
		if err := j.open(hour); err != nil {
			return fmt.Errorf("opening journal for %s: %w", hour, err)
		}
	}
	if err := j.lines.Encode(v); err != nil {
		return fmt.Errorf("encoding journal record: %w", err)
	}
	return j.zw.Flush()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.close()
}

func (j *Journal) open(hour string) error {
	if err := j.close(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(fileName(j.dir, hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f, j.zw, j.hour = f, zw, hour
	j.lines = json.NewEncoder(zw)
	return nil
}

func (j *Journal) close() error {
	if j.f == nil {
		return nil
	}
	err := j.zw.Close()
	if cerr := j.f.Close(); err == nil {
		err = cerr
	}
	j.f, j.zw, j.lines, j.hour = nil, nil, nil, ""
	return err
}

func fileName(dir, hour string) string {
	return filepath.Join(dir, "collisions-"+hour+".jsonl.zst")
}
