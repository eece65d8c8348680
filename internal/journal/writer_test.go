package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Tick   uint64 `json:"tick"`
	Action string `json:"action"`
}

func readRecords(t *testing.T, path string) []record {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	var records []record
	scanner := bufio.NewScanner(dec)
	for scanner.Scan() {
		var r record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		records = append(records, r)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestJournal(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	j.now = func() time.Time { return at }

	require.NoError(t, j.Write(record{Tick: 1, Action: "toppled"}))
	require.NoError(t, j.Write(record{Tick: 2, Action: "bounced"}))
	require.NoError(t, j.Close())

	path := filepath.Join(dir, "collisions-2024-05-01-10.jsonl.zst")
	assert.Equal(t, []record{{1, "toppled"}, {2, "bounced"}}, readRecords(t, path))
}

func TestJournal_Rotation(t *testing.T) {
	dir := t.TempDir()
	j := New(dir)
	first := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	second := first.Add(2 * time.Minute)

	j.now = func() time.Time { return first }
	require.NoError(t, j.Write(record{Tick: 1}))
	j.now = func() time.Time { return second }
	require.NoError(t, j.Write(record{Tick: 2}))
	require.NoError(t, j.Close())

	assert.Equal(t, []record{{Tick: 1}}, readRecords(t, fileName(dir, "2024-05-01-10")))
	assert.Equal(t, []record{{Tick: 2}}, readRecords(t, fileName(dir, "2024-05-01-11")))
}

func TestJournal_CloseWithoutWrites(t *testing.T) {
	j := New(t.TempDir())
	assert.NoError(t, j.Close())
	assert.NoError(t, j.Close())
}

func TestJournal_Unencodable(t *testing.T) {
	j := New(t.TempDir())
	defer j.Close()
	assert.Error(t, j.Write(func() {}))
}
