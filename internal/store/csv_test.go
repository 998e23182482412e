package store

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jgoulah/loadwatch/pkg/models"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	st := newTestStore(t)
	series, err := st.Load("de")
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(series) != 0 {
		t.Fatalf("expected empty series, got %d observations", len(series))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := newTestStore(t)
	in := testSeries(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 48.25, 49.5, 50.125)

	if err := st.Save("de", in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := st.Load("de")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d observations, got %d", len(in), len(out))
	}
	for i := range in {
		if !out[i].Time.Equal(in[i].Time) {
			t.Fatalf("row %d: time %s != %s", i, out[i].Time, in[i].Time)
		}
		if out[i].GW != in[i].GW {
			t.Fatalf("row %d: value %v != %v", i, out[i].GW, in[i].GW)
		}
	}
}

func TestSaveWritesContractHeader(t *testing.T) {
	st := newTestStore(t)
	if err := st.Save("de", testSeries(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 42)); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(st.Path("de"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "Zeitstempel,Last_GW" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	st := newTestStore(t)
	first := testSeries(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 40, 41)
	second := testSeries(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 45)

	if err := st.Save("de", first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := st.Save("de", second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	out, err := st.Load("de")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0].GW != 45 {
		t.Fatalf("expected the second series only, got %+v", out)
	}

	// No temp files may linger after a completed save
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}

func TestLoadCorruptFile(t *testing.T) {
	st := newTestStore(t)
	if err := os.WriteFile(st.Path("de"), []byte("Zeitstempel,Last_GW\nnot-a-time,abc\n"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	_, err := st.Load("de")
	var corrupt *CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptError, got %v", err)
	}
}

func TestLoadWrongHeaderIsCorrupt(t *testing.T) {
	st := newTestStore(t)
	if err := os.WriteFile(st.Path("de"), []byte("time,value\n2024-01-01T00:00:00Z,42\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := st.Load("de")
	var corrupt *CorruptError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptError for wrong header, got %v", err)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(t.TempDir(), time.UTC)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return st
}

func testSeries(start time.Time, values ...float64) models.Series {
	var s models.Series
	for i, v := range values {
		s = append(s, models.Observation{Time: start.Add(time.Duration(i) * time.Hour), GW: v})
	}
	return s
}
