package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jgoulah/loadwatch/pkg/models"
)

// Column layout of the persisted per-entity file. This is an external
// contract: other tooling reads these files.
var header = []string{"Zeitstempel", "Last_GW"}

// CorruptError reports an unreadable or unparseable series file. The
// caller is expected to treat the store as empty and resync.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt series file %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Store persists one CSV series file per entity in a data directory
type Store struct {
	dir string
	loc *time.Location
}

// New creates the store, ensuring the data directory exists. Loaded
// timestamps are returned in loc.
func New(dir string, loc *time.Location) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{dir: dir, loc: loc}, nil
}

// Path returns the series file path for an entity
func (s *Store) Path(code string) string {
	return filepath.Join(s.dir, fmt.Sprintf("last_%s.csv", code))
}

// Load reads an entity's series, returning an empty series when no
// file exists. Parse failures come back as *CorruptError.
func (s *Store) Load(code string) (models.Series, error) {
	path := s.Path(code)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &CorruptError{Path: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if len(records) == 0 {
		return nil, &CorruptError{Path: path, Err: fmt.Errorf("missing header row")}
	}
	if len(records[0]) != 2 || records[0][0] != header[0] || records[0][1] != header[1] {
		return nil, &CorruptError{Path: path, Err: fmt.Errorf("unexpected header %v", records[0])}
	}

	series := make(models.Series, 0, len(records)-1)
	for i, rec := range records[1:] {
		t, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, &CorruptError{Path: path, Err: fmt.Errorf("row %d: %w", i+2, err)}
		}
		gw, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, &CorruptError{Path: path, Err: fmt.Errorf("row %d: %w", i+2, err)}
		}
		series = append(series, models.Observation{Time: t.In(s.loc), GW: gw})
	}

	return series, nil
}

// Save rewrites an entity's full series file. The write goes to a temp
// file in the same directory followed by an atomic rename, so a failed
// write never corrupts previously persisted data.
func (s *Store) Save(code string, series models.Series) error {
	path := s.Path(code)

	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf(".last_%s_*.csv", code))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for _, obs := range series {
		rec := []string{
			obs.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(obs.GW, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing rows: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing series file: %w", err)
	}
	return nil
}

// ModTime returns the series file's last modification time, or zero
// when no file exists
func (s *Store) ModTime(code string) time.Time {
	info, err := os.Stat(s.Path(code))
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
