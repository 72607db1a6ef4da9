// Package snapshot persists the fetched dataset as a single Parquet file.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/komsit37/equisense/pkg/eq/types"
)

// ErrNoSnapshot is returned when no snapshot has been written yet.
var ErrNoSnapshot = errors.New("no snapshot")

// row is the on-disk layout: exactly the canonical record fields. Pointer
// fields become optional columns, so unknown values are stored as nulls.
type row struct {
	Ticker         string   `parquet:"ticker"`
	CompanyName    *string  `parquet:"companyName"`
	ForwardPE      *float64 `parquet:"forwardPE"`
	PriceToBook    *float64 `parquet:"priceToBook"`
	DividendYield  *float64 `parquet:"dividendYield"`
	CurrentPrice   *float64 `parquet:"currentPrice"`
	Beta           *float64 `parquet:"beta"`
	EarningsGrowth *float64 `parquet:"earningsGrowth"`
}

func toRow(r types.Record) row {
	return row{
		Ticker:         r.Ticker,
		CompanyName:    r.CompanyName,
		ForwardPE:      r.ForwardPE,
		PriceToBook:    r.PriceToBook,
		DividendYield:  r.DividendYield,
		CurrentPrice:   r.CurrentPrice,
		Beta:           r.Beta,
		EarningsGrowth: r.EarningsGrowth,
	}
}

func (r row) record() types.Record {
	return types.Record{
		Ticker:         r.Ticker,
		CompanyName:    r.CompanyName,
		ForwardPE:      r.ForwardPE,
		PriceToBook:    r.PriceToBook,
		DividendYield:  r.DividendYield,
		CurrentPrice:   r.CurrentPrice,
		Beta:           r.Beta,
		EarningsGrowth: r.EarningsGrowth,
	}
}

// Store reads and replaces the snapshot file at a fixed path.
type Store struct {
	path string
}

func NewStore(path string) *Store { return &Store{path: path} }

func (s *Store) Path() string { return s.path }

// Save replaces the snapshot with ds. The file is written next to the
// target and renamed over it, so readers never see a partial file.
func (s *Store) Save(ds types.Dataset) error {
	rows := make([]row, len(ds))
	for i, r := range ds {
		rows[i] = toRow(r)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := parquet.Write(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot. It returns ErrNoSnapshot when the file is absent.
func (s *Store) Load() (types.Snapshot, error) {
	at, err := s.RefreshedAt()
	if err != nil {
		return types.Snapshot{}, err
	}
	rows, err := parquet.ReadFile[row](s.path)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	ds := make(types.Dataset, len(rows))
	for i, r := range rows {
		ds[i] = r.record()
	}
	return types.Snapshot{Dataset: ds, RefreshedAt: at}, nil
}

// RefreshedAt returns the last-write time of the snapshot file.
func (s *Store) RefreshedAt() (time.Time, error) {
	fi, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, fmt.Errorf("%w at %s", ErrNoSnapshot, s.path)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("stat snapshot: %w", err)
	}
	return fi.ModTime(), nil
}
