package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/equisense/pkg/eq/types"
)

func TestLoad_Missing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "none.parquet"))
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)
	_, err = s.RefreshedAt()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSaveLoad_PreservesUnknowns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "all_stock_data.parquet")
	s := NewStore(path)

	ds := types.Dataset{
		{
			Ticker:         "7203.T",
			CompanyName:    types.String("トヨタ自動車"),
			ForwardPE:      types.Float(9.1),
			PriceToBook:    types.Float(1.2),
			DividendYield:  types.Float(0.031),
			CurrentPrice:   types.Float(2850),
			Beta:           types.Float(0.45),
			EarningsGrowth: types.Float(0.12),
		},
		{Ticker: "1301.T", CompanyName: types.String("極洋"), ForwardPE: types.Float(0)},
		{Ticker: "9999.T"},
	}
	before := time.Now().Add(-time.Second)
	require.NoError(t, s.Save(ds))

	snap, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, ds, snap.Dataset)
	assert.True(t, snap.RefreshedAt.After(before))

	// Zero stays zero, not unknown.
	require.NotNil(t, snap.Dataset[1].ForwardPE)
	assert.Equal(t, 0.0, *snap.Dataset[1].ForwardPE)
	assert.Nil(t, snap.Dataset[1].Beta)
}

func TestSave_ReplacesWholesale(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "snap.parquet"))
	require.NoError(t, s.Save(types.Dataset{{Ticker: "A"}, {Ticker: "B"}}))
	require.NoError(t, s.Save(types.Dataset{{Ticker: "C"}}))

	snap, err := s.Load()
	require.NoError(t, err)
	require.Len(t, snap.Dataset, 1)
	assert.Equal(t, "C", snap.Dataset[0].Ticker)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}

func TestSave_Empty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "snap.parquet"))
	require.NoError(t, s.Save(types.Dataset{}))
	snap, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Dataset)
}
