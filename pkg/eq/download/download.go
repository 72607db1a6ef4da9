// Package download fetches the exchange master list to disk.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/komsit37/equisense/pkg/eq/source"
)

// DefaultTimeout bounds the whole transfer.
const DefaultTimeout = 60 * time.Second

// Result describes a finished download.
type Result struct {
	Path  string
	Bytes int64
	// Kind is the detected workbook container (source.KindXLSX,
	// source.KindXLS) or "" for anything else.
	Kind string
}

type Downloader struct {
	client *http.Client
	log    zerolog.Logger
}

func New(client *http.Client, log zerolog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Downloader{client: client, log: log.With().Str("component", "download").Logger()}
}

// Fetch streams url into dest. The body goes to a temp file in the same
// directory that is renamed over dest only after a complete 2xx transfer;
// on any failure dest is untouched.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	d.log.Info().Str("url", url).Str("dest", dest).Msg("Downloading")

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("download %s: HTTP %s", url, resp.Status)
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*.part")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("download %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, err
	}
	kind, err := source.SniffFile(tmp.Name())
	if err != nil {
		return Result{}, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return Result{}, err
	}

	d.log.Info().Int64("bytes", n).Str("kind", kind).Msg("Download complete")
	return Result{Path: dest, Bytes: n, Kind: kind}, nil
}
