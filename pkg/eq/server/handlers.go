package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/refresh"
	"github.com/komsit37/equisense/pkg/eq/render"
	"github.com/komsit37/equisense/pkg/eq/screen"
	"github.com/komsit37/equisense/pkg/eq/snapshot"
	"github.com/komsit37/equisense/pkg/eq/strategy"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cfg.Catalog.List())
}

type snapshotResponse struct {
	RefreshedAt time.Time `json:"refreshed_at"`
	Rows        int       `json:"rows"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cfg.Snapshots.Load()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshotResponse{RefreshedAt: snap.RefreshedAt, Rows: len(snap.Dataset)})
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	res, err := s.screen(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc, err := render.NewResult(res, render.Options{Labels: s.cfg.Labels})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleScreenCSV(w http.ResponseWriter, r *http.Request) {
	res, err := s.screen(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := render.ExportFilename(res.Strategy.ID, time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := render.NewCSVRenderer().Render(w, res, render.Options{Labels: s.cfg.Labels}); err != nil {
		s.log.Error().Err(err).Msg("Failed to write CSV")
	}
}

// screen runs the strategy named in the path against the snapshot, with
// thresholds and the price range taken from the query string.
func (s *Server) screen(r *http.Request) (screen.Result, error) {
	st, err := s.cfg.Catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		return screen.Result{}, err
	}
	req, err := s.parseRequest(r)
	if err != nil {
		return screen.Result{}, err
	}
	req.Strategy = st

	snap, err := s.cfg.Snapshots.Load()
	if err != nil {
		return screen.Result{}, err
	}
	return screen.Run(snap.Dataset, req)
}

type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func (s *Server) parseRequest(r *http.Request) (screen.Request, error) {
	req := screen.Request{Thresholds: map[string]float64{}}
	var price *screen.PriceRange
	for key, vals := range r.URL.Query() {
		if len(vals) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(vals[len(vals)-1]), 64)
		if err != nil {
			return req, badRequest{fmt.Errorf("%s: not a number: %q", key, vals[len(vals)-1])}
		}
		switch key {
		case "min_price", "max_price":
			if price == nil {
				p := s.cfg.Price
				price = &p
			}
			if key == "min_price" {
				price.Min = v
			} else {
				price.Max = v
			}
		default:
			req.Thresholds[key] = v
		}
	}
	req.Price = price
	return req, nil
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Refresher == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "refresh not configured"})
		return
	}
	select {
	case s.bg <- struct{}{}:
	default:
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "refresh already running"})
		return
	}
	if s.cfg.Refresher.Running() {
		<-s.bg
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "refresh already running"})
		return
	}
	go func() {
		defer func() { <-s.bg }()
		if _, err := s.cfg.Refresher.Run(s.ctx); err != nil {
			s.log.Warn().Err(err).Msg("Background refresh ended with error")
		}
	}()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type refreshStatus struct {
	Running bool            `json:"running"`
	Last    *refresh.Report `json:"last,omitempty"`
}

func (s *Server) handleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Refresher == nil {
		s.writeJSON(w, http.StatusOK, refreshStatus{})
		return
	}
	st := refreshStatus{Running: s.cfg.Refresher.Running()}
	if last, ok := s.cfg.Refresher.Last(); ok {
		st.Last = &last
	}
	s.writeJSON(w, http.StatusOK, st)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var br badRequest
	var unknownCol *columns.UnknownColumnError
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshot), errors.Is(err, strategy.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &br), errors.As(err, &unknownCol),
		errors.Is(err, screen.ErrUnknownField), errors.Is(err, screen.ErrUnusedThreshold),
		errors.Is(err, screen.ErrBadThreshold), errors.Is(err, screen.ErrBadPriceRange):
		status = http.StatusBadRequest
	default:
		s.log.Error().Err(err).Msg("Request failed")
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
