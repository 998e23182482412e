package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jgoulah/loadwatch/internal/config"
	"github.com/jgoulah/loadwatch/internal/series"
	"github.com/jgoulah/loadwatch/internal/store"
	"github.com/jgoulah/loadwatch/internal/syncer"
	"github.com/jgoulah/loadwatch/pkg/models"
)

// Server hands processed trace sets to an external chart frontend.
// An entity is re-synced lazily, at most once per cache TTL, so a page
// load never triggers more than one full sync-and-render pass.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	engine *syncer.Engine
	agg    *series.Aggregator
	loc    *time.Location
	log    *slog.Logger

	mu       sync.Mutex
	lastSync map[string]time.Time
}

// New creates the trace server
func New(cfg *config.Config, st *store.Store, engine *syncer.Engine, agg *series.Aggregator, loc *time.Location) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		engine:   engine,
		agg:      agg,
		loc:      loc,
		log:      slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		lastSync: map[string]time.Time{},
	}
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/entities", s.handleEntities).Methods("GET")
	r.HandleFunc("/api/series/{code}/daily", s.handleDaily).Methods("GET")
	r.HandleFunc("/api/series/{code}/pivot", s.handlePivot).Methods("GET")
	r.HandleFunc("/api/series/{code}/yoy", s.handleYoY).Methods("GET")
	r.HandleFunc("/api/aggregate", s.handleAggregate).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}

// ListenAndServe runs the server until the listener fails
func (s *Server) ListenAndServe() error {
	logged := handlers.LoggingHandler(os.Stdout, s.Router())
	s.log.Info("trace server listening", "addr", s.cfg.GetListen())
	return http.ListenAndServe(s.cfg.GetListen(), logged)
}

// seriesFor returns an entity's series, running a sync pass first when
// the cached copy is older than the configured TTL
func (s *Server) seriesFor(ctx context.Context, code string) models.Series {
	s.mu.Lock()
	last, ok := s.lastSync[code]
	if !ok {
		// A freshly written file from a CLI sync counts as fresh too
		last = s.store.ModTime(code)
	}
	stale := time.Since(last) >= s.cfg.GetCacheTTL()
	if stale {
		// Mark before syncing so a burst of requests does not pile up
		// concurrent syncs for the same entity
		s.lastSync[code] = time.Now()
	}
	s.mu.Unlock()

	if !stale {
		loaded, err := s.store.Load(code)
		if err == nil {
			return loaded
		}
		s.log.Warn("stored series unreadable, resyncing", "entity", code, "err", err)
	}

	start := time.Now()
	merged, report := s.engine.Sync(ctx, code)
	syncsTotal.WithLabelValues(code).Inc()
	syncDuration.Observe(time.Since(start).Seconds())
	seriesObservations.WithLabelValues(code).Set(float64(report.Total))
	for _, y := range report.Years {
		if y.Err != nil {
			syncYearFailures.WithLabelValues(code).Inc()
			s.log.Warn("year fetch failed", "entity", code, "year", y.Year, "err", y.Err)
		}
	}
	if report.SaveErr != nil {
		s.log.Error("persisting merged series failed", "entity", code, "err", report.SaveErr)
	}
	s.log.Info("sync pass finished",
		"entity", code, "report", report.ID, "added", report.Added,
		"total", report.Total, "skipped", report.Skipped)
	return merged
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEntities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.GetEntities())
}

// lookupEntity validates the {code} path variable against the registry
func (s *Server) lookupEntity(w http.ResponseWriter, r *http.Request) (models.Entity, bool) {
	code := mux.Vars(r)["code"]
	ent, ok := s.cfg.Entity(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "unknown entity code: " + code,
		})
		return models.Entity{}, false
	}
	return ent, true
}

// emptyState is the explicit no-data answer: an empty chart with an
// explanation, never an error page
type emptyState struct {
	Empty   bool   `json:"empty"`
	Message string `json:"message"`
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	ent, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}
	data := s.seriesFor(r.Context(), ent.Code)
	if len(data) == 0 {
		writeJSON(w, http.StatusOK, emptyState{Empty: true, Message: "no load data available for " + ent.Name})
		return
	}

	processed := series.Process(data, s.loc)
	type point struct {
		Date    string   `json:"date"`
		Mean    float64  `json:"mean_gw"`
		Rolling *float64 `json:"rolling_7d_gw"`
	}
	out := make([]point, 0, len(processed.Daily))
	for _, d := range processed.Daily {
		out = append(out, point{Date: d.Date.Format("2006-01-02"), Mean: d.Mean, Rolling: d.Rolling})
	}
	writeJSON(w, http.StatusOK, out)
}

// trace is one year's line in the seasonal comparison figure: x is the
// day of year, y the 7-day rolling mean (null where missing)
type trace struct {
	Name      string     `json:"name"`
	Year      int        `json:"year"`
	X         []int      `json:"x"`
	Y         []*float64 `json:"y"`
	Highlight bool       `json:"highlight"`
	Current   bool       `json:"current"`
}

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	ent, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}
	data := s.seriesFor(r.Context(), ent.Code)
	if len(data) == 0 {
		writeJSON(w, http.StatusOK, emptyState{Empty: true, Message: "no load data available for " + ent.Name})
		return
	}

	processed := series.Process(data, s.loc)
	writeJSON(w, http.StatusOK, buildTraces(processed.Pivot))
}

// buildTraces turns the pivot into one trace per year. The most recent
// four years are highlighted, the newest marked current, mirroring the
// dashboard's styling split between foreground and background years.
func buildTraces(p *series.Pivot) []trace {
	traces := make([]trace, 0, len(p.Years))
	for _, year := range p.Years {
		t := trace{Name: strconv.Itoa(year), Year: year}
		for doy := 1; doy <= 366; doy++ {
			t.X = append(t.X, doy)
			if v, ok := p.Value(doy, year); ok {
				vv := v
				t.Y = append(t.Y, &vv)
			} else {
				t.Y = append(t.Y, nil)
			}
		}
		if n := len(p.Years); n > 0 {
			idx := indexOf(p.Years, year)
			t.Highlight = idx >= n-4
			t.Current = idx == n-1
		}
		traces = append(traces, t)
	}
	return traces
}

func (s *Server) handleYoY(w http.ResponseWriter, r *http.Request) {
	ent, ok := s.lookupEntity(w, r)
	if !ok {
		return
	}
	data := s.seriesFor(r.Context(), ent.Code)
	if len(data) == 0 {
		writeJSON(w, http.StatusOK, emptyState{Empty: true, Message: "no load data available for " + ent.Name})
		return
	}

	processed := series.Process(data, s.loc)
	type point struct {
		Date    string  `json:"date"`
		Percent float64 `json:"percent"`
	}
	out := make([]point, 0, len(processed.YoY))
	for _, y := range processed.YoY {
		out = append(out, point{Date: y.Date.Format("2006-01-02"), Percent: y.Percent})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	// Aggregation reads only already-synced local files; syncing every
	// member here would multiply page latency by the number of countries
	sum, err := s.agg.Aggregate(s.cfg.AggregateMembers(), nil)
	if err != nil {
		s.log.Error("aggregate failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "aggregation failed"})
		return
	}
	if len(sum) == 0 {
		writeJSON(w, http.StatusOK, emptyState{Empty: true, Message: "no synced data to aggregate; run loadwatch sync all"})
		return
	}

	type point struct {
		Time time.Time `json:"time"`
		GW   float64   `json:"gw"`
	}
	out := make([]point, 0, len(sum))
	for _, obs := range sum {
		out = append(out, point{Time: obs.Time, GW: obs.GW})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func indexOf(years []int, year int) int {
	for i, y := range years {
		if y == year {
			return i
		}
	}
	return -1
}
