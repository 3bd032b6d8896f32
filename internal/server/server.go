// Package server exposes the planner over HTTP.
package server

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"grid-motion-planner/internal/config"
	"grid-motion-planner/internal/export"
	"grid-motion-planner/internal/geoframe"
	"grid-motion-planner/internal/grid"
	"grid-motion-planner/internal/obstacles"
	"grid-motion-planner/internal/planner"
)

const maxCollidersBody = 16 << 20

// Position is a local north/east position in meters.
type Position struct {
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// PlanRequest is the body of POST /plan. Positions are given either in the
// local frame or as geodetic coordinates converted against home. A missing
// start means home; a missing goal means a random free cell.
type PlanRequest struct {
	Start       *Position        `json:"start,omitempty"`
	StartGlobal *geoframe.Global `json:"startGlobal,omitempty"`
	Goal        *Position        `json:"goal,omitempty"`
	GoalGlobal  *geoframe.Global `json:"goalGlobal,omitempty"`
	Altitude    *float64         `json:"altitude,omitempty"`
	Safety      *float64         `json:"safety,omitempty"`
	Seed        *int64           `json:"seed,omitempty"`
}

// PlanResponse wraps a plan result. Success is false when no path exists.
type PlanResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Seed    int64  `json:"seed"`
	*planner.Result
}

// Server serves plans over one obstacle table. The table can be replaced
// while serving.
type Server struct {
	cfg    config.Config
	logger *zap.SugaredLogger

	mu    sync.RWMutex
	table *obstacles.Table
	index *obstacles.Index

	now func() time.Time
}

// New returns a server planning over table.
func New(table *obstacles.Table, cfg config.Config, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		table:  table,
		index:  obstacles.NewIndex(table.Obstacles),
		now:    time.Now,
	}
}

// Handler returns the routes wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/plan", s.planHandler)
	mux.HandleFunc("/obstacles", s.obstaclesHandler)
	mux.HandleFunc("/colliders", s.collidersHandler)
	mux.HandleFunc("/health", s.healthHandler)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.loggingMiddleware(mux))
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{w, http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Infow("request",
			"method", r.Method,
			"uri", r.RequestURI,
			"status", sw.status,
			"duration", time.Since(start))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnw("failed to write response", "error", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func (s *Server) snapshot() (*obstacles.Table, *obstacles.Index) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, s.index
}

func (s *Server) home(table *obstacles.Table) geoframe.Global {
	return geoframe.Global{Lon: table.Lon0, Lat: table.Lat0}
}

// POST /plan
func (s *Server) planHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	table, index := s.snapshot()
	home := s.home(table)

	preq := planner.Request{
		Obstacles:       index,
		Altitude:        s.cfg.Planner.TargetAltitude,
		Safety:          s.cfg.Planner.SafetyDistance,
		MaxGoalAttempts: s.cfg.Planner.MaxGoalAttempts,
		Logger:          s.logger,
	}
	if req.Altitude != nil {
		preq.Altitude = *req.Altitude
	}
	if req.Safety != nil {
		preq.Safety = *req.Safety
	}
	switch {
	case req.Start != nil:
		preq.Start = planner.Position{North: req.Start.North, East: req.Start.East}
	case req.StartGlobal != nil:
		l := geoframe.GlobalToLocal(*req.StartGlobal, home)
		preq.Start = planner.Position{North: l.North, East: l.East}
	}
	switch {
	case req.Goal != nil:
		preq.Goal = &planner.Position{North: req.Goal.North, East: req.Goal.East}
	case req.GoalGlobal != nil:
		l := geoframe.GlobalToLocal(*req.GoalGlobal, home)
		preq.Goal = &planner.Position{North: l.North, East: l.East}
	}

	seed := s.now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	preq.Rand = rand.New(rand.NewSource(seed))

	res, err := planner.Plan(r.Context(), preq)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, planner.ErrNoFreeCell) || errors.Is(err, grid.ErrInvalidParameters) {
			status = http.StatusUnprocessableEntity
		}
		s.writeJSONError(w, status, err.Error())
		return
	}

	resp := PlanResponse{Success: res.Found(), Seed: seed, Result: res}
	if !resp.Success {
		resp.Message = res.Diagnostics.NoPath
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GET /obstacles?altitude=5&safety=5&frame=global
func (s *Server) obstaclesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	altitude, safety := s.cfg.Planner.TargetAltitude, s.cfg.Planner.SafetyDistance
	var err error
	q := r.URL.Query()
	if v := q.Get("altitude"); v != "" {
		if altitude, err = strconv.ParseFloat(v, 64); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'altitude' parameter")
			return
		}
	}
	if v := q.Get("safety"); v != "" {
		if safety, err = strconv.ParseFloat(v, 64); err != nil || safety < 0 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'safety' parameter")
			return
		}
	}

	table, index := s.snapshot()
	var proj export.Projection = export.Local
	switch q.Get("frame") {
	case "", "local":
	case "global":
		proj = export.Geodetic(s.home(table))
	default:
		s.writeJSONError(w, http.StatusBadRequest, "Invalid 'frame' parameter")
		return
	}

	fc := export.Obstacles(index.InBand(altitude-safety, altitude+safety), safety, proj)
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		s.logger.Warnw("failed to write response", "error", err)
	}
}

// PUT /colliders replaces the obstacle table with the CSV body.
func (s *Server) collidersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	table, err := obstacles.Read(http.MaxBytesReader(w, r.Body, maxCollidersBody))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	index := obstacles.NewIndex(table.Obstacles)

	s.mu.Lock()
	s.table, s.index = table, index
	s.mu.Unlock()

	s.logger.Infow("obstacle table replaced", "obstacles", index.Len(), "lat0", table.Lat0, "lon0", table.Lon0)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"obstacles": index.Len(),
	})
}

// GET /health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	table, index := s.snapshot()
	minN, maxN, minE, maxE := index.Extent()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"obstacles": index.Len(),
		"home":      s.home(table),
		"extent": map[string]float64{
			"minNorth": minN,
			"maxNorth": maxN,
			"minEast":  minE,
			"maxEast":  maxE,
		},
	})
}
