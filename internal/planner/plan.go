// Package planner turns an obstacle table and a start/goal pair into a list
// of position and heading waypoints: grid search, collinearity pruning and
// waypoint synthesis.
package planner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"grid-motion-planner/internal/grid"
	"grid-motion-planner/internal/obstacles"
)

// ErrInvalidRequest is returned for a request that cannot be planned at all.
var ErrInvalidRequest = errors.New("invalid planning request")

// Obstacles is the obstacle source a plan is built from. *obstacles.Index
// implements it.
type Obstacles interface {
	grid.Source
	Covering(north, east, lo, hi, margin float64) []obstacles.Obstacle
}

// Request holds every input of a planning run.
type Request struct {
	Obstacles Obstacles
	// Altitude is the cruise altitude the grid is cut at and the waypoints fly at.
	Altitude float64
	// Safety is the margin added around every obstacle, horizontally and vertically.
	Safety float64
	Start  Position
	// Goal is optional; when nil a free cell is drawn from Rand.
	Goal            *Position
	Rand            *rand.Rand
	MaxGoalAttempts int
	// Heuristic defaults to Euclidean.
	Heuristic Heuristic
	Logger    *zap.SugaredLogger
}

// Diagnostics describes how a plan was produced and anything suspicious
// about its inputs.
type Diagnostics struct {
	PlanID        string        `json:"planId"`
	Warnings      []string      `json:"warnings,omitempty"`
	NoPath        string        `json:"noPath,omitempty"`
	GoalSampled   bool          `json:"goalSampled"`
	GoalAttempts  int           `json:"goalAttempts,omitempty"`
	Expanded      int           `json:"expanded"`
	OccupiedCells int           `json:"occupiedCells"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Result is the output of Plan. A result without waypoints means no path
// was found; Diagnostics.NoPath says why.
type Result struct {
	Waypoints   []Waypoint  `json:"waypoints"`
	RawPath     []grid.Cell `json:"rawPath,omitempty"`
	PrunedPath  []grid.Cell `json:"prunedPath,omitempty"`
	Cost        float64     `json:"cost"`
	Start       grid.Cell   `json:"start"`
	Goal        grid.Cell   `json:"goal"`
	Grid        *grid.Grid  `json:"-"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Found reports whether a path was found.
func (r *Result) Found() bool { return len(r.Waypoints) > 0 }

// Plan builds the occupancy grid at req.Altitude, resolves the start and
// goal cells, searches, prunes and emits waypoints. An unreachable goal is
// not an error. Errors are returned for unusable parameters, an exhausted
// random goal search and cancellation.
func Plan(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	if req.Obstacles == nil {
		return nil, errors.Wrap(ErrInvalidRequest, "no obstacle source")
	}
	logger := req.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	res := &Result{}
	res.Diagnostics.PlanID = uuid.NewString()
	logger = logger.With("plan", res.Diagnostics.PlanID)

	g, err := grid.Build(req.Obstacles, req.Altitude, req.Safety)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build grid")
	}
	res.Grid = g
	res.Diagnostics.OccupiedCells = g.OccupiedCount()
	logger.Infow("grid built",
		"rows", g.Rows(), "cols", g.Cols(),
		"northOffset", g.NorthOffset, "eastOffset", g.EastOffset,
		"occupied", res.Diagnostics.OccupiedCells)

	res.Start = g.CellOf(req.Start.North, req.Start.East)
	if !g.Free(res.Start) {
		res.Diagnostics.Warnings = append(res.Diagnostics.Warnings,
			fmt.Sprintf("start (%.2f, %.2f) at cell %v is not a free cell", req.Start.North, req.Start.East, res.Start))
	}

	goal, err := ResolveGoal(g, req.Goal, req.Rand, req.MaxGoalAttempts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve goal")
	}
	res.Goal = goal.Cell
	res.Diagnostics.GoalSampled = goal.Sampled
	res.Diagnostics.GoalAttempts = goal.Attempts
	res.Diagnostics.Warnings = append(res.Diagnostics.Warnings, goal.Warnings...)
	if req.Goal != nil && g.Occupied(goal.Cell) {
		lo, hi := req.Altitude-req.Safety, req.Altitude+req.Safety
		for _, o := range req.Obstacles.Covering(req.Goal.North, req.Goal.East, lo, hi, req.Safety) {
			res.Diagnostics.Warnings = append(res.Diagnostics.Warnings,
				fmt.Sprintf("goal blocked by obstacle at (%.2f, %.2f, %.2f)", o.North, o.East, o.Altitude))
		}
	}
	for _, w := range res.Diagnostics.Warnings {
		logger.Warn(w)
	}
	logger.Infow("searching", "start", res.Start, "goal", res.Goal, "sampledGoal", goal.Sampled)

	search, err := Search(ctx, g, req.Heuristic, res.Start, res.Goal)
	res.Diagnostics.Expanded = search.Expanded
	if err != nil {
		return nil, err
	}
	if !search.Found {
		res.Diagnostics.NoPath = search.Reason
		res.Diagnostics.Elapsed = time.Since(started)
		logger.Warnw("no path found", "reason", search.Reason, "expanded", search.Expanded)
		return res, nil
	}

	res.RawPath = search.Path
	res.Cost = search.Cost
	res.PrunedPath = Prune(search.Path)
	res.Waypoints = Waypoints(res.PrunedPath, g.NorthOffset, g.EastOffset, req.Altitude)
	res.Diagnostics.Elapsed = time.Since(started)

	logger.Infow("path found",
		"cost", res.Cost,
		"rawCells", len(res.RawPath),
		"waypoints", len(res.Waypoints),
		"expanded", search.Expanded,
		"elapsed", res.Diagnostics.Elapsed)
	return res, nil
}
