package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"grid-motion-planner/internal/config"
	"grid-motion-planner/internal/export"
	"grid-motion-planner/internal/geoframe"
	"grid-motion-planner/internal/logging"
	"grid-motion-planner/internal/mission"
	"grid-motion-planner/internal/obstacles"
	"grid-motion-planner/internal/planner"
	"grid-motion-planner/internal/server"
)

// environment is what every command needs: configuration, a logger and the
// loaded obstacle table.
type environment struct {
	cfg      config.Config
	logger   *zap.SugaredLogger
	closeLog func() error
	table    *obstacles.Table
	index    *obstacles.Index
	home     geoframe.Global
}

func newEnvironment(c *cli.Context) (*environment, error) {
	cfg, err := config.Load(c.String(flagConfig))
	if err != nil {
		return nil, err
	}
	if c.IsSet(flagColliders) {
		cfg.CollidersPath = c.String(flagColliders)
	}
	if c.IsSet(flagLogLevel) {
		cfg.Log.Level = c.String(flagLogLevel)
	}
	if c.IsSet(flagLogFile) {
		cfg.Log.File = c.String(flagLogFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	logger, closeLog, err := logging.New(c.Command.Name, cfg.Log, c.App.ErrWriter)
	if err != nil {
		return nil, err
	}

	table, err := obstacles.LoadFile(cfg.CollidersPath)
	if err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "failed to load colliders"), closeLog())
	}
	env := &environment{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		table:    table,
		index:    obstacles.NewIndex(table.Obstacles),
		home:     geoframe.Global{Lon: table.Lon0, Lat: table.Lat0},
	}
	minN, maxN, minE, maxE := env.index.Extent()
	logger.Infow("obstacles loaded",
		"path", cfg.CollidersPath,
		"obstacles", env.index.Len(),
		"home", env.home,
		"north", []float64{minN, maxN},
		"east", []float64{minE, maxE})
	return env, nil
}

func (env *environment) close(err error) error {
	return multierr.Append(err, env.closeLog())
}

// parseLocal parses "north,east".
func parseLocal(s string) (planner.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return planner.Position{}, errors.Errorf("expected north,east, got %q", s)
	}
	north, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return planner.Position{}, errors.Wrapf(err, "invalid north %q", parts[0])
	}
	east, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return planner.Position{}, errors.Wrapf(err, "invalid east %q", parts[1])
	}
	return planner.Position{North: north, East: east}, nil
}

// planRequest assembles a planner request from the plan flags. The start
// defaults to home; the goal defaults to a random free cell.
func (env *environment) planRequest(c *cli.Context) (planner.Request, error) {
	req := planner.Request{
		Obstacles:       env.index,
		Altitude:        env.cfg.Planner.TargetAltitude,
		Safety:          env.cfg.Planner.SafetyDistance,
		MaxGoalAttempts: env.cfg.Planner.MaxGoalAttempts,
		Logger:          env.logger,
	}
	if c.IsSet(flagAltitude) {
		req.Altitude = c.Float64(flagAltitude)
	}
	if c.IsSet(flagSafety) {
		req.Safety = c.Float64(flagSafety)
	}

	position := env.home
	if c.IsSet(flagStart) {
		p, err := geoframe.ParseGlobal(c.String(flagStart))
		if err != nil {
			return req, errors.Wrap(err, "invalid --start")
		}
		position = p
	}
	local := geoframe.GlobalToLocal(position, env.home)
	req.Start = planner.Position{North: local.North, East: local.East}
	env.logger.Infow("start position", "global", position, "home", env.home, "local", local)

	switch {
	case c.IsSet(flagGoal) && c.IsSet(flagGoalLocal):
		return req, errors.Errorf("--%s and --%s are mutually exclusive", flagGoal, flagGoalLocal)
	case c.IsSet(flagGoal):
		g, err := geoframe.ParseGlobal(c.String(flagGoal))
		if err != nil {
			return req, errors.Wrap(err, "invalid --goal")
		}
		l := geoframe.GlobalToLocal(g, env.home)
		req.Goal = &planner.Position{North: l.North, East: l.East}
		env.logger.Infow("global goal", "global", g, "local", l)
	case c.IsSet(flagGoalLocal):
		p, err := parseLocal(c.String(flagGoalLocal))
		if err != nil {
			return req, errors.Wrap(err, "invalid --goal-local")
		}
		req.Goal = &p
	}

	seed := time.Now().UnixNano()
	if c.IsSet(flagSeed) {
		seed = c.Int64(flagSeed)
	}
	req.Rand = rand.New(rand.NewSource(seed))
	if req.Goal == nil {
		env.logger.Infow("no goal given, sampling a free cell", "seed", seed)
	}
	return req, nil
}

// PlanAction plans one route and prints its waypoints as JSON.
func PlanAction(c *cli.Context) (err error) {
	env, err := newEnvironment(c)
	if err != nil {
		return err
	}
	defer func() { err = env.close(err) }()

	req, err := env.planRequest(c)
	if err != nil {
		return err
	}
	res, err := planner.Plan(c.Context, req)
	if err != nil {
		return err
	}

	if path := c.String(flagGeoJSON); path != "" {
		lo, hi := req.Altitude-req.Safety, req.Altitude+req.Safety
		fc := export.Plan(res, env.index.InBand(lo, hi), req.Safety, export.Geodetic(env.home))
		if err := export.WriteGeoJSON(fc, path); err != nil {
			return err
		}
		env.logger.Infow("geojson written", "path", path, "features", len(fc.Features))
	}
	if !res.Found() {
		return errors.Errorf("no path found: %s", res.Diagnostics.NoPath)
	}

	if path := c.String(flagOut); path != "" {
		if err := export.SavePlan(res, path); err != nil {
			return err
		}
		env.logger.Infow("plan saved", "path", path)
	}
	if path := c.String(flagMsgpack); path != "" {
		if err := export.WriteWaypointFile(res.Waypoints, path); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(res.Waypoints, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal waypoints")
	}
	_, err = c.App.Writer.Write(append(out, '\n'))
	return err
}

// ServeAction serves plans over HTTP until interrupted.
func ServeAction(c *cli.Context) (err error) {
	env, err := newEnvironment(c)
	if err != nil {
		return err
	}
	defer func() { err = env.close(err) }()

	if c.IsSet(flagAddr) {
		env.cfg.Server.Addr = c.String(flagAddr)
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = server.New(env.table, env.cfg, env.logger).ListenAndServe(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// FlyAction runs the full mission against the simulated vehicle: arm, plan
// from the vehicle's position, take off, visit every waypoint and land.
func FlyAction(c *cli.Context) (err error) {
	env, err := newEnvironment(c)
	if err != nil {
		return err
	}
	defer func() { err = env.close(err) }()

	req, err := env.planRequest(c)
	if err != nil {
		return err
	}
	speed, maxSteps := env.cfg.Mission.SimSpeed, env.cfg.Mission.MaxSteps
	if c.IsSet(flagSpeed) {
		speed = c.Float64(flagSpeed)
	}
	if c.IsSet(flagMaxSteps) {
		maxSteps = c.Int(flagMaxSteps)
	}
	if speed <= 0 || maxSteps <= 0 {
		return errors.New("speed and max steps must be positive")
	}

	sim := mission.NewSimVehicle(req.Start.North, req.Start.East, speed)
	sim.HomeAltitude = env.home.Alt
	plan := func(ctx context.Context) ([]planner.Waypoint, error) {
		res, err := planner.Plan(ctx, req)
		if err != nil {
			return nil, err
		}
		if !res.Found() {
			return nil, errors.New(res.Diagnostics.NoPath)
		}
		return res.Waypoints, nil
	}

	opts := mission.DefaultOptions()
	opts.TargetAltitude = req.Altitude
	opts.TakeoffFraction = env.cfg.Mission.TakeoffFraction
	opts.ProximityThreshold = env.cfg.Mission.ProximityThreshold
	opts.LandingSpeedThreshold = env.cfg.Mission.LandingSpeedThreshold

	m := mission.New(sim, plan, opts, env.logger)
	if err := mission.Fly(c.Context, m, sim, maxSteps); err != nil {
		return err
	}
	t := sim.Telemetry()
	env.logger.Infow("mission complete",
		"waypoints", len(m.Route()),
		"north", t.LocalPosition[0],
		"east", t.LocalPosition[1])
	return nil
}
