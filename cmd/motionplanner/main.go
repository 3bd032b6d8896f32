// Package main is the motion planner command: plan a route over a collider
// map, serve plans over HTTP, or fly a planned route against a simulated
// vehicle.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig    = "config"
	flagColliders = "colliders"
	flagLogLevel  = "log-level"
	flagLogFile   = "log-file"

	flagGoal      = "goal"
	flagGoalLocal = "goal-local"
	flagStart     = "start"
	flagAltitude  = "altitude"
	flagSafety    = "safety"
	flagSeed      = "seed"
	flagGeoJSON   = "geojson"
	flagOut       = "out"
	flagMsgpack   = "msgpack"

	flagAddr = "addr"

	flagSpeed    = "speed"
	flagMaxSteps = "max-steps"
)

var planFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  flagGoal,
		Usage: "goal as `LON,LAT,ALT`; a random free cell when no goal is given",
	},
	&cli.StringFlag{
		Name:  flagGoalLocal,
		Usage: "goal in the local frame as `NORTH,EAST` meters from home",
	},
	&cli.StringFlag{
		Name:  flagStart,
		Usage: "start as `LON,LAT,ALT` (default home)",
	},
	&cli.Float64Flag{
		Name:  flagAltitude,
		Usage: "cruise altitude in meters (overrides config)",
	},
	&cli.Float64Flag{
		Name:  flagSafety,
		Usage: "safety distance around obstacles in meters (overrides config)",
	},
	&cli.Int64Flag{
		Name:  flagSeed,
		Usage: "seed for random goal selection (default time based)",
	},
}

var app = &cli.App{
	Name:            "motionplanner",
	Usage:           "grid A* motion planning over a collider map",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.StringFlag{
			Name:  flagColliders,
			Usage: "collider table `FILE` (overrides config)",
		},
		&cli.StringFlag{
			Name:  flagLogLevel,
			Usage: "log level: debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  flagLogFile,
			Usage: "also write JSON logs to `FILE`",
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "plan",
			Usage: "plan a route and print its waypoints",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:  flagGeoJSON,
					Usage: "write obstacles, path and waypoints as GeoJSON to `FILE`",
				},
				&cli.StringFlag{
					Name:  flagOut,
					Usage: "save the plan as JSON to `FILE`",
				},
				&cli.StringFlag{
					Name:  flagMsgpack,
					Usage: "write the msgpack waypoint payload to `FILE` (zstd-compressed for .zst)",
				},
			}, planFlags...),
			Action: PlanAction,
		},
		{
			Name:  "serve",
			Usage: "serve plans over HTTP",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  flagAddr,
					Usage: "listen address (overrides config)",
				},
			},
			Action: ServeAction,
		},
		{
			Name:  "fly",
			Usage: "fly a planned route against the simulated vehicle",
			Flags: append([]cli.Flag{
				&cli.Float64Flag{
					Name:  flagSpeed,
					Usage: "simulated vehicle speed in meters per step (overrides config)",
				},
				&cli.IntFlag{
					Name:  flagMaxSteps,
					Usage: "give up after this many simulation steps (overrides config)",
				},
			}, planFlags...),
			Action: FlyAction,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
