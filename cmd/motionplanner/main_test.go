package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid-motion-planner/internal/export"
	"grid-motion-planner/internal/planner"
)

const wallTable = `lat0 37.792480, lon0 -122.397450
posX,posY,posZ,halfSizeX,halfSizeY,halfSizeZ
0,0,100,0.5,0.5,1
30,30,100,0.5,0.5,1
15,15,5,10,1,5
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	colliders := filepath.Join(t.TempDir(), "colliders.csv")
	require.NoError(t, os.WriteFile(colliders, []byte(wallTable), 0o644))

	var stdout, stderr bytes.Buffer
	app.Writer, app.ErrWriter = &stdout, &stderr
	t.Cleanup(func() { app.Writer, app.ErrWriter = os.Stdout, os.Stderr })

	argv := append([]string{"motionplanner", "--colliders", colliders}, args...)
	err := app.Run(argv)
	return stdout.String(), err
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	geo := filepath.Join(dir, "plan.geojson")
	out := filepath.Join(dir, "plan.json")
	payload := filepath.Join(dir, "waypoints.msgpack.zst")

	stdout, err := run(t, "plan",
		"--safety", "1",
		"--goal-local", "14,28",
		"--geojson", geo, "--out", out, "--msgpack", payload)
	require.NoError(t, err)

	var wps []planner.Waypoint
	require.NoError(t, json.Unmarshal([]byte(stdout), &wps))
	require.NotEmpty(t, wps)
	assert.Equal(t, planner.Waypoint{North: 0, East: 0, Altitude: 5, Heading: 0}, wps[0])
	assert.Equal(t, 14.0, wps[len(wps)-1].North)
	assert.Equal(t, 28.0, wps[len(wps)-1].East)

	assert.FileExists(t, geo)
	saved, err := export.LoadPlan(out)
	require.NoError(t, err)
	assert.Equal(t, wps, saved.Waypoints)

	decoded, err := export.ReadWaypointFile(payload)
	require.NoError(t, err)
	assert.Equal(t, wps, decoded)
}

func TestPlanCommandGlobalGoal(t *testing.T) {
	stdout, err := run(t, "plan", "--safety", "1", "--goal", "-122.397450,37.792480,0", "--start", "-122.397450,37.792480,0")
	require.NoError(t, err)

	var wps []planner.Waypoint
	require.NoError(t, json.Unmarshal([]byte(stdout), &wps))
	assert.Len(t, wps, 1, "start and goal share a cell")
}

func TestPlanCommandErrors(t *testing.T) {
	_, err := run(t, "plan", "--safety", "1", "--goal-local", "15,15")
	assert.ErrorContains(t, err, "no path found")

	_, err = run(t, "plan", "--goal", "1,2,3", "--goal-local", "1,2")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = run(t, "plan", "--goal-local", "north")
	assert.Error(t, err)

	_, err = run(t, "--log-level", "loud", "plan")
	assert.ErrorContains(t, err, "log.level")
}

func TestFlyCommand(t *testing.T) {
	_, err := run(t, "fly", "--safety", "1", "--goal-local", "14,28", "--speed", "3")
	require.NoError(t, err)

	_, err = run(t, "fly", "--safety", "1", "--goal-local", "15,15")
	assert.ErrorContains(t, err, "mission aborted")

	_, err = run(t, "fly", "--safety", "1", "--goal-local", "14,28", "--max-steps", "5")
	assert.ErrorContains(t, err, "after 5 steps")
}

func TestParseLocal(t *testing.T) {
	p, err := parseLocal(" 12.5, -3")
	require.NoError(t, err)
	assert.Equal(t, planner.Position{North: 12.5, East: -3}, p)

	for _, bad := range []string{"", "1", "1,2,3", "a,1", "1,b"} {
		_, err := parseLocal(bad)
		assert.Error(t, err, bad)
	}
}
