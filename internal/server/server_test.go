package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"grid-motion-planner/internal/config"
	"grid-motion-planner/internal/obstacles"
)

const wallTable = `lat0 37.792480, lon0 -122.397450
posX,posY,posZ,halfSizeX,halfSizeY,halfSizeZ
0,0,100,0.5,0.5,1
30,30,100,0.5,0.5,1
15,15,5,10,1,5
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	table, err := obstacles.Read(strings.NewReader(wallTable))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Planner.SafetyDistance = 1
	srv := httptest.NewServer(New(table, cfg, zaptest.NewLogger(t).Sugar()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postPlan(t *testing.T, srv *httptest.Server, body string) (int, PlanResponse) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/plan", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out PlanResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestPlan(t *testing.T) {
	srv := newTestServer(t)

	status, resp := postPlan(t, srv, `{"start": {"north": 14, "east": 2}, "goal": {"north": 14, "east": 28}}`)
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Success, resp.Message)
	require.NotNil(t, resp.Result)
	assert.NotEmpty(t, resp.Diagnostics.PlanID)
	assert.Greater(t, len(resp.Waypoints), 2)

	last := resp.Waypoints[len(resp.Waypoints)-1]
	assert.Equal(t, 14.0, last.North)
	assert.Equal(t, 28.0, last.East)
	assert.Equal(t, 5.0, last.Altitude)
}

func TestPlanNoPath(t *testing.T) {
	srv := newTestServer(t)

	status, resp := postPlan(t, srv, `{"start": {"north": 2, "east": 2}, "goal": {"north": 15, "east": 15}}`)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "goal")
	assert.Empty(t, resp.Waypoints)
	assert.NotEmpty(t, resp.Diagnostics.Warnings)
}

func TestPlanSeededGoal(t *testing.T) {
	srv := newTestServer(t)

	body := `{"start": {"north": 2, "east": 2}, "seed": 42}`
	_, first := postPlan(t, srv, body)
	_, second := postPlan(t, srv, body)
	require.NotNil(t, first.Result)
	require.NotNil(t, second.Result)
	assert.Equal(t, int64(42), first.Seed)
	assert.True(t, first.Diagnostics.GoalSampled)
	assert.Equal(t, first.Goal, second.Goal)
	assert.Equal(t, first.Waypoints, second.Waypoints)
}

func TestPlanGlobalGoal(t *testing.T) {
	srv := newTestServer(t)

	// home itself lands in the free corner cell next to the marker
	status, resp := postPlan(t, srv, `{
		"start": {"north": 14, "east": 2},
		"goalGlobal": {"lon": -122.397450, "lat": 37.792480, "alt": 0}
	}`)
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Success, resp.Message)
	last := resp.Waypoints[len(resp.Waypoints)-1]
	assert.Equal(t, 0.0, last.North)
	assert.Equal(t, 0.0, last.East)
}

func TestPlanBadRequests(t *testing.T) {
	srv := newTestServer(t)

	status, _ := postPlan(t, srv, `{"start": `)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = postPlan(t, srv, `{"safety": -3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	resp, err := http.Get(srv.URL + "/plan")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func getFeatures(t *testing.T, url string) *geojson.FeatureCollection {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	return fc
}

func TestObstacles(t *testing.T) {
	srv := newTestServer(t)

	assert.Len(t, getFeatures(t, srv.URL+"/obstacles?altitude=5&safety=1").Features, 1)
	assert.Len(t, getFeatures(t, srv.URL+"/obstacles?altitude=100&safety=0").Features, 2)

	fc := getFeatures(t, srv.URL+"/obstacles?altitude=5&frame=global")
	require.Len(t, fc.Features, 1)
	b := fc.Features[0].Geometry.Bound()
	assert.InDelta(t, -122.3974, b.Center().Lon(), 0.001)
	assert.InDelta(t, 37.7926, b.Center().Lat(), 0.001)

	for _, q := range []string{"altitude=high", "safety=-1", "frame=mercator"} {
		resp, err := http.Get(srv.URL + "/obstacles?" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestReplaceColliders(t *testing.T) {
	srv := newTestServer(t)

	table := "lat0 37.79, lon0 -122.39\nposX,posY,posZ,halfSizeX,halfSizeY,halfSizeZ\n5,5,5,1,1,5\n"
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/colliders", strings.NewReader(table))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health struct {
		Status    string `json:"status"`
		Obstacles int    `json:"obstacles"`
		Home      struct {
			Lat float64 `json:"lat"`
		} `json:"home"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ready", health.Status)
	assert.Equal(t, 1, health.Obstacles)
	assert.Equal(t, 37.79, health.Home.Lat)

	req, err = http.NewRequest(http.MethodPut, srv.URL+"/colliders", strings.NewReader("lat0 1, lon0 2\nheader\n1,2,3\n"))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/plan", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
