package export

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"grid-motion-planner/internal/planner"
)

// EncodeWaypoints packs waypoints as the simulator expects them: an array
// of [north, east, altitude, heading] arrays.
func EncodeWaypoints(wps []planner.Waypoint) ([]byte, error) {
	rows := make([][]float64, len(wps))
	for i, wp := range wps {
		rows[i] = []float64{wp.North, wp.East, wp.Altitude, wp.Heading}
	}

	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(rows); err != nil {
		return nil, errors.Wrap(err, "failed to encode waypoints")
	}
	return buf.Bytes(), nil
}

// DecodeWaypoints is the inverse of EncodeWaypoints.
func DecodeWaypoints(data []byte) ([]planner.Waypoint, error) {
	var rows [][]float64
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&rows); err != nil {
		return nil, errors.Wrap(err, "failed to decode waypoints")
	}
	wps := make([]planner.Waypoint, len(rows))
	for i, row := range rows {
		if len(row) != 4 {
			return nil, errors.Errorf("waypoint %d: expected 4 values, got %d", i, len(row))
		}
		wps[i] = planner.Waypoint{North: row[0], East: row[1], Altitude: row[2], Heading: row[3]}
	}
	return wps, nil
}

// WriteWaypointFile writes the EncodeWaypoints payload to filename,
// zstd-compressed when the name ends in ".zst" (e.g. route.msgpack.zst).
func WriteWaypointFile(wps []planner.Waypoint, filename string) error {
	data, err := EncodeWaypoints(wps)
	if err != nil {
		return err
	}
	if strings.HasSuffix(filename, ".zst") {
		zw, err := zstd.NewWriter(nil)
		if err != nil {
			return errors.Wrap(err, "failed to create zstd encoder")
		}
		data = zw.EncodeAll(data, nil)
		if err := zw.Close(); err != nil {
			return errors.Wrap(err, "failed to close zstd encoder")
		}
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write file")
	}
	return nil
}

// ReadWaypointFile reads a file written by WriteWaypointFile.
func ReadWaypointFile(filename string) ([]planner.Waypoint, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(filename, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create zstd decoder")
		}
		defer zr.Close()
		r = zr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	return DecodeWaypoints(data)
}

// SavePlan writes res as indented JSON.
func SavePlan(res *planner.Result, filename string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal plan")
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write file")
	}
	return nil
}

// LoadPlan reads a plan written by SavePlan. The occupancy grid is not
// saved, so the returned result has no Grid.
func LoadPlan(filename string) (*planner.Result, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	var res planner.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal plan")
	}
	return &res, nil
}
