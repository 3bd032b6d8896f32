package obstacles

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ColumnCount is the number of numeric fields in every obstacle row.
const ColumnCount = 6

var (
	// ErrMalformedTable is wrapped by every ParseError.
	ErrMalformedTable = errors.New("malformed obstacle table")
	// ErrEmptyTable is returned when the table has a header but no rows.
	ErrEmptyTable = errors.New("obstacle table has no rows")
)

// ParseError locates a problem in the collider file. Line is 1-based;
// Column is 1-based and zero when the whole line is at fault.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("obstacle table line %d column %d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("obstacle table line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrMalformedTable }

// LoadFile reads a collider table from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open obstacle table %s", path)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return table, nil
}

// Read parses a collider table. The first line carries the reference point
// ("lat0 <deg>, lon0 <deg>"), the second names the columns and is skipped,
// and every following line holds north, east, altitude, half_north,
// half_east, half_altitude.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Msg: "missing lat0/lon0 header"}
	}
	if err != nil {
		return nil, csvError(err)
	}

	table := &Table{}
	if err := parseHeader(header, table); err != nil {
		return nil, err
	}

	// column names
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, ErrEmptyTable
		}
		return nil, csvError(err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}

		line, _ := reader.FieldPos(0)
		obstacle, err := parseRow(record, line)
		if err != nil {
			return nil, err
		}
		table.Obstacles = append(table.Obstacles, obstacle)
	}

	if len(table.Obstacles) == 0 {
		return nil, ErrEmptyTable
	}
	return table, nil
}

func parseHeader(fields []string, table *Table) error {
	seen := map[string]bool{}
	for i, field := range fields {
		parts := strings.Fields(field)
		if len(parts) != 2 {
			return &ParseError{Line: 1, Column: i + 1, Msg: fmt.Sprintf("expected \"<name> <value>\", got %q", field)}
		}
		value, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return &ParseError{Line: 1, Column: i + 1, Msg: fmt.Sprintf("%s is not numeric: %q", parts[0], parts[1])}
		}
		switch parts[0] {
		case "lat0":
			table.Lat0 = value
		case "lon0":
			table.Lon0 = value
		default:
			return &ParseError{Line: 1, Column: i + 1, Msg: fmt.Sprintf("unknown header field %q", parts[0])}
		}
		seen[parts[0]] = true
	}
	if !seen["lat0"] || !seen["lon0"] {
		return &ParseError{Line: 1, Msg: "header must define lat0 and lon0"}
	}
	return nil
}

func parseRow(record []string, line int) (Obstacle, error) {
	if len(record) != ColumnCount {
		return Obstacle{}, &ParseError{
			Line: line,
			Msg:  fmt.Sprintf("expected %d columns, got %d", ColumnCount, len(record)),
		}
	}

	var values [ColumnCount]float64
	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Obstacle{}, &ParseError{Line: line, Column: i + 1, Msg: fmt.Sprintf("not a finite number: %q", field)}
		}
		values[i] = v
	}
	for i := 3; i < ColumnCount; i++ {
		if values[i] < 0 {
			return Obstacle{}, &ParseError{Line: line, Column: i + 1, Msg: "half extent must not be negative"}
		}
	}

	return Obstacle{
		North:        values[0],
		East:         values[1],
		Altitude:     values[2],
		HalfNorth:    values[3],
		HalfEast:     values[4],
		HalfAltitude: values[5],
	}, nil
}

func csvError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Line: perr.Line, Column: perr.Column, Msg: perr.Err.Error()}
	}
	return errors.Wrap(err, "failed to read obstacle table")
}
