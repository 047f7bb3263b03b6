// Package rows loads the input table of locations to fetch imagery for.
package rows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	sferrors "sentinelfetch/pkg/errors"
)

// Required column names
const (
	ColumnID  = "id"
	ColumnLat = "lat"
	ColumnLon = "long"
)

var requiredColumns = []string{ColumnID, ColumnLat, ColumnLon}

// Row is one location to fetch an image for
type Row struct {
	ID  string
	Lat float64
	Lon float64
	// Line is the 1-based line number in the source file
	Line int
}

// Load reads every row of the CSV file at path, in file order. Any problem
// with the file or one of its rows is reported as a *errors.DataLoadError.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &sferrors.DataLoadError{Path: path, Reason: "cannot open file", Err: err}
	}
	defer f.Close()

	return Parse(path, f)
}

// Parse reads rows from r. name is only used in error messages.
func Parse(name string, r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &sferrors.DataLoadError{Path: name, Reason: "file is empty"}
		}
		return nil, &sferrors.DataLoadError{Path: name, Line: 1, Reason: "malformed header", Err: err}
	}

	columns, err := newColumnMap(header)
	if err != nil {
		return nil, &sferrors.DataLoadError{Path: name, Line: 1, Reason: err.Error()}
	}

	var result []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var line int
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, &sferrors.DataLoadError{Path: name, Line: line, Reason: "malformed CSV", Err: err}
		}
		line, _ := reader.FieldPos(0)

		row, err := columns.row(record)
		if err != nil {
			return nil, &sferrors.DataLoadError{Path: name, Line: line, Reason: err.Error()}
		}
		row.Line = line
		result = append(result, row)
	}

	return result, nil
}

// columnMap holds the index of each required column in a record
type columnMap struct {
	id, lat, lon int
	width        int
}

func newColumnMap(header []string) (columnMap, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return columnMap{}, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}

	m := columnMap{id: index[ColumnID], lat: index[ColumnLat], lon: index[ColumnLon]}
	m.width = max(m.id, m.lat, m.lon) + 1
	return m, nil
}

func (m columnMap) row(record []string) (Row, error) {
	if len(record) < m.width {
		return Row{}, fmt.Errorf("expected at least %d fields, got %d", m.width, len(record))
	}

	id := strings.TrimSpace(record[m.id])
	if id == "" {
		return Row{}, errors.New("empty id")
	}

	lat, err := parseCoordinate(record[m.lat])
	if err != nil {
		return Row{}, fmt.Errorf("invalid lat %q for id %s", record[m.lat], id)
	}
	lon, err := parseCoordinate(record[m.lon])
	if err != nil {
		return Row{}, fmt.Errorf("invalid long %q for id %s", record[m.lon], id)
	}

	return Row{ID: id, Lat: lat, Lon: lon}, nil
}

// parseCoordinate accepts finite decimal numbers only. NaN and Inf parse
// with strconv but cannot be encoded into a request body.
func parseCoordinate(field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("coordinate is not finite")
	}
	return v, nil
}
