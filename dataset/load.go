package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/YuminosukeSato/sgdreg/pkg/errors"
)

// Load reads delimited text whose first record is the header. Every other
// record must have as many fields as the header and every field must parse
// as a finite float64. On any failure no table is returned.
func Load(r io.Reader) (*Table, error) {
	return load(r, "")
}

// LoadFile opens path and loads it with Load. Files ending in ".xz" are
// decompressed on the fly.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError("dataset.LoadFile", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, errors.NewIOError("dataset.LoadFile", path, err)
		}
		r = xr
	}
	return load(r, path)
}

func load(r io.Reader, path string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("dataset.Load", "missing header", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, readError(path, err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	var rows [][]float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(path, err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(columns) {
			return nil, errors.NewSchemaError(line, len(columns), len(record))
		}

		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || !errors.IsFinite(v) {
				return nil, errors.NewParseError(line, columns[j], cell, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return newTable(columns, rows), nil
}

// readError classifies a failure from the csv reader. Malformed quoting is a
// parse failure; anything else comes from the underlying source.
func readError(path string, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) && !errors.Is(csvErr.Err, csv.ErrFieldCount) {
		return errors.NewParseError(csvErr.Line, "", "", err)
	}
	return errors.NewIOError("dataset.Load", path, err)
}
