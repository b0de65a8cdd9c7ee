// Package dataset provides Table, an in-memory numeric table with the
// derived-copy operations used to prepare training data: random train and
// validation splits, per-epoch shuffled minibatches, feature/target
// extraction and per-column scaling.
//
// A Table never changes after construction. Every operation returns a new
// Table that owns its row storage, and accessors return copies, so tables
// derived from one another never alias mutable state.
package dataset

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sgdreg/core/model"
	"github.com/YuminosukeSato/sgdreg/pkg/errors"
	"github.com/YuminosukeSato/sgdreg/preprocessing"
)

// Table is an immutable table of finite float64 values with named columns.
type Table struct {
	columns []string
	rows    [][]float64
}

// New builds a Table from column names and rows. The input is deep-copied.
// Every row must have len(columns) values and every value must be finite.
func New(columns []string, rows [][]float64) (*Table, error) {
	if len(columns) == 0 {
		return nil, errors.NewValidationError("columns", "at least one column is required", columns)
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewDimensionError("dataset.New", len(columns), len(row), 1)
		}
		if !errors.AllFinite(row) {
			return nil, errors.NewValueError("dataset.New", "row contains NaN or Inf")
		}
	}
	return newTable(cloneStrings(columns), cloneRows(rows)), nil
}

// newTable wraps storage the caller has already copied.
func newTable(columns []string, rows [][]float64) *Table {
	return &Table{columns: columns, rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// Columns returns a copy of the column names.
func (t *Table) Columns() []string { return cloneStrings(t.columns) }

// ColumnIndex returns the index of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Row returns a copy of row i. It panics if i is out of range.
func (t *Table) Row(i int) []float64 {
	return cloneRow(t.rows[i])
}

// Rows returns a deep copy of all rows.
func (t *Table) Rows() [][]float64 {
	return cloneRows(t.rows)
}

// Column returns a copy of the values of column j. It panics if j is out of range.
func (t *Table) Column(j int) []float64 {
	if j < 0 || j >= len(t.columns) {
		panic("dataset: column index out of range")
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out
}

// Split assigns every row independently to the first table with probability
// ratio (rng.Float64() < ratio) and to the second otherwise. Realized sizes
// are random. Both tables keep the original relative row order.
func (t *Table) Split(ratio float64, rng *rand.Rand) (*Table, *Table, error) {
	if !(ratio >= 0 && ratio <= 1) {
		return nil, nil, errors.NewValidationError("ratio", "must be in [0, 1]", ratio)
	}

	var first, second [][]float64
	for _, row := range t.rows {
		if rng.Float64() < ratio {
			first = append(first, cloneRow(row))
		} else {
			second = append(second, cloneRow(row))
		}
	}
	return newTable(t.Columns(), first), newTable(t.Columns(), second), nil
}

// ShuffledMinibatches draws a uniform random permutation of the rows and cuts
// it into consecutive batches of batchSize rows; the last batch may be
// shorter. Every row appears in exactly one batch. Each call reshuffles.
func (t *Table) ShuffledMinibatches(batchSize int, rng *rand.Rand) ([]*Table, error) {
	if batchSize <= 0 {
		return nil, errors.NewValidationError("batch_size", "must be positive", batchSize)
	}

	perm := rng.Perm(len(t.rows))
	batches := make([]*Table, 0, (len(perm)+batchSize-1)/batchSize)
	for start := 0; start < len(perm); start += batchSize {
		end := min(start+batchSize, len(perm))
		rows := make([][]float64, 0, end-start)
		for _, idx := range perm[start:end] {
			rows = append(rows, cloneRow(t.rows[idx]))
		}
		batches = append(batches, newTable(t.Columns(), rows))
	}
	return batches, nil
}

// ExtractFeatureTarget removes column targetIndex from every row. It returns
// the remaining values, in column order, as feature vectors and the removed
// values as the target.
func (t *Table) ExtractFeatureTarget(targetIndex int) ([][]float64, []float64, error) {
	if err := t.checkColumn("target_column_index", targetIndex); err != nil {
		return nil, nil, err
	}

	features := make([][]float64, len(t.rows))
	target := make([]float64, len(t.rows))
	for i, row := range t.rows {
		x := make([]float64, 0, len(row)-1)
		x = append(x, row[:targetIndex]...)
		x = append(x, row[targetIndex+1:]...)
		features[i] = x
		target[i] = row[targetIndex]
	}
	return features, target, nil
}

// Design returns the feature matrix and target vector for targetIndex as
// gonum types. The table must not be empty.
func (t *Table) Design(targetIndex int) (*mat.Dense, *mat.VecDense, error) {
	features, target, err := t.ExtractFeatureTarget(targetIndex)
	if err != nil {
		return nil, nil, err
	}
	if len(target) == 0 {
		return nil, nil, errors.NewModelError("Table.Design", "empty data", errors.ErrEmptyData)
	}

	nFeatures := len(t.columns) - 1
	data := make([]float64, 0, len(features)*nFeatures)
	for _, x := range features {
		data = append(data, x...)
	}
	var X *mat.Dense
	if nFeatures > 0 {
		X = mat.NewDense(len(features), nFeatures, data)
	}
	return X, mat.NewVecDense(len(target), target), nil
}

// NormalizeColumn returns a new table whose column index is min-max scaled
// to (value - min) / (max - min). A constant column yields a
// DegenerateColumnError.
func (t *Table) NormalizeColumn(index int) (*Table, error) {
	return t.TransformColumn(index, preprocessing.NewMinMaxScaler(index))
}

// StandardizeColumn returns a new table whose column index is scaled to zero
// mean and unit population standard deviation.
func (t *Table) StandardizeColumn(index int) (*Table, error) {
	return t.TransformColumn(index, preprocessing.NewStandardScaler(index))
}

// TransformColumn fits tr on column index and returns a new table with that
// column replaced by the transformed values.
func (t *Table) TransformColumn(index int, tr model.ColumnTransformer) (*Table, error) {
	if err := t.checkColumn("column_index", index); err != nil {
		return nil, err
	}

	values, err := preprocessing.FitTransform(tr, t.Column(index))
	if err != nil {
		return nil, err
	}
	if len(values) != len(t.rows) {
		return nil, errors.NewDimensionError("Table.TransformColumn", len(t.rows), len(values), 0)
	}

	rows := cloneRows(t.rows)
	for i := range rows {
		rows[i][index] = values[i]
	}
	return newTable(t.Columns(), rows), nil
}

func (t *Table) checkColumn(param string, index int) error {
	if index < 0 || index >= len(t.columns) {
		return errors.NewValidationError(param, "out of range", index)
	}
	return nil
}

func cloneRow(row []float64) []float64 {
	return append([]float64(nil), row...)
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = cloneRow(row)
	}
	return out
}

func cloneStrings(s []string) []string {
	return append([]string(nil), s...)
}
