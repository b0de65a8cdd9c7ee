package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/sgdreg/core/model"
	"github.com/YuminosukeSato/sgdreg/pkg/errors"
)

// MinMaxScaler は1列の値を (value - min) / (max - min) で [0, 1] に写す
type MinMaxScaler struct {
	model.BaseEstimator

	// Column はエラー報告に使う列番号
	Column int

	// DataMin は学習データの最小値
	DataMin float64

	// DataMax は学習データの最大値
	DataMax float64
}

// NewMinMaxScaler は column 列用の新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler(2)
//	if err := scaler.Fit(values); err != nil { ... }
//	scaled, err := scaler.Transform(values)
func NewMinMaxScaler(column int) *MinMaxScaler {
	return &MinMaxScaler{Column: column}
}

// Fit は列の最小値・最大値を計算する。
// 最小値と最大値が等しい場合は分母が0になるため DegenerateColumnError を返す。
func (m *MinMaxScaler) Fit(column []float64) error {
	if len(column) == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	lo, hi := floats.Min(column), floats.Max(column)
	if hi == lo {
		return errors.NewDegenerateColumnError("MinMaxScaler.Fit", m.Column, lo)
	}

	m.DataMin = lo
	m.DataMax = hi
	m.SetFitted()
	return nil
}

// Transform は学習済みの最小値・最大値で列をスケーリングした新しいスライスを返す
func (m *MinMaxScaler) Transform(column []float64) ([]float64, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	scale := m.DataMax - m.DataMin
	out := make([]float64, len(column))
	for i, v := range column {
		out[i] = (v - m.DataMin) / scale
	}
	return out, nil
}

// InverseTransform はスケーリングされた値を元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(column []float64) ([]float64, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	scale := m.DataMax - m.DataMin
	out := make([]float64, len(column))
	for i, v := range column {
		out[i] = v*scale + m.DataMin
	}
	return out, nil
}

func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(column=%d)", m.Column)
	}
	return fmt.Sprintf("MinMaxScaler(column=%d, min=%g, max=%g)", m.Column, m.DataMin, m.DataMax)
}

// StandardScaler は1列の値を平均0、標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator

	// Column はエラー報告に使う列番号
	Column int

	// Mean は列の平均値
	Mean float64

	// Scale は列の母標準偏差
	Scale float64
}

// NewStandardScaler は column 列用の新しいStandardScalerを作成する
func NewStandardScaler(column int) *StandardScaler {
	return &StandardScaler{Column: column}
}

// Fit は列の平均と母標準偏差を計算する。
// 標準偏差が0の列は DegenerateColumnError になる。
func (s *StandardScaler) Fit(column []float64) error {
	if len(column) == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	mean, std := stat.PopMeanStdDev(column, nil)
	if std == 0 {
		return errors.NewDegenerateColumnError("StandardScaler.Fit", s.Column, column[0])
	}

	s.Mean = mean
	s.Scale = std
	s.SetFitted()
	return nil
}

// Transform は学習済みの統計量で列を標準化した新しいスライスを返す
func (s *StandardScaler) Transform(column []float64) ([]float64, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	out := make([]float64, len(column))
	for i, v := range column {
		out[i] = (v - s.Mean) / s.Scale
	}
	return out, nil
}

// InverseTransform は標準化された値を元のスケールに戻す
func (s *StandardScaler) InverseTransform(column []float64) ([]float64, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	out := make([]float64, len(column))
	for i, v := range column {
		out[i] = v*s.Scale + s.Mean
	}
	return out, nil
}

func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(column=%d)", s.Column)
	}
	return fmt.Sprintf("StandardScaler(column=%d, mean=%g, std=%g)", s.Column, s.Mean, s.Scale)
}

// FitTransform は t で列を学習し、同じ列を変換する
func FitTransform(t model.ColumnTransformer, column []float64) ([]float64, error) {
	if err := t.Fit(column); err != nil {
		return nil, err
	}
	return t.Transform(column)
}
