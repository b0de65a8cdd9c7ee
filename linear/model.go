// Package linear provides the affine model y = intercept + Σ coefficients[j]*x[j]
// trained by package sgd, its evaluation against a dataset.Table, weight
// export and a closed-form least-squares baseline.
package linear

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/sgdreg/core/model"
	"github.com/YuminosukeSato/sgdreg/dataset"
	"github.com/YuminosukeSato/sgdreg/metrics"
	"github.com/YuminosukeSato/sgdreg/pkg/errors"
)

// ModelType は ExportWeights が書き出すモデル種別
const ModelType = "SGDLinearRegression"

// InitRange は NewRandomModel が各パラメータを引く一様分布の半幅
const InitRange = 0.5

// Model は切片と係数からなる線形モデル。
// 係数の数は作成時に固定され、以後はパラメータの値だけが Step で更新される。
type Model struct {
	intercept    float64
	coefficients []float64
}

var (
	_ model.Predictor      = (*Model)(nil)
	_ model.WeightExporter = (*Model)(nil)
)

// NewModel は与えられた切片と係数で Model を作成する。coefficients はコピーされる。
func NewModel(intercept float64, coefficients []float64) *Model {
	return &Model{
		intercept:    intercept,
		coefficients: append([]float64{}, coefficients...),
	}
}

// NewRandomModel は切片と numCoefficients 個の係数をそれぞれ
// 一様分布 [-0.5, 0.5] から rng で引いた Model を作成する
func NewRandomModel(numCoefficients int, rng *rand.Rand) *Model {
	dist := distuv.Uniform{Min: -InitRange, Max: InitRange, Src: rng}

	m := &Model{
		intercept:    dist.Rand(),
		coefficients: make([]float64, numCoefficients),
	}
	for i := range m.coefficients {
		m.coefficients[i] = dist.Rand()
	}
	return m
}

// Predict は intercept + Σ coefficients[j]*features[j] を返す。
// 長さが係数の数と異なる場合は DimensionError を返す。
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != len(m.coefficients) {
		return 0, errors.NewDimensionError("Model.Predict", len(m.coefficients), len(features), 1)
	}
	if len(features) == 0 {
		return m.intercept, nil
	}
	return m.intercept + floats.Dot(features, m.coefficients), nil
}

// PredictAll は各特徴量ベクトルに対する予測値を返す
func (m *Model) PredictAll(features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i, x := range features {
		p, err := m.Predict(x)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		out[i] = p
	}
	return out, nil
}

// Intercept は切片を返す
func (m *Model) Intercept() float64 { return m.intercept }

// Coefficients は係数のコピーを返す
func (m *Model) Coefficients() []float64 {
	return append([]float64{}, m.coefficients...)
}

// NumCoefficients は係数の数を返す
func (m *Model) NumCoefficients() int { return len(m.coefficients) }

// Params は切片、係数の順に並べたパラメータのコピーを返す
func (m *Model) Params() []float64 {
	params := make([]float64, 0, len(m.coefficients)+1)
	params = append(params, m.intercept)
	return append(params, m.coefficients...)
}

// Clone はディープコピーを返す
func (m *Model) Clone() *Model {
	return NewModel(m.intercept, m.coefficients)
}

// IsFinite はすべてのパラメータが有限かどうかを返す
func (m *Model) IsFinite() bool {
	return errors.IsFinite(m.intercept) && errors.AllFinite(m.coefficients)
}

// Step は勾配降下の1ステップ param -= lr * grad をその場で適用する。
// grad の長さは係数の数と一致していなければならない。
func (m *Model) Step(coefficientGrad []float64, interceptGrad, learningRate float64) error {
	if len(coefficientGrad) != len(m.coefficients) {
		return errors.NewDimensionError("Model.Step", len(m.coefficients), len(coefficientGrad), 0)
	}
	m.intercept -= learningRate * interceptGrad
	if len(m.coefficients) > 0 {
		floats.AddScaled(m.coefficients, -learningRate, coefficientGrad)
	}
	return nil
}

// Score は table の targetIndex 列を目的変数として決定係数 R² を返す
func (m *Model) Score(table *dataset.Table, targetIndex int) (float64, error) {
	yTrue, yPred, err := m.predictTable("Model.Score", table, targetIndex)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yTrue, yPred)
}

// Evaluate は Score と同じ入力から R² 以外の指標も含めたレポートを返す
func (m *Model) Evaluate(table *dataset.Table, targetIndex int) (*metrics.Report, error) {
	yTrue, yPred, err := m.predictTable("Model.Evaluate", table, targetIndex)
	if err != nil {
		return nil, err
	}
	return metrics.Evaluate(yTrue, yPred)
}

func (m *Model) predictTable(op string, table *dataset.Table, targetIndex int) (*mat.VecDense, *mat.VecDense, error) {
	features, target, err := table.ExtractFeatureTarget(targetIndex)
	if err != nil {
		return nil, nil, err
	}
	if len(target) == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	predictions, err := m.PredictAll(features)
	if err != nil {
		return nil, nil, err
	}
	return mat.NewVecDense(len(target), target), mat.NewVecDense(len(predictions), predictions), nil
}

// ExportWeights は係数と切片を ModelWeights として書き出す。
// features には係数と同じ順序の特徴量名を渡す（nil 可）。
func (m *Model) ExportWeights(features []string) *model.ModelWeights {
	w := &model.ModelWeights{
		ModelType:       ModelType,
		Version:         model.CurrentWeightsVersion,
		Coefficients:    m.Coefficients(),
		Intercept:       m.intercept,
		Hyperparameters: map[string]interface{}{},
		Metadata:        map[string]interface{}{},
	}
	if features != nil {
		w.Features = append([]string{}, features...)
	}
	return w
}

// ImportWeights は ModelWeights からパラメータを読み込む。
// 係数の数はモデル生成時に固定されているため、一致しない場合は DimensionError を返す。
func (m *Model) ImportWeights(w *model.ModelWeights) error {
	if err := checkWeights("Model.ImportWeights", w); err != nil {
		return err
	}
	if len(w.Coefficients) != len(m.coefficients) {
		return errors.NewDimensionError("Model.ImportWeights", len(m.coefficients), len(w.Coefficients), 1)
	}

	m.intercept = w.Intercept
	copy(m.coefficients, w.Coefficients)
	return nil
}

// FromWeights は重みドキュメントの係数の数で新しいモデルを作成する
func FromWeights(w *model.ModelWeights) (*Model, error) {
	if err := checkWeights("linear.FromWeights", w); err != nil {
		return nil, err
	}
	return NewModel(w.Intercept, w.Coefficients), nil
}

func checkWeights(op string, w *model.ModelWeights) error {
	if w == nil {
		return errors.NewValueError(op, "weights are nil")
	}
	if w.ModelType != ModelType && w.ModelType != NormalEquationModelType {
		return errors.NewValueError(op,
			fmt.Sprintf("model type mismatch: expected %s, got %s", ModelType, w.ModelType))
	}
	if err := w.Validate(); err != nil {
		return errors.Wrap(err, "invalid weights")
	}
	if !errors.IsFinite(w.Intercept) || !errors.AllFinite(w.Coefficients) {
		return errors.NewValueError(op, "weights contain NaN or Inf")
	}
	return nil
}

// String はモデルを人が読める形式で返す
func (m *Model) String() string {
	return fmt.Sprintf("Model(intercept=%.6g, coefficients=%v)", m.intercept, m.coefficients)
}
