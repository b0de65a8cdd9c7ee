package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sgdreg/pkg/errors"
)

// NormalEquationModelType は FitNormalEquation で得たモデルの重みに付ける種別
const NormalEquationModelType = "NormalEquation"

// FitNormalEquation は正規方程式 w = (X^T * X)^(-1) * X^T * y で最小二乗解を求める。
// SGD の結果と比較するための基準として使う。
// X は特徴量のみ（切片の列は含めない）。特徴量が無い場合は nil を渡せる。
func FitNormalEquation(X *mat.Dense, y *mat.VecDense) (*Model, error) {
	if y == nil || y.IsEmpty() {
		return nil, errors.NewModelError("FitNormalEquation", "empty data", errors.ErrEmptyData)
	}
	r := y.Len()

	c := 0
	if X != nil {
		var rx int
		rx, c = X.Dims()
		if rx != r {
			return nil, errors.NewDimensionError("FitNormalEquation", r, rx, 0)
		}
	}

	// 切片項のために X に 1 の列を追加
	// X_with_intercept = [1, X]
	XWithIntercept := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		XWithIntercept.Set(i, 0, 1.0)
		for j := 0; j < c; j++ {
			XWithIntercept.Set(i, j+1, X.At(i, j))
		}
	}

	// X^T * X
	var XTX mat.Dense
	XTX.Mul(XWithIntercept.T(), XWithIntercept)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return nil, errors.NewModelError("FitNormalEquation", "singular matrix", errors.ErrSingularMatrix)
	}

	// X^T * y
	var XTy mat.VecDense
	XTy.MulVec(XWithIntercept.T(), y)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)

	// 切片と重みを分離
	coefficients := make([]float64, c)
	for j := range coefficients {
		coefficients[j] = weights.AtVec(j + 1)
	}

	m := NewModel(weights.AtVec(0), coefficients)
	if !m.IsFinite() {
		return nil, errors.NewModelError("FitNormalEquation", "singular matrix", errors.ErrSingularMatrix)
	}
	return m, nil
}
