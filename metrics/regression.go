package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/sgdreg/pkg/errors"
)

// Report は回帰モデルの評価指標をまとめたもの
type Report struct {
	R2   float64 `json:"r2"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	SSR  float64 `json:"ssr"` // 残差平方和 Σ(yTrue - yPred)²
	SST  float64 `json:"sst"` // 全平方和 Σ(yTrue - mean(yTrue))²
	N    int     `json:"n"`
}

// String は1行の要約を返す
func (r *Report) String() string {
	return fmt.Sprintf("R2=%.6f MSE=%.6g RMSE=%.6g MAE=%.6g (n=%d)", r.R2, r.MSE, r.RMSE, r.MAE, r.N)
}

// checkPair は yTrue と yPred が空でなく同じ長さであることを確認する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yTrue.IsEmpty() {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred == nil || yPred.IsEmpty() {
		return 0, errors.NewDimensionError(op, n, 0, 0)
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}

	return sum / float64(n), nil
}

// ResidualSums は残差平方和 SSR と全平方和 SST を返す。
// yTrue が定数の場合、平均の丸め誤差に関係なく SST は厳密に0になる。
func ResidualSums(yTrue, yPred *mat.VecDense) (ssr, sst float64, err error) {
	n, err := checkPair("ResidualSums", yTrue, yPred)
	if err != nil {
		return 0, 0, err
	}

	y := mat.Col(nil, 0, yTrue)
	constant := floats.Min(y) == floats.Max(y)
	yMean := stat.Mean(y, nil)
	for i := 0; i < n; i++ {
		r := y[i] - yPred.AtVec(i)
		ssr += r * r
		if !constant {
			sst += (y[i] - yMean) * (y[i] - yMean)
		}
	}
	return ssr, sst, nil
}

// R2Score は決定係数 R² = 1 - SSR/SST を計算する。
// yTrue がすべて同じ値の場合は SST が0になるため DegenerateColumnError を返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	ssr, sst, err := ResidualSums(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if sst == 0 {
		return 0, errors.NewDegenerateColumnError("R2Score", -1, yTrue.AtVec(0))
	}
	return 1 - ssr/sst, nil
}

// Evaluate はすべての指標を一度に計算する
func Evaluate(yTrue, yPred *mat.VecDense) (*Report, error) {
	ssr, sst, err := ResidualSums(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if sst == 0 {
		return nil, errors.NewDegenerateColumnError("metrics.Evaluate", -1, yTrue.AtVec(0))
	}

	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	n := yTrue.Len()
	mse := ssr / float64(n)
	return &Report{
		R2:   1 - ssr/sst,
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		MAE:  mae,
		SSR:  ssr,
		SST:  sst,
		N:    n,
	}, nil
}
