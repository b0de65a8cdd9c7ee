package model

// Predictor は特徴量ベクトル1件から予測値を返すモデルのインターフェース
type Predictor interface {
	Predict(features []float64) (float64, error)
}

// ColumnTransformer は1列分の値から統計量を学習し、その列を変換するインターフェース。
// dataset.Table の列単位の変換（正規化、標準化）はこのインターフェースを通して行う。
type ColumnTransformer interface {
	// Fit は列の値から変換パラメータを学習する
	Fit(column []float64) error

	// Transform は学習済みパラメータで列の値を変換した新しいスライスを返す
	Transform(column []float64) ([]float64, error)
}

// WeightExporter は学習済みパラメータを ModelWeights として入出力できるモデル
type WeightExporter interface {
	ExportWeights(features []string) *ModelWeights
	ImportWeights(weights *ModelWeights) error
}
