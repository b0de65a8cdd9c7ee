package model

import (
	"encoding/json"
	"fmt"
)

// CurrentWeightsVersion は ModelWeights の書式バージョン
const CurrentWeightsVersion = "1.0"

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（SGDLinearRegression, NormalEquation 等）
	ModelType string `json:"model_type"`

	// Version は書式のバージョン（互換性チェック用）
	Version string `json:"version"`

	// Coefficients は重み係数
	Coefficients []float64 `json:"coefficients"`

	// Intercept は切片
	Intercept float64 `json:"intercept"`

	// Features は特徴量の名前（オプション）
	Features []string `json:"features,omitempty"`

	// Hyperparameters は学習時のハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`

	// Metadata は学習結果の付随情報（エポック数、最終損失、R² 等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, mw)
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}
	if mw.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(mw.Features) > 0 && len(mw.Features) != len(mw.Coefficients) {
		return fmt.Errorf("features has %d names for %d coefficients", len(mw.Features), len(mw.Coefficients))
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		Intercept:       mw.Intercept,
		Coefficients:    append([]float64(nil), mw.Coefficients...),
		Features:        append([]string(nil), mw.Features...),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}
