package model

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sgdreg/pkg/errors"
)

func sampleWeights() *ModelWeights {
	return &ModelWeights{
		ModelType:    "SGDLinearRegression",
		Version:      CurrentWeightsVersion,
		Coefficients: []float64{2.0001, -0.5},
		Intercept:    0.9998,
		Features:     []string{"power", "player"},
		Hyperparameters: map[string]interface{}{
			"learning_rate": 0.01,
		},
		Metadata: map[string]interface{}{
			"epochs": 500.0,
		},
	}
}

func TestSaveLoadWeights(t *testing.T) {
	for _, name := range []string{"model.json", "model.json.xz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			want := sampleWeights()

			require.NoError(t, SaveWeights(want, path))
			got, err := LoadWeights(path)
			require.NoError(t, err)

			// 重みは完全に一致すること
			assert.Equal(t, want.Coefficients, got.Coefficients)
			assert.Equal(t, want.Intercept, got.Intercept)
			assert.Equal(t, want.Features, got.Features)
			assert.Equal(t, 0.01, got.Hyperparameters["learning_rate"])
		})
	}
}

func TestLoadWeightsMissingFile(t *testing.T) {
	_, err := LoadWeights(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(w *ModelWeights)
		wantErr string
	}{
		{"valid", func(w *ModelWeights) {}, ""},
		{"missing type", func(w *ModelWeights) { w.ModelType = "" }, "model_type"},
		{"missing version", func(w *ModelWeights) { w.Version = "" }, "version"},
		{"feature count", func(w *ModelWeights) { w.Features = []string{"a"} }, "features"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := sampleWeights()
			tt.modify(w)
			err := w.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveWeightsToWriterRejectsInvalid(t *testing.T) {
	w := sampleWeights()
	w.Version = ""
	var buf bytes.Buffer
	assert.Error(t, SaveWeightsToWriter(w, &buf))
	assert.Zero(t, buf.Len())
}

func TestLoadWeightsFromReaderBadJSON(t *testing.T) {
	_, err := LoadWeightsFromReader(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	w := sampleWeights()
	c := w.Clone()
	c.Coefficients[0] = 42
	c.Metadata["epochs"] = 1.0

	assert.Equal(t, 2.0001, w.Coefficients[0])
	assert.Equal(t, 500.0, w.Metadata["epochs"])
}
