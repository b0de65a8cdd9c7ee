package model

import (
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/YuminosukeSato/sgdreg/pkg/errors"
)

// SaveWeights は重みをJSONファイルに保存する。
// ファイル名が ".xz" で終わる場合は xz 圧縮して書き込む。
//
// 使用例:
//
//	w := m.ExportWeights(columns)
//	err := model.SaveWeights(w, "model.json.xz")
func SaveWeights(w *ModelWeights, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.NewIOError("model.SaveWeights", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("model.SaveWeights", filename, cerr)
		}
	}()

	if !strings.HasSuffix(filename, ".xz") {
		return SaveWeightsToWriter(w, file)
	}

	xw, err := xz.NewWriter(file)
	if err != nil {
		return errors.Wrap(err, "failed to create xz writer")
	}
	if err := SaveWeightsToWriter(w, xw); err != nil {
		return err
	}
	if err := xw.Close(); err != nil {
		return errors.NewIOError("model.SaveWeights", filename, err)
	}
	return nil
}

// SaveWeightsToWriter は重みをJSONとしてWriterに書き込む
func SaveWeightsToWriter(w *ModelWeights, out io.Writer) error {
	if err := w.Validate(); err != nil {
		return errors.Wrap(err, "invalid weights")
	}
	data, err := w.ToJSON()
	if err != nil {
		return errors.Wrap(err, "failed to encode weights")
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return errors.NewIOError("model.SaveWeightsToWriter", "", err)
	}
	return nil
}

// LoadWeights はJSONファイル（".xz" 圧縮も可）から重みを読み込む
func LoadWeights(filename string) (*ModelWeights, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.NewIOError("model.LoadWeights", filename, err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(filename, ".xz") {
		xr, err := xz.NewReader(file)
		if err != nil {
			return nil, errors.NewIOError("model.LoadWeights", filename, err)
		}
		r = xr
	}
	return LoadWeightsFromReader(r)
}

// LoadWeightsFromReader はReaderから重みを読み込み、妥当性を検証する
func LoadWeightsFromReader(r io.Reader) (*ModelWeights, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError("model.LoadWeightsFromReader", "", err)
	}
	w := &ModelWeights{}
	if err := w.FromJSON(data); err != nil {
		return nil, errors.Wrap(err, "failed to decode weights")
	}
	if err := w.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid weights")
	}
	return w, nil
}
