// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// データ読み込み、勾配計算、学習ループの各段階で発生する失敗を型付きエラーとして表現し、
// cockroachdb/errors によるスタックトレースと zerolog による構造化ログ出力に対応します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("sgdreg-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は許容誤差付きの学習が反復回数の上限までに収束しなかった場合の警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iterations or adjusting the learning rate.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ===========================================================================
//
//	データ読み込みのエラー型
//
// ===========================================================================

// IOError はデータソースを開けない、または読み取れない場合のエラーです。
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("sgdreg: %s: cannot read %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("sgdreg: %s: cannot read source: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *IOError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		AnErr("cause", e.Err).
		Str("type", "IOError")
}

// NewIOError は新しいIOErrorを作成し、スタックトレースを付与します。
func NewIOError(op, path string, err error) error {
	return errors.WithStack(&IOError{Op: op, Path: path, Err: err})
}

// ParseError はセルの値を有限の数値として解釈できない場合のエラーです。
// Line は1始まりのレコード番号（ヘッダーが1行目）です。
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sgdreg: line %d, column %q: cannot parse %q as a finite number", e.Line, e.Column, e.Value)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ParseError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("line", e.Line).
		Str("column", e.Column).
		Str("value", e.Value).
		Str("type", "ParseError")
}

// NewParseError は新しいParseErrorを作成し、スタックトレースを付与します。
func NewParseError(line int, column, value string, cause error) error {
	return errors.WithStack(&ParseError{Line: line, Column: column, Value: value, Err: cause})
}

// SchemaError はレコードの列数がヘッダーの列数と一致しない場合のエラーです。
type SchemaError struct {
	Line     int
	Expected int
	Got      int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sgdreg: line %d: expected %d fields, got %d", e.Line, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("line", e.Line).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "SchemaError")
}

// NewSchemaError は新しいSchemaErrorを作成し、スタックトレースを付与します。
func NewSchemaError(line, expected, got int) error {
	return errors.WithStack(&SchemaError{Line: line, Expected: expected, Got: got})
}

// ===========================================================================
//
//	数値計算のエラー型
//
// ===========================================================================

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("sgdreg: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// EmptyBatchError は行数0のバッチが勾配計算に渡された場合のエラーです。
type EmptyBatchError struct {
	Op string
}

func (e *EmptyBatchError) Error() string {
	return fmt.Sprintf("sgdreg: %s: batch has no rows", e.Op)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *EmptyBatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("type", "EmptyBatchError")
}

// NewEmptyBatchError は新しいEmptyBatchErrorを作成し、スタックトレースを付与します。
func NewEmptyBatchError(op string) error {
	return errors.WithStack(&EmptyBatchError{Op: op})
}

// DegenerateColumnError は列の値がすべて同一で、正規化やR²の分母が0になる場合のエラーです。
type DegenerateColumnError struct {
	Op     string
	Column int
	Value  float64 // 列が取る唯一の値
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("sgdreg: %s: column %d is constant (%g); denominator would be zero", e.Op, e.Column, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("column", e.Column).
		Float64("value", e.Value).
		Str("type", "DegenerateColumnError")
}

// NewDegenerateColumnError は新しいDegenerateColumnErrorを作成し、スタックトレースを付与します。
func NewDegenerateColumnError(op string, column int, value float64) error {
	return errors.WithStack(&DegenerateColumnError{Op: op, Column: column, Value: value})
}

// DivergedError は学習中にパラメータが NaN または無限大になった場合のエラーです。
// Epoch と Batch はいずれも0始まりで、発散を検出した更新ステップを指します。
type DivergedError struct {
	Epoch  int
	Batch  int
	Values []float64 // 発散時点のパラメータ（切片、係数の順）
}

func (e *DivergedError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("sgdreg: training diverged at epoch %d, batch %d. Parameters: [%s]", e.Epoch, e.Batch, valStr)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DivergedError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("epoch", e.Epoch).
		Int("batch", e.Batch).
		Floats64("values", e.Values).
		Str("type", "DivergedError")
}

// NewDivergedError は新しいDivergedErrorを作成し、スタックトレースを付与します。
func NewDivergedError(epoch, batch int, values []float64) error {
	v := make([]float64, len(values))
	copy(v, values)
	return errors.WithStack(&DivergedError{Epoch: epoch, Batch: batch, Values: v})
}

// ===========================================================================
//
//	汎用のエラー型
//
// ===========================================================================

// NotFittedError は未学習の変換器やモデルで Transform や Predict を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("sgdreg: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sgdreg: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("sgdreg: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError はモデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sgdreg: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("sgdreg: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
