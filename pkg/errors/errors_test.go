package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Trainer.Train",
			kind:    "empty data",
			err:     ErrEmptyData,
			wantMsg: "sgdreg: Trainer.Train: empty data: empty data",
		},
		{
			name:    "without original error",
			op:      "Model.Predict",
			kind:    "no coefficients",
			err:     nil,
			wantMsg: "sgdreg: Model.Predict: no coefficients",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
			if tt.err != nil && !Is(err, tt.err) {
				t.Errorf("Is(err, %v) = false, want true", tt.err)
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Model.Predict", 3, 2, 1)

	want := "sgdreg: Model.Predict: dimension mismatch on axis 1 (features). Expected 3, got 2"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Expected != 3 || dimErr.Got != 2 {
		t.Errorf("unexpected fields: %+v", dimErr)
	}
}

func TestLoadErrors(t *testing.T) {
	cause := fmt.Errorf("no such file")

	ioErr := NewIOError("dataset.LoadFile", "data.csv", cause)
	if !Is(ioErr, cause) {
		t.Error("IOError should unwrap to its cause")
	}
	if !strings.Contains(ioErr.Error(), `"data.csv"`) {
		t.Errorf("IOError message should name the path: %v", ioErr)
	}

	parseErr := NewParseError(3, "power", "abc", nil)
	var pe *ParseError
	if !As(parseErr, &pe) {
		t.Fatal("Error should be castable to *ParseError")
	}
	if pe.Line != 3 || pe.Column != "power" || pe.Value != "abc" {
		t.Errorf("unexpected fields: %+v", pe)
	}

	schemaErr := NewSchemaError(4, 3, 2)
	want := "sgdreg: line 4: expected 3 fields, got 2"
	if schemaErr.Error() != want {
		t.Errorf("Error() = %v, want %v", schemaErr.Error(), want)
	}
}

func TestDivergedErrorMessage(t *testing.T) {
	values := []float64{math.NaN(), 1, 2, 3, 4, 5, 6}
	err := NewDivergedError(7, 2, values)

	msg := err.Error()
	if !strings.Contains(msg, "epoch 7, batch 2") {
		t.Errorf("message should contain epoch and batch: %s", msg)
	}
	if !strings.Contains(msg, "...") {
		t.Errorf("long parameter lists should be truncated: %s", msg)
	}

	// 呼び出し側のスライスを変更しても影響しない
	values[1] = 100
	var de *DivergedError
	if !As(err, &de) {
		t.Fatal("Error should be castable to *DivergedError")
	}
	if de.Values[1] != 1 {
		t.Errorf("DivergedError must keep its own copy of values, got %v", de.Values[1])
	}
}

func TestCheckParameters(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{"finite", []float64{0.5, -1, 3}, false},
		{"empty", nil, false},
		{"nan", []float64{0.5, math.NaN()}, true},
		{"positive inf", []float64{math.Inf(1)}, true},
		{"negative inf", []float64{1, math.Inf(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckParameters(1, 0, tt.values)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckParameters() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	params := []float64{1e308, -1e308}
	err := CheckScalar(3, math.Inf(1), params)
	var de *DivergedError
	if !As(err, &de) {
		t.Fatalf("CheckScalar should reject Inf with a DivergedError, got %v", err)
	}
	if de.Epoch != 3 || de.Batch != -1 || len(de.Values) != 2 {
		t.Errorf("unexpected DivergedError fields: %+v", de)
	}
	if err := CheckScalar(3, 0.25, params); err != nil {
		t.Errorf("CheckScalar(0.25) = %v, want nil", err)
	}
}

func TestMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var de *DegenerateColumnError
	if !As(NewDegenerateColumnError("NormalizeColumn", 2, 7), &de) {
		t.Fatal("Error should be castable to *DegenerateColumnError")
	}
	logger.Error().Object("error", de).Msg("normalize failed")

	out := buf.String()
	for _, want := range []string{`"type":"DegenerateColumnError"`, `"column":2`, `"operation":"NormalizeColumn"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s should contain %s", out, want)
		}
	}
}

func TestWarnUsesZerologFunc(t *testing.T) {
	var got error
	SetZerologWarnFunc(func(w error) { got = w })
	defer SetZerologWarnFunc(nil)

	w := NewConvergenceWarning("SGD", 10, "")
	Warn(w)

	if got != w {
		t.Errorf("Warn should route to the zerolog function, got %v", got)
	}
	if !strings.Contains(w.Error(), "failed to converge after 10 iterations") {
		t.Errorf("unexpected warning message: %s", w.Error())
	}
}

func TestRecover(t *testing.T) {
	t.Run("panic becomes PanicError", func(t *testing.T) {
		f := func() (err error) {
			defer Recover(&err, "Trainer.Train")
			panic("index out of range")
		}
		err := f()

		var panicErr *PanicError
		if !As(err, &panicErr) {
			t.Fatalf("Expected PanicError, got %T", err)
		}
		if panicErr.Operation != "Trainer.Train" {
			t.Errorf("Expected operation 'Trainer.Train', got '%s'", panicErr.Operation)
		}
		if panicErr.StackTrace == "" {
			t.Error("Expected non-empty stack trace")
		}
	})

	t.Run("no panic keeps result", func(t *testing.T) {
		f := func() (err error) {
			defer Recover(&err, "op")
			return nil
		}
		if err := f(); err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	})

	t.Run("existing error is kept as cause", func(t *testing.T) {
		f := func() (err error) {
			defer Recover(&err, "op")
			err = ErrEmptyData
			panic("boom")
		}
		err := f()
		if !Is(err, ErrEmptyData) {
			t.Errorf("Expected wrapped ErrEmptyData, got %v", err)
		}
		if !strings.Contains(err.Error(), "panic in op: boom") {
			t.Errorf("unexpected message: %v", err)
		}
	})
}
