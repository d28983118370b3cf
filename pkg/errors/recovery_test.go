package errors

import (
	"context"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSafeExecute_GonumShapePanic(t *testing.T) {
	// a feature buffer one value short of rows*cols
	err := SafeExecute("StandardScaler.Fit", func() error {
		_ = mat.NewDense(2, 7, make([]float64, 13))
		return nil
	})
	require.Error(t, err)

	var pe *PanicError
	require.True(t, As(err, &pe))
	assert.Equal(t, "StandardScaler.Fit", pe.Operation)
	assert.True(t, Is(err, mat.ErrShape), "gonum panic value should stay reachable")
	assert.Contains(t, pe.String(), "Stack trace:")
	assert.NotEmpty(t, pe.StackTrace)
}

func TestSafeExecute_RuntimePanicInSplitSearch(t *testing.T) {
	err := SafeExecute("DecisionTreeRegressor.Fit", func() error {
		samples := []int{0, 1, 2}
		for i := 0; i <= len(samples); i++ {
			_ = samples[i]
		}
		return nil
	})

	var pe *PanicError
	require.True(t, As(err, &pe))
	_, isRuntime := pe.PanicValue.(runtime.Error)
	assert.True(t, isRuntime)
	assert.Contains(t, err.Error(), "panic in DecisionTreeRegressor.Fit: runtime error: index out of range")
}

func TestSafeExecute_PassesThrough(t *testing.T) {
	assert.NoError(t, SafeExecute("MedianImputer.Fit", func() error { return nil }))

	dataErr := NewRecordDataError(4, "salary", "missing label")
	err := SafeExecute("salary.Train", func() error { return dataErr })
	assert.Same(t, dataErr, err)

	var pe *PanicError
	assert.False(t, As(err, &pe))
}

func TestRecover_WrapsEarlierTrainingError(t *testing.T) {
	fit := func() (err error) {
		defer Recover(&err, "RandomForestRegressor.Fit")
		err = NewTrainingError("fit", context.Canceled)
		panic("tree 3: empty node")
	}

	err := fit()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in RandomForestRegressor.Fit: tree 3: empty node")
	assert.True(t, Is(err, context.Canceled))

	var te *TrainingError
	require.True(t, As(err, &te))
	assert.Equal(t, "fit", te.Stage)
}

func TestRecover_PanicValues(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		wantMsg string
		unwraps bool
	}{
		{"message", "forest has no trees", "panic in Predict: forest has no trees", false},
		{"node index", 42, "panic in Predict: 42", false},
		{"zero variance", ErrZeroVariance, "panic in Predict: zero variance in target", true},
		{"non-finite", math.Inf(1), "panic in Predict: +Inf", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predict := func() (err error) {
				defer Recover(&err, "Predict")
				panic(tt.value)
			}
			err := predict()

			var pe *PanicError
			require.True(t, As(err, &pe))
			assert.Equal(t, tt.value, pe.PanicValue)
			assert.Equal(t, tt.wantMsg, pe.Error())
			assert.Equal(t, tt.unwraps, pe.Unwrap() != nil)
		})
	}
}

func BenchmarkSafeExecute_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = SafeExecute("RandomForestRegressor.Predict", func() error { return nil })
	}
}
