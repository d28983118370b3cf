package errors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCheckMatrix(t *testing.T) {
	tests := []struct {
		name    string
		data    []float64
		wantRow int
		wantCol int
		wantErr bool
	}{
		{"finite features", []float64{3, 1, 4.2, 2, 0, 5, 1.5, 3.8}, 0, 0, false},
		{"inf experience", []float64{3, 1, 4.2, 2, math.Inf(1), 5, 1.5, 3.8}, 1, 0, true},
		{"nan after imputation", []float64{3, 1, 4.2, 2, 0, 5, 1.5, math.NaN()}, 1, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMatrix("RandomForestRegressor.Predict", mat.NewDense(2, 4, tt.data))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ni *NumericalInstabilityError
			require.True(t, As(err, &ni))
			assert.Equal(t, "RandomForestRegressor.Predict", ni.Operation)
			assert.Equal(t, tt.wantRow, ni.Context["row"])
			assert.Equal(t, tt.wantCol, ni.Context["col"])
		})
	}
}

func TestCheckFinite(t *testing.T) {
	assert.NoError(t, CheckFinite("DecisionTreeRegressor.Fit", []float64{850000, 1200000, 640000}))

	err := CheckFinite("DecisionTreeRegressor.Fit", []float64{850000, math.Inf(-1)})
	var ni *NumericalInstabilityError
	require.True(t, As(err, &ni))
	assert.Equal(t, 1, ni.Context["index"])
}

func TestSafeDivideAndClip(t *testing.T) {
	assert.Equal(t, 0.0, SafeDivide(1, 0))
	assert.Equal(t, 0.0, SafeDivide(1, 1e-12))
	assert.InDelta(t, 1.0/7, SafeDivide(1, 7), 1e-12)

	assert.Equal(t, 0.60, ClipValue(1.0/7, 0.60, 0.95))
	assert.Equal(t, 0.95, ClipValue(1.2, 0.60, 0.95))
	assert.Equal(t, 0.8, ClipValue(0.8, 0.60, 0.95))
}
