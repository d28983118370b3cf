package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"odd", []float64{5, 1, 3}, 3},
		{"even averages middle pair", []float64{4, 1, 2, 3}, 2.5},
		{"single", []float64{7.5}, 7.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Median(tt.values))
		})
	}
}

func TestMedianImputer(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(4, 3, []float64{
		1, nan, nan,
		nan, 4, nan,
		3, 6, nan,
		5, nan, nan,
	})

	imp := NewMedianImputer()
	out, err := imp.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 5, 0}, imp.Medians)
	assert.Equal(t, 3.0, out.At(1, 0))
	assert.Equal(t, 5.0, out.At(0, 1))
	assert.Equal(t, 0.0, out.At(2, 2))
	// original untouched
	assert.True(t, math.IsNaN(X.At(1, 0)))

	_, err = imp.Transform(mat.NewDense(1, 2, nil))
	assert.Error(t, err)
}
