package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

func salaries(v ...float64) *mat.VecDense { return mat.NewVecDense(len(v), v) }

func TestRegression_SalaryHoldout(t *testing.T) {
	actual := salaries(800000, 1200000, 650000, 1500000)
	predicted := salaries(850000, 1150000, 700000, 1400000)

	r, err := Regression(actual, predicted)
	require.NoError(t, err)

	// residuals: -50k, 50k, -50k, 100k
	assert.InDelta(t, 4.375e9, r.MSE, 1e-3)
	assert.InDelta(t, math.Sqrt(4.375e9), r.RMSE, 1e-6)
	assert.InDelta(t, 62500.0, r.MAE, 1e-9)
	// mean 1,037,500; TSS = 4.46875e11, RSS = 1.75e10
	assert.InDelta(t, 1-1.75e10/4.46875e11, r.R2, 1e-12)

	// each metric on its own agrees with the report
	mse, err := MSE(actual, predicted)
	require.NoError(t, err)
	assert.Equal(t, r.MSE, mse)
	rmse, err := RMSE(actual, predicted)
	require.NoError(t, err)
	assert.Equal(t, r.RMSE, rmse)
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name      string
		actual    *mat.VecDense
		predicted *mat.VecDense
		want      float64
	}{
		{
			name:      "exact estimates",
			actual:    salaries(450000, 900000, 1350000),
			predicted: salaries(450000, 900000, 1350000),
			want:      1,
		},
		{
			name:      "always the mean salary",
			actual:    salaries(450000, 900000, 1350000),
			predicted: salaries(900000, 900000, 900000),
			want:      0,
		},
		{
			// TSS = 2e10, RSS = 8e10
			name:      "estimates swapped",
			actual:    salaries(500000, 700000),
			predicted: salaries(700000, 500000),
			want:      -3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(tt.actual, tt.predicted)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestR2Score_ZeroVarianceHoldout(t *testing.T) {
	// every held-out employee earns the same
	actual := salaries(600000, 600000, 600000)
	predicted := salaries(590000, 600000, 610000)

	_, err := R2Score(actual, predicted)
	assert.True(t, errors.Is(err, errors.ErrZeroVariance))

	_, err = Regression(actual, predicted)
	assert.True(t, errors.Is(err, errors.ErrZeroVariance))

	// MSE and MAE remain defined
	mse, err := MSE(actual, predicted)
	require.NoError(t, err)
	assert.InDelta(t, 2e8/3, mse, 1e-6)
}

func TestRegressionMetrics_InvalidInput(t *testing.T) {
	metricFuncs := map[string]func(yTrue, yPred *mat.VecDense) (float64, error){
		"MSE":     MSE,
		"RMSE":    RMSE,
		"MAE":     MAE,
		"R2Score": R2Score,
	}
	for name, fn := range metricFuncs {
		t.Run(name+"/length mismatch", func(t *testing.T) {
			_, err := fn(salaries(500000, 700000, 900000), salaries(500000, 700000))
			var dim *errors.DimensionError
			require.True(t, errors.As(err, &dim))
			assert.Equal(t, 3, dim.Expected)
			assert.Equal(t, 2, dim.Got)
		})
		t.Run(name+"/empty", func(t *testing.T) {
			_, err := fn(&mat.VecDense{}, &mat.VecDense{})
			var ve *errors.ValueError
			assert.True(t, errors.As(err, &ve))
		})
	}

	_, err := Regression(salaries(1), salaries(1, 2))
	assert.Error(t, err)
}

func BenchmarkRegression_Holdout(b *testing.B) {
	// the 40-record hold-out of a 200-record training batch
	actual := mat.NewVecDense(40, nil)
	predicted := mat.NewVecDense(40, nil)
	for i := 0; i < 40; i++ {
		actual.SetVec(i, 400000+float64(i)*25000)
		predicted.SetVec(i, 410000+float64(i)*24000)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Regression(actual, predicted)
	}
}
