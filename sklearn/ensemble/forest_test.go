package ensemble

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

func linearData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i % 17)
		x1 := float64((i * 7) % 11)
		x2 := float64(i % 2)
		X.SetRow(i, []float64{x0, x1, x2})
		y.Set(i, 0, 1000*x0+10*x1+math.Mod(float64(i), 3))
	}
	return X, y
}

func TestRandomForestRegressor_FitPredict(t *testing.T) {
	X, y := linearData(120)

	rf := NewRandomForestRegressor().WithNEstimators(30).WithMaxDepth(8).WithRandomState(42)
	require.NoError(t, rf.Fit(X, y))
	assert.True(t, rf.IsFitted())
	assert.Len(t, rf.Estimators(), 30)

	score, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.95)

	imp, err := rf.FeatureImportances()
	require.NoError(t, err)
	require.Len(t, imp, 3)
	var sum float64
	for _, v := range imp {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, imp[0], imp[1])
	assert.Greater(t, imp[0], imp[2])
}

func TestRandomForestRegressor_Deterministic(t *testing.T) {
	X, y := linearData(80)

	fit := func(jobs int) ([]float64, []float64) {
		rf := NewRandomForestRegressor().WithNEstimators(20).WithMaxDepth(10).WithRandomState(42).WithNJobs(jobs)
		require.NoError(t, rf.Fit(X, y))
		preds, err := rf.Predict(X)
		require.NoError(t, err)
		imp, err := rf.FeatureImportances()
		require.NoError(t, err)
		return mat.Col(nil, 0, preds), imp
	}

	p1, i1 := fit(1)
	p2, i2 := fit(8)
	assert.Equal(t, p1, p2, "predictions must not depend on worker count")
	assert.Equal(t, i1, i2)
}

func TestRandomForestRegressor_PredictionsWithinTargetRange(t *testing.T) {
	X, y := linearData(60)
	rf := NewRandomForestRegressor().WithNEstimators(10).WithRandomState(1)
	require.NoError(t, rf.Fit(X, y))

	query := mat.NewDense(2, 3, []float64{
		-100, -100, -100,
		1e6, 1e6, 1e6,
	})
	preds, err := rf.Predict(query)
	require.NoError(t, err)

	lo, hi := mat.Min(y), mat.Max(y)
	for i := 0; i < 2; i++ {
		assert.GreaterOrEqual(t, preds.At(i, 0), lo)
		assert.LessOrEqual(t, preds.At(i, 0), hi)
	}
}

func TestRandomForestRegressor_NoBootstrapSingleTree(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{10, 20, 30, 40})

	rf := NewRandomForestRegressor().WithNEstimators(1).WithBootstrap(false)
	require.NoError(t, rf.Fit(X, y))

	preds, err := rf.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.Equal(t, y.At(i, 0), preds.At(i, 0))
	}
}

func TestRandomForestRegressor_ConstantTargetImportances(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	y := mat.NewDense(5, 1, []float64{3, 3, 3, 3, 3})

	rf := NewRandomForestRegressor().WithNEstimators(5)
	require.NoError(t, rf.Fit(X, y))

	imp, err := rf.FeatureImportances()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, imp)
}

func TestRandomForestRegressor_Errors(t *testing.T) {
	rf := NewRandomForestRegressor()

	_, err := rf.Predict(mat.NewDense(1, 3, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = rf.WithNEstimators(0).Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	err = NewRandomForestRegressor().Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(3, 1, []float64{1, 2, 3}))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestRandomForestRegressor_CancelledContext(t *testing.T) {
	X, y := linearData(30)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rf := NewRandomForestRegressor().WithNEstimators(10)
	err := rf.FitContext(ctx, X, y)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, rf.IsFitted())
}

func BenchmarkRandomForestRegressor_Fit(b *testing.B) {
	X, y := linearData(200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rf := NewRandomForestRegressor().WithMaxDepth(10).WithRandomState(42)
		_ = rf.Fit(X, y)
	}
}

func BenchmarkRandomForestRegressor_PredictOne(b *testing.B) {
	X, y := linearData(200)
	rf := NewRandomForestRegressor().WithMaxDepth(10).WithRandomState(42)
	if err := rf.Fit(X, y); err != nil {
		b.Fatal(err)
	}
	row := mat.NewDense(1, 3, []float64{4, 5, 1})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = rf.Predict(row)
	}
}
