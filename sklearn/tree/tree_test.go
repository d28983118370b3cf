package tree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

// TestDecisionTreeRegressor_StepFunction tests that a single split recovers a step
func TestDecisionTreeRegressor_StepFunction(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{5, 5, 5, 20, 20, 20})

	dt := NewDecisionTreeRegressor(WithMaxDepth(3))
	require.NoError(t, dt.Fit(X, y))

	assert.Equal(t, 3, dt.NodeCount())
	assert.Equal(t, 2, dt.NLeaves())
	assert.Equal(t, 1, dt.Depth())

	root := dt.Nodes()[0]
	assert.Equal(t, 0, root.Feature)
	assert.Equal(t, 6.5, root.Threshold)

	preds, err := dt.Predict(mat.NewDense(3, 1, []float64{0, 6.5, 100}))
	require.NoError(t, err)
	assert.Equal(t, 5.0, preds.At(0, 0))
	assert.Equal(t, 5.0, preds.At(1, 0), "threshold value goes left")
	assert.Equal(t, 20.0, preds.At(2, 0))
}

func TestDecisionTreeRegressor_FeatureImportances(t *testing.T) {
	// feature 1 is noise-free signal, feature 0 is constant
	X := mat.NewDense(8, 2, []float64{
		7, 1,
		7, 2,
		7, 3,
		7, 4,
		7, 5,
		7, 6,
		7, 7,
		7, 8,
	})
	y := mat.NewDense(8, 1, []float64{1, 1, 2, 2, 3, 3, 4, 4})

	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))

	imp, err := dt.FeatureImportances()
	require.NoError(t, err)
	assert.Equal(t, 0.0, imp[0])
	assert.InDelta(t, 1.0, imp[1], 1e-12)

	// fully grown tree reproduces the training targets
	preds, err := dt.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		assert.Equal(t, y.At(i, 0), preds.At(i, 0))
	}
}

func TestDecisionTreeRegressor_ConstantTarget(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{9, 9, 9, 9})

	dt := NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, 1, dt.NodeCount())

	imp, err := dt.FeatureImportances()
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, imp)
}

func TestDecisionTreeRegressor_MaxDepthAndMinLeaf(t *testing.T) {
	X := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})

	dt := NewDecisionTreeRegressor(WithMaxDepth(2))
	require.NoError(t, dt.Fit(X, y))
	assert.Equal(t, 2, dt.Depth())
	assert.LessOrEqual(t, dt.NLeaves(), 4)

	leafy := NewDecisionTreeRegressor(WithMinSamplesLeaf(3))
	require.NoError(t, leafy.Fit(X, y))
	for _, n := range leafy.Nodes() {
		if n.IsLeaf() {
			assert.GreaterOrEqual(t, n.NSamples, 3)
		}
	}
}

func TestDecisionTreeRegressor_FitSamplesWithDuplicates(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{10, 20, 30, 40})

	dt := NewDecisionTreeRegressor(WithMaxDepth(1))
	require.NoError(t, dt.FitSamples(X, y, []int{0, 0, 0, 3}))

	root := dt.Nodes()[0]
	assert.Equal(t, 4, root.NSamples)
	assert.InDelta(t, 17.5, root.Value, 1e-12)

	err := dt.FitSamples(X, y, []int{0, 9})
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))
}

func TestDecisionTreeRegressor_Determinism(t *testing.T) {
	X := mat.NewDense(10, 3, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i%3))
		X.Set(i, 1, float64(i*i%7))
		X.Set(i, 2, math.Sin(float64(i)))
		y.Set(i, 0, float64(i*3+i%2))
	}

	a := NewDecisionTreeRegressor(WithMaxFeatures(2), WithRandomState(7))
	b := NewDecisionTreeRegressor(WithMaxFeatures(2), WithRandomState(7))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	assert.Equal(t, a.Nodes(), b.Nodes())
}

func TestDecisionTreeRegressor_Errors(t *testing.T) {
	dt := NewDecisionTreeRegressor()

	_, err := dt.Predict(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	_, err = dt.FeatureImportances()
	assert.Error(t, err)

	err = dt.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{1, 2}))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))

	err = dt.Fit(mat.NewDense(2, 1, []float64{1, math.NaN()}), mat.NewDense(2, 1, []float64{1, 2}))
	var num *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &num))

	bad := NewDecisionTreeRegressor(WithMinSamplesSplit(1))
	err = bad.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, 2}))
	var val *errors.ValidationError
	assert.True(t, errors.As(err, &val))

	require.NoError(t, dt.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4}), mat.NewDense(2, 1, []float64{1, 2})))
	_, err = dt.Predict(mat.NewDense(1, 3, nil))
	assert.True(t, errors.As(err, &dim))
}
