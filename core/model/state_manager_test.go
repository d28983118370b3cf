package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("RandomForestRegressor", "Predict")
	require.Error(t, err)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	s.SetDimensions(7, 160)
	s.SetFitted()
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequireFeatures("RandomForestRegressor", "Predict", 7))

	err = s.RequireFeatures("RandomForestRegressor", "Predict", 5)
	var dim *errors.DimensionError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 7, dim.Expected)
	assert.Equal(t, 5, dim.Got)

	s.Reset()
	f, n := s.GetDimensions()
	assert.False(t, s.IsFitted())
	assert.Zero(t, f)
	assert.Zero(t, n)
}

func TestStateManagerConcurrentAccess(t *testing.T) {
	s := NewStateManager()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.SetDimensions(i, i*10)
			s.SetFitted()
		}(i)
		go func() {
			defer wg.Done()
			_ = s.IsFitted()
			_, _ = s.GetDimensions()
		}()
	}
	wg.Wait()
	assert.True(t, s.IsFitted())
}

func TestBaseEstimator(t *testing.T) {
	e := NewBaseEstimator("MedianImputer")
	assert.False(t, e.IsFitted())

	var nf *errors.NotFittedError
	err := e.CheckColumns("Transform", 7)
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "MedianImputer", nf.ModelName)
	assert.Equal(t, "Transform", nf.Method)

	e.MarkFitted(7)
	assert.True(t, e.IsFitted())
	assert.Equal(t, 7, e.NFeaturesIn())
	assert.NoError(t, e.CheckColumns("Transform", 7))

	var dim *errors.DimensionError
	require.True(t, errors.As(e.CheckColumns("Transform", 5), &dim))
	assert.Equal(t, 7, dim.Expected)
	assert.Equal(t, 5, dim.Got)

	e.Reset()
	assert.False(t, e.IsFitted())
	assert.Zero(t, e.NFeaturesIn())
}

func TestBaseEstimator_ZeroValueName(t *testing.T) {
	var e BaseEstimator
	var nf *errors.NotFittedError
	require.True(t, errors.As(e.CheckFitted("Encode"), &nf))
	assert.Equal(t, "estimator", nf.ModelName)
}
