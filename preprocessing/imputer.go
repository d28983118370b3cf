package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/core/model"
	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

// MedianImputer は欠損値（NaN）を列ごとの中央値で置き換える。
// 偶数個のときは中央2値の平均を使う。
// 全要素が欠損の列の中央値は0とする。
type MedianImputer struct {
	model.BaseEstimator

	// Medians は学習データから求めた列ごとの中央値
	Medians []float64
}

// NewMedianImputer は新しいMedianImputerを作成する
func NewMedianImputer() *MedianImputer {
	return &MedianImputer{BaseEstimator: model.NewBaseEstimator("MedianImputer")}
}

// Fit は各列の非欠損値の中央値を計算する
func (m *MedianImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MedianImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	m.Medians = make([]float64, c)
	buf := make([]float64, 0, r)
	for j := 0; j < c; j++ {
		buf = buf[:0]
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}
		m.Medians[j] = Median(buf)
	}

	m.MarkFitted(c)
	return nil
}

// Transform は欠損値を学習済みの中央値で置き換えた新しい行列を返す
func (m *MedianImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := m.CheckColumns("Transform", c); err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, errors.NewValueError("MedianImputer.Transform", "empty data")
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			return m.Medians[j]
		}
		return v
	}, X)
	return out, nil
}

// FitTransform はFitとTransformを同時に実行する
func (m *MedianImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// Median はvaluesの中央値を返す（valuesは並べ替えられる）。空なら0。
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sort.Float64s(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

var (
	_ model.Transformer = (*MedianImputer)(nil)
	_ model.Transformer = (*StandardScaler)(nil)
)
