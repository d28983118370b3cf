package errors

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// divideEpsilon より小さい分母は 0 とみなす
const divideEpsilon = 1e-10

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// CheckMatrix は X の最初の非有限値（NaN/±Inf）を探し、見つかれば
// 行・列を Context に入れた NumericalInstabilityError を返す。
// 特徴量行列は学習・推論の前に補完済みなので NaN も不正値として扱う。
func CheckMatrix(operation string, X mat.Matrix) error {
	rows, cols := X.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := X.At(i, j); !finite(v) {
				return instabilityAt(operation, v, map[string]interface{}{"row": i, "col": j})
			}
		}
	}
	return nil
}

// CheckFinite は目的変数などの1次元列を検査する
func CheckFinite(operation string, values []float64) error {
	for i, v := range values {
		if !finite(v) {
			return instabilityAt(operation, v, map[string]interface{}{"index": i})
		}
	}
	return nil
}

func instabilityAt(operation string, v float64, ctx map[string]interface{}) error {
	return WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    []float64{v},
		Context:   ctx,
	})
}

// SafeDivide は分母がほぼ 0 のとき 0 を返す除算
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < divideEpsilon {
		return 0
	}
	return numerator / denominator
}

// ClipValue は value を [lo, hi] に収める
func ClipValue(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(value, hi))
}
