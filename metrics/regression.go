// Package metrics はホールドアウト集合に対する回帰指標を提供する
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

// checkPair は実測値と予測値が空でなく同じ長さであることを確かめる
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// residuals は yTrue - yPred
func residuals(yTrue, yPred *mat.VecDense) *mat.VecDense {
	var r mat.VecDense
	r.SubVec(yTrue, yPred)
	return &r
}

// MSE は平均二乗誤差
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	r := residuals(yTrue, yPred)
	return mat.Dot(r, r) / float64(n), nil
}

// RMSE は平均二乗誤差の平方根。給与と同じ単位になる。
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return mat.Norm(residuals(yTrue, yPred), 1) / float64(n), nil
}

// R2Score は決定係数 1 - RSS/TSS。
// yTrue が定数（TSS = 0）のときは定義できないので ErrZeroVariance を返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	truth := mat.Col(nil, 0, yTrue)
	mean := stat.Mean(truth, nil)
	var tss float64
	for _, v := range truth {
		tss += (v - mean) * (v - mean)
	}
	if tss == 0 {
		return 0, errors.Wrap(errors.ErrZeroVariance, "R2Score: total sum of squares is zero")
	}

	r := residuals(yTrue, yPred)
	return 1 - mat.Dot(r, r)/tss, nil
}

// RegressionReport はホールドアウト集合に対する回帰指標の組
type RegressionReport struct {
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// Regression はMSE・RMSE・MAE・R²をまとめて計算する。
// R²が定義できない場合（yTrueの分散が0）はエラーを返す。
func Regression(yTrue, yPred *mat.VecDense) (RegressionReport, error) {
	var (
		r   RegressionReport
		err error
	)
	if r.MSE, err = MSE(yTrue, yPred); err != nil {
		return RegressionReport{}, err
	}
	r.RMSE = math.Sqrt(r.MSE)
	if r.MAE, err = MAE(yTrue, yPred); err != nil {
		return RegressionReport{}, err
	}
	if r.R2, err = R2Score(yTrue, yPred); err != nil {
		return RegressionReport{}, err
	}
	return r, nil
}
