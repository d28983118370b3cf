// Package model_selection はデータ分割のユーティリティを提供する
package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

// SplitIndices は0..n-1をシード付きで並べ替え、テスト用と学習用の行番号に分ける。
// テスト件数は ceil(testSize·n)。どちらかが空になる場合はエラー。
func SplitIndices(n int, testSize float64, seed uint64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, errors.NewValueError("SplitIndices",
			fmt.Sprintf("n_samples=%d with test_size=%g leaves an empty partition", n, testSize))
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// TrainTestSplit は行列XとyをSplitIndicesの結果に従って分割する
//
// 使用例:
//
//	XTrain, XTest, yTrain, yTest, err := model_selection.TrainTestSplit(X, y, 0.2, 42)
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed uint64) (XTrain, XTest, yTrain, yTest *mat.Dense, err error) {
	rows, _ := X.Dims()
	yRows, _ := y.Dims()
	if rows != yRows {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", rows, yRows, 0)
	}

	train, test, err := SplitIndices(rows, testSize, seed)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return TakeRows(X, train), TakeRows(X, test), TakeRows(y, train), TakeRows(y, test), nil
}

// TakeRows は指定した行だけを順番に集めた新しい行列を返す
func TakeRows(m mat.Matrix, rows []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	buf := make([]float64, c)
	for i, r := range rows {
		mat.Row(buf, r, m)
		out.SetRow(i, buf)
	}
	return out
}
