package model

import "github.com/YuminosukeSato/salaryml/pkg/errors"

// BaseEstimator は前処理器に埋め込む学習状態。
// 推定器名と学習時の列数を保持し、未学習・列数不一致を型付きエラーにする。
// 同期は行わない。並行に使う推定器は StateManager を使う。
type BaseEstimator struct {
	name      string
	fitted    bool
	nFeatures int
}

// NewBaseEstimator は name をエラーメッセージに使う BaseEstimator を返す
func NewBaseEstimator(name string) BaseEstimator {
	return BaseEstimator{name: name}
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool { return e.fitted }

// MarkFitted は学習完了と学習時の列数を記録する。
// 列を持たない推定器（LabelEncoder）は 0 を渡す。
func (e *BaseEstimator) MarkFitted(nFeatures int) {
	e.fitted = true
	e.nFeatures = nFeatures
}

// NFeaturesIn は学習時の列数
func (e *BaseEstimator) NFeaturesIn() int { return e.nFeatures }

// Reset はモデルを未学習に戻す
func (e *BaseEstimator) Reset() {
	e.fitted = false
	e.nFeatures = 0
}

// CheckFitted は未学習なら NotFittedError を返す
func (e *BaseEstimator) CheckFitted(method string) error {
	if !e.fitted {
		return errors.NewNotFittedError(e.estimatorName(), method)
	}
	return nil
}

// CheckColumns は CheckFitted に加えて cols が学習時の列数と一致するか検証する
func (e *BaseEstimator) CheckColumns(method string, cols int) error {
	if err := e.CheckFitted(method); err != nil {
		return err
	}
	if cols != e.nFeatures {
		return errors.NewDimensionError(e.estimatorName()+"."+method, e.nFeatures, cols, 1)
	}
	return nil
}

func (e *BaseEstimator) estimatorName() string {
	if e.name == "" {
		return "estimator"
	}
	return e.name
}
