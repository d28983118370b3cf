package preprocessing

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/salaryml/core/model"
	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

// UnseenCategory は学習時に存在しなかったカテゴリ値に割り当てるコード
const UnseenCategory = -1

// LabelEncoder は1つのカテゴリ列の値を整数コードに変換する。
// コードは学習時に観測した値を辞書順に並べたときの位置（0始まり）。
// 空文字列も通常の値として扱う。
type LabelEncoder struct {
	model.BaseEstimator

	// Column はエンコード対象の列名（警告メッセージに使う）
	Column string

	classes []string
	index   map[string]int
}

// NewLabelEncoder は列名を指定してLabelEncoderを作成する
func NewLabelEncoder(column string) *LabelEncoder {
	return &LabelEncoder{BaseEstimator: model.NewBaseEstimator("LabelEncoder"), Column: column}
}

// Fit は観測された値の語彙を学習する。
// 再度呼び出すと語彙は置き換えられる。
func (e *LabelEncoder) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", fmt.Sprintf("column '%s'", e.Column), errors.ErrEmptyData)
	}

	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, v := range classes {
		index[v] = i
	}

	e.classes = classes
	e.index = index
	e.MarkFitted(0)
	return nil
}

// Encode は1つの値のコードを返す。未知の値は (UnseenCategory, false)。
// 警告は発生させない。
func (e *LabelEncoder) Encode(value string) (int, bool) {
	code, ok := e.index[value]
	if !ok {
		return UnseenCategory, false
	}
	return code, true
}

// Transform は値の列をコードの列に変換する。
// 未知の値はUnseenCategoryになり、値ごとにUnseenCategoryWarningを発生させる。
func (e *LabelEncoder) Transform(values []string) ([]int, error) {
	if err := e.CheckFitted("Transform"); err != nil {
		return nil, err
	}
	codes := make([]int, len(values))
	for i, v := range values {
		code, ok := e.Encode(v)
		if !ok {
			errors.Warn(errors.NewUnseenCategoryWarning(e.Column, v, UnseenCategory))
		}
		codes[i] = code
	}
	return codes, nil
}

// FitTransform はFitとTransformを同時に実行する
func (e *LabelEncoder) FitTransform(values []string) ([]int, error) {
	if err := e.Fit(values); err != nil {
		return nil, err
	}
	return e.Transform(values)
}

// InverseTransform はコードを元の値に戻す
func (e *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if err := e.CheckFitted("InverseTransform"); err != nil {
		return nil, err
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(e.classes) {
			return nil, errors.NewValidationError("code", "out of range for "+e.Column, c)
		}
		out[i] = e.classes[c]
	}
	return out, nil
}

// Classes は学習済みの語彙をコード順に返す
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

var _ model.ColumnEncoder = (*LabelEncoder)(nil)
