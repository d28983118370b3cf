package model

import "gonum.org/v1/gonum/mat"

// Transformer は数値データ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ColumnEncoder は1つのカテゴリ列を整数コードに変換するインターフェース
type ColumnEncoder interface {
	// Fit は出現したカテゴリ値の語彙を学習する
	Fit(values []string) error

	// Encode は1つの値をコードに変換する。未知の値はセンチネルになる
	Encode(value string) (int, bool)

	// Classes は学習済みの語彙をコード順に返す
	Classes() []string
}
