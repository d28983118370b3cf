package salary

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/pkg/errors"
	"github.com/YuminosukeSato/salaryml/preprocessing"
)

// FeatureEncoder turns records into the numeric feature matrix.
// It is immutable once returned by FitTransform; the zero value is unfitted
// and Transform on it returns a NotFittedError.
type FeatureEncoder struct {
	encoders map[string]*preprocessing.LabelEncoder
	imputer  *preprocessing.MedianImputer
	columns  []string
}

// FitTransform fits one label encoder per categorical column and the median
// imputer on the numeric columns, and returns the encoded training matrix.
func FitTransform(records []Record) (*mat.Dense, *FeatureEncoder, error) {
	if len(records) == 0 {
		return nil, nil, errors.NewDataError("empty training batch")
	}

	enc := &FeatureEncoder{
		encoders: make(map[string]*preprocessing.LabelEncoder, len(CategoricalColumns)),
		imputer:  preprocessing.NewMedianImputer(),
		columns:  FeatureColumns(),
	}

	numeric := numericMatrix(records)
	if err := enc.imputer.Fit(numeric); err != nil {
		return nil, nil, err
	}

	values := make([]string, len(records))
	for _, col := range CategoricalColumns {
		for i := range records {
			values[i] = records[i].categorical(col)
		}
		le := preprocessing.NewLabelEncoder(col)
		if err := le.Fit(values); err != nil {
			return nil, nil, err
		}
		enc.encoders[col] = le
	}

	X, _, err := enc.Transform(records)
	if err != nil {
		return nil, nil, err
	}
	return X, enc, nil
}

// Transform encodes records with the fitted encoders. Unseen categorical
// values become preprocessing.UnseenCategory; a column without an encoder
// encodes as 0; a missing numeric takes the training median. The second
// return value lists the columns where unseen values occurred.
func (e *FeatureEncoder) Transform(records []Record) (*mat.Dense, []string, error) {
	if e.imputer == nil {
		return nil, nil, errors.NewNotFittedError("FeatureEncoder", "Transform")
	}
	n := len(records)
	if n == 0 {
		return &mat.Dense{}, nil, nil
	}
	X := mat.NewDense(n, len(e.columns), nil)

	imputed, err := e.imputer.Transform(numericMatrix(records))
	if err != nil {
		return nil, nil, errors.Wrap(err, "impute numeric columns")
	}
	for j := range NumericColumns {
		for i := 0; i < n; i++ {
			X.Set(i, j, imputed.At(i, j))
		}
	}

	var unseen []string
	values := make([]string, n)
	for k, col := range CategoricalColumns {
		j := len(NumericColumns) + k
		le, ok := e.encoders[col]
		if !ok {
			continue
		}
		for i := range records {
			values[i] = records[i].categorical(col)
		}
		codes, err := le.Transform(values)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "encode column %s", col)
		}
		hit := false
		for i, c := range codes {
			X.Set(i, j, float64(c))
			if c == preprocessing.UnseenCategory {
				hit = true
			}
		}
		if hit {
			unseen = append(unseen, col)
		}
	}
	return X, unseen, nil
}

// Columns returns the ordered feature column names.
func (e *FeatureEncoder) Columns() []string {
	out := make([]string, len(e.columns))
	copy(out, e.columns)
	return out
}

// EncodedAttributes lists the categorical columns that have a fitted encoder.
func (e *FeatureEncoder) EncodedAttributes() []string {
	out := make([]string, 0, len(e.encoders))
	for _, col := range CategoricalColumns {
		if _, ok := e.encoders[col]; ok {
			out = append(out, col)
		}
	}
	return out
}

// Classes returns the vocabulary of one categorical column in code order.
func (e *FeatureEncoder) Classes(column string) []string {
	if le, ok := e.encoders[column]; ok {
		return le.Classes()
	}
	return nil
}

// Medians returns the training medians of the numeric columns.
func (e *FeatureEncoder) Medians() map[string]float64 {
	if e.imputer == nil {
		return nil
	}
	out := make(map[string]float64, len(NumericColumns))
	for j, col := range NumericColumns {
		out[col] = e.imputer.Medians[j]
	}
	return out
}

func numericMatrix(records []Record) *mat.Dense {
	if len(records) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(records), len(NumericColumns), nil)
	for i := range records {
		m.SetRow(i, records[i].numeric())
	}
	return m
}

// alignColumns reorders the columns of X from the "from" layout into the
// "to" layout. Columns of "to" missing in "from" are filled with 0; extra
// columns are dropped.
func alignColumns(X mat.Matrix, from, to []string) *mat.Dense {
	rows, _ := X.Dims()
	pos := make(map[string]int, len(from))
	for j, c := range from {
		pos[c] = j
	}
	out := mat.NewDense(rows, len(to), nil)
	for j, c := range to {
		src, ok := pos[c]
		if !ok {
			continue
		}
		for i := 0; i < rows; i++ {
			out.Set(i, j, X.At(i, src))
		}
	}
	return out
}
