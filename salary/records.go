// Package salary implements the trainable salary prediction pipeline:
// categorical encoding, median imputation, scaling, and a random-forest
// regressor with a heuristic confidence score.
package salary

import (
	"math"

	"github.com/YuminosukeSato/salaryml/pkg/errors"
)

// Column names, in the order used by the feature matrix.
const (
	ColExperienceYears   = "experience_years"
	ColPerformanceRating = "performance_rating"
	ColCertifications    = "certifications"
	ColDepartment        = "department"
	ColDesignation       = "designation"
	ColEducationLevel    = "education_level"
	ColLocation          = "location"
	ColCurrentSalary     = "current_salary"

	encodedSuffix = "_encoded"
)

// NumericColumns lists the numeric features.
var NumericColumns = []string{ColExperienceYears, ColPerformanceRating, ColCertifications}

// CategoricalColumns lists the categorical features that get a label encoder.
var CategoricalColumns = []string{ColDepartment, ColDesignation, ColEducationLevel, ColLocation}

// FeatureColumns returns the ordered feature column names:
// the numeric columns followed by "<categorical>_encoded".
func FeatureColumns() []string {
	cols := make([]string, 0, len(NumericColumns)+len(CategoricalColumns))
	cols = append(cols, NumericColumns...)
	for _, c := range CategoricalColumns {
		cols = append(cols, c+encodedSuffix)
	}
	return cols
}

// Record is one employee. It is used both for training (CurrentSalary set)
// and for inference (CurrentSalary ignored). A missing numeric attribute is NaN.
// Certifications is a count and must be a whole number.
type Record struct {
	Department        string
	Designation       string
	ExperienceYears   float64
	PerformanceRating float64
	EducationLevel    string
	Certifications    float64
	Location          string
	CurrentSalary     *float64
}

// Salary returns a pointer to v, for filling Record.CurrentSalary.
func Salary(v float64) *float64 { return &v }

func (r *Record) numeric() []float64 {
	return []float64{r.ExperienceYears, r.PerformanceRating, r.Certifications}
}

func (r *Record) categorical(col string) string {
	switch col {
	case ColDepartment:
		return r.Department
	case ColDesignation:
		return r.Designation
	case ColEducationLevel:
		return r.EducationLevel
	default:
		return r.Location
	}
}

// validateTrainingBatch checks labels and value domains before any fitting.
func validateTrainingBatch(records []Record) error {
	if len(records) == 0 {
		return errors.NewDataError("empty training batch")
	}
	for i := range records {
		r := &records[i]
		if r.CurrentSalary == nil {
			return errors.NewRecordDataError(i, ColCurrentSalary, "missing label")
		}
		if math.IsNaN(*r.CurrentSalary) || math.IsInf(*r.CurrentSalary, 0) {
			return errors.NewRecordDataError(i, ColCurrentSalary, "label is not finite")
		}
		for j, v := range r.numeric() {
			if math.IsInf(v, 0) {
				return errors.NewRecordDataError(i, NumericColumns[j], "value is not finite")
			}
		}
		if r.ExperienceYears < 0 {
			return errors.NewRecordDataError(i, ColExperienceYears, "must be >= 0")
		}
		if r.Certifications < 0 {
			return errors.NewRecordDataError(i, ColCertifications, "must be >= 0")
		}
		if !wholeOrMissing(r.Certifications) {
			return errors.NewRecordDataError(i, ColCertifications, "must be a whole number")
		}
	}
	return nil
}

// validateInferenceRecord rejects values that cannot be encoded at all.
// NaN is allowed and means "missing".
func validateInferenceRecord(r *Record) error {
	for j, v := range r.numeric() {
		if math.IsInf(v, 0) {
			return errors.NewEncodingError(NumericColumns[j], "value is not finite", v)
		}
	}
	if !wholeOrMissing(r.Certifications) {
		return errors.NewEncodingError(ColCertifications, "must be a whole number", r.Certifications)
	}
	return nil
}

// wholeOrMissing reports whether v is NaN or has no fractional part.
func wholeOrMissing(v float64) bool {
	return math.IsNaN(v) || v == math.Trunc(v)
}
