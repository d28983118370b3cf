package salary

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/pkg/errors"
	"github.com/YuminosukeSato/salaryml/preprocessing"
)

func smallBatch() []Record {
	return []Record{
		{Department: "Sales", Designation: "Junior", ExperienceYears: 1, PerformanceRating: 3, EducationLevel: "Bachelor", Certifications: 0, Location: "Remote", CurrentSalary: Salary(60000)},
		{Department: "Engineering", Designation: "Senior", ExperienceYears: 5, PerformanceRating: math.NaN(), EducationLevel: "Master", Certifications: 2, Location: "Austin", CurrentSalary: Salary(110000)},
		{Department: "HR", Designation: "Lead", ExperienceYears: 9, PerformanceRating: 4, EducationLevel: "PhD", Certifications: 4, Location: "Remote", CurrentSalary: Salary(150000)},
	}
}

func TestFeatureColumns_Order(t *testing.T) {
	assert.Equal(t, []string{
		"experience_years", "performance_rating", "certifications",
		"department_encoded", "designation_encoded", "education_level_encoded", "location_encoded",
	}, FeatureColumns())
}

func TestFeatureEncoder_FitTransform(t *testing.T) {
	X, enc, err := FitTransform(smallBatch())
	require.NoError(t, err)

	r, c := X.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 7, c)

	assert.Equal(t, []string{"Engineering", "HR", "Sales"}, enc.Classes(ColDepartment))
	assert.Equal(t, []string{"Austin", "Remote"}, enc.Classes(ColLocation))
	assert.Nil(t, enc.Classes("unknown"))
	assert.Equal(t, CategoricalColumns, enc.EncodedAttributes())

	// Sales -> 2, Engineering -> 0, HR -> 1
	assert.Equal(t, []float64{2, 0, 1}, mat.Col(nil, 3, X))

	// missing performance_rating takes the median of 3 and 4
	assert.Equal(t, 3.5, enc.Medians()[ColPerformanceRating])
	assert.Equal(t, 3.5, X.At(1, 1))
}

func TestFeatureEncoder_TransformUnseen(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(w error) {})

	_, enc, err := FitTransform(smallBatch())
	require.NoError(t, err)
	warnings = nil

	X, unseen, err := enc.Transform([]Record{{
		Department:        "NeverSeenDept",
		Designation:       "Senior",
		ExperienceYears:   math.NaN(),
		PerformanceRating: 4,
		EducationLevel:    "PhD",
		Certifications:    1,
		Location:          "Remote",
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{ColDepartment}, unseen)
	assert.Equal(t, float64(preprocessing.UnseenCategory), X.At(0, 3))
	assert.Equal(t, 5.0, X.At(0, 0), "missing experience takes the training median")
	require.Len(t, warnings, 1)

	var w *errors.UnseenCategoryWarning
	require.True(t, errors.As(warnings[0], &w))
	assert.Equal(t, "NeverSeenDept", w.Value)
}

func TestFeatureEncoder_TransformEmpty(t *testing.T) {
	_, enc, err := FitTransform(smallBatch())
	require.NoError(t, err)

	X, unseen, err := enc.Transform(nil)
	require.NoError(t, err)
	assert.True(t, X.IsEmpty())
	assert.Nil(t, unseen)
}

func TestFeatureEncoder_ZeroValue(t *testing.T) {
	var enc FeatureEncoder

	X, unseen, err := enc.Transform(smallBatch())
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "FeatureEncoder", nf.ModelName)
	assert.Nil(t, X)
	assert.Nil(t, unseen)
	assert.Nil(t, enc.Medians())
}

func TestFeatureEncoder_TransformPropagatesEncoderError(t *testing.T) {
	_, enc, err := FitTransform(smallBatch())
	require.NoError(t, err)
	enc.encoders[ColLocation] = preprocessing.NewLabelEncoder(ColLocation)

	X, _, err := enc.Transform(smallBatch())
	require.Error(t, err)
	assert.Nil(t, X)
	assert.Contains(t, err.Error(), "encode column location")

	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestFitTransform_Empty(t *testing.T) {
	_, _, err := FitTransform(nil)
	var de *errors.DataError
	assert.True(t, errors.As(err, &de))
}

func TestAlignColumns(t *testing.T) {
	X := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	out := alignColumns(X, []string{"a", "b", "c"}, []string{"c", "x", "a"})

	r, c := out.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []float64{3, 0, 1}, out.RawRowView(0))
	assert.Equal(t, []float64{6, 0, 4}, out.RawRowView(1))
}

func TestValidateTrainingBatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Record)
		field  string
	}{
		{"missing label", func(r *Record) { r.CurrentSalary = nil }, ColCurrentSalary},
		{"nan label", func(r *Record) { r.CurrentSalary = Salary(math.NaN()) }, ColCurrentSalary},
		{"negative experience", func(r *Record) { r.ExperienceYears = -1 }, ColExperienceYears},
		{"negative certifications", func(r *Record) { r.Certifications = -2 }, ColCertifications},
		{"infinite rating", func(r *Record) { r.PerformanceRating = math.Inf(1) }, ColPerformanceRating},
		{"fractional certifications", func(r *Record) { r.Certifications = 2.5 }, ColCertifications},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := smallBatch()
			tt.mutate(&batch[1])

			err := validateTrainingBatch(batch)
			var de *errors.DataError
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, 1, de.Record)
			assert.Equal(t, tt.field, de.Field)
		})
	}

	assert.NoError(t, validateTrainingBatch(smallBatch()))
}

func TestValidateInferenceRecord(t *testing.T) {
	r := Record{ExperienceYears: math.NaN()}
	assert.NoError(t, validateInferenceRecord(&r))

	r.Certifications = math.NaN()
	assert.NoError(t, validateInferenceRecord(&r), "missing certifications are imputed")

	r.Certifications = 2.5
	var ee *errors.EncodingError
	require.True(t, errors.As(validateInferenceRecord(&r), &ee))
	assert.Equal(t, ColCertifications, ee.Field)

	r.Certifications = math.Inf(-1)
	assert.True(t, errors.As(validateInferenceRecord(&r), &ee))
}
