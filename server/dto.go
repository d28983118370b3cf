package server

import (
	"math"
	"time"

	"github.com/YuminosukeSato/salaryml/salary"
)

// EmployeeJSON is the wire form of salary.Record. Absent numeric fields
// decode to nil and become NaN (missing) in the record.
type EmployeeJSON struct {
	Department        string   `json:"department"`
	Designation       string   `json:"designation"`
	ExperienceYears   *float64 `json:"experience_years" validate:"omitempty,gte=0"`
	PerformanceRating *float64 `json:"performance_rating"`
	EducationLevel    string   `json:"education_level"`
	Certifications    *float64 `json:"certifications" validate:"omitempty,gte=0,whole"`
	Location          string   `json:"location"`
	CurrentSalary     *float64 `json:"current_salary,omitempty"`
}

// Record converts the payload into a domain record.
func (e EmployeeJSON) Record() salary.Record {
	return salary.Record{
		Department:        e.Department,
		Designation:       e.Designation,
		ExperienceYears:   orNaN(e.ExperienceYears),
		PerformanceRating: orNaN(e.PerformanceRating),
		EducationLevel:    e.EducationLevel,
		Certifications:    orNaN(e.Certifications),
		Location:          e.Location,
		CurrentSalary:     e.CurrentSalary,
	}
}

func employeeJSON(r salary.Record) EmployeeJSON {
	return EmployeeJSON{
		Department:        r.Department,
		Designation:       r.Designation,
		ExperienceYears:   finite(r.ExperienceYears),
		PerformanceRating: finite(r.PerformanceRating),
		EducationLevel:    r.EducationLevel,
		Certifications:    finite(r.Certifications),
		Location:          r.Location,
		CurrentSalary:     r.CurrentSalary,
	}
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// TrainRequest is the body of POST /train.
type TrainRequest struct {
	Employees []EmployeeJSON `json:"employees" validate:"required,dive"`
}

// PredictRequest is the body of POST /predict. TargetYear is accepted and ignored.
type PredictRequest struct {
	EmployeeData *EmployeeJSON `json:"employee_data" validate:"required"`
	TargetYear   *int          `json:"target_year,omitempty"`
}

// TrainResponse is returned by POST /train.
type TrainResponse struct {
	Status  string                 `json:"status"`
	Metrics *salary.TrainingResult `json:"metrics"`
}

// SampleResponse is returned by POST /generate-sample-data.
type SampleResponse struct {
	Message        string         `json:"message"`
	DataPoints     int            `json:"data_points"`
	TrainingResult TrainResponse  `json:"training_result"`
	SampleRecords  []EmployeeJSON `json:"sample_records"`
}

// StatusResponse is returned by GET /model/status.
type StatusResponse struct {
	IsTrained         bool                   `json:"is_trained"`
	FeatureColumns    []string               `json:"feature_columns"`
	AvailableEncoders []string               `json:"available_encoders"`
	Metrics           *salary.TrainingResult `json:"metrics,omitempty"`
	TrainedAt         *time.Time             `json:"trained_at,omitempty"`
}

func statusResponse(st salary.Status) StatusResponse {
	resp := StatusResponse{
		IsTrained:         st.IsTrained,
		FeatureColumns:    st.FeatureColumns,
		AvailableEncoders: st.EncoderAttributes,
		Metrics:           st.Metrics,
	}
	if st.IsTrained {
		t := st.TrainedAt
		resp.TrainedAt = &t
	}
	return resp
}

// MarketTrends summarizes salary movement across the organisation.
type MarketTrends struct {
	AverageIncrease float64 `json:"average_increase"`
	MedianSalary    float64 `json:"median_salary"`
	GrowthRate      float64 `json:"growth_rate"`
}

// SalaryInsights is returned by GET /analytics/salary-insights.
// ModelFactors holds the trained forest's importances in percent and is
// omitted until a model is trained.
type SalaryInsights struct {
	MarketTrends      MarketTrends       `json:"market_trends"`
	SkillDemand       map[string]float64 `json:"skill_demand"`
	FactorsImportance map[string]float64 `json:"factors_importance"`
	ModelFactors      map[string]float64 `json:"model_factors,omitempty"`
}

func baselineInsights() SalaryInsights {
	return SalaryInsights{
		MarketTrends: MarketTrends{AverageIncrease: 8.5, MedianSalary: 65000, GrowthRate: 12.3},
		SkillDemand: map[string]float64{
			"technical_skills":  85,
			"leadership_skills": 75,
			"domain_expertise":  80,
		},
		FactorsImportance: map[string]float64{
			"experience":     30,
			"performance":    25,
			"certifications": 20,
			"education":      15,
			"other":          10,
		},
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
