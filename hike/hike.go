// Package hike は実績ベースの昇給率を決定的なルールで計算する。
// 学習済みモデルを使わない純粋関数で、状態を持たない。
package hike

import (
	"fmt"
	"math"
)

// 各要素の上限と配点
const (
	ExperiencePerYear   = 2.0
	MaxExperienceHike   = 10.0
	PerformanceBaseline = 3.0
	PerformanceSlope    = 7.5
	CertificationEach   = 3.0
	MaxCertHike         = 12.0
	MaxHikePercentage   = 25.0

	// UnknownDepartment は部署が分からない従業員に使う部署名
	UnknownDepartment = "Unknown"
)

// Factor names used in Breakdown and FactorsAnalysis.
const (
	FactorExperience     = "Experience"
	FactorPerformance    = "Performance"
	FactorAttendance     = "Attendance"
	FactorCertifications = "Certifications"
	FactorDepartment     = "Department Factor"
)

// DepartmentMultipliers は部署ごとの昇給倍率。表にない部署は 1.0。
var DepartmentMultipliers = map[string]float64{
	"Engineering":     1.2,
	"Data Science":    1.2,
	"IT Support":      1.0,
	"Management":      1.1,
	"Sales":           1.1,
	"HR":              0.9,
	"Finance":         1.0,
	"Marketing":       1.0,
	"Operations":      0.9,
	UnknownDepartment: 0.8,
}

// Input は昇給計算の入力。ゼロ値はすべて「記録なし」を意味する。
type Input struct {
	Department        string  `json:"department"`
	ExperienceYears   float64 `json:"experience_years" validate:"gte=0"`
	PerformanceRating float64 `json:"performance_rating" validate:"gte=0,lte=5"`
	AttendanceRate    float64 `json:"attendance_rate" validate:"gte=0,lte=100"`
	Certifications    float64 `json:"certifications" validate:"gte=0,whole"`
	CurrentSalary     float64 `json:"current_salary" validate:"gte=0"`
}

// Range is the interval around the new salary.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Indicators はダッシュボード表示用の0-100スコア
type Indicators struct {
	HikeEligibility    float64 `json:"hike_eligibility"`
	AttendanceScore    float64 `json:"attendance_score"`
	CertificationScore float64 `json:"certification_score"`
	PerformanceScore   float64 `json:"performance_score"`
}

// Result は昇給計算の結果
type Result struct {
	CurrentSalary        float64            `json:"current_salary"`
	PredictedSalary      float64            `json:"predicted_salary"`
	HikePercentage       float64            `json:"recommended_hike_percentage"`
	HikeAmount           float64            `json:"hike_amount"`
	SalaryRange          Range              `json:"salary_range"`
	ConfidenceScore      float64            `json:"confidence_score"`
	DepartmentMultiplier float64            `json:"department_multiplier"`
	Breakdown            map[string]float64 `json:"hike_breakdown"`
	FactorsAnalysis      map[string]float64 `json:"factors_analysis"`
	Eligible             bool               `json:"eligible"`
	EligibilityStatus    string             `json:"eligibility_status"`
	Recommendations      []string           `json:"recommendations"`
	NextReview           []string           `json:"next_review_recommendations"`
	RiskFactors          []string           `json:"risk_factors"`
	Indicators           Indicators         `json:"performance_indicators"`
}

// DepartmentMultiplier は部署の倍率を返す
func DepartmentMultiplier(department string) float64 {
	if m, ok := DepartmentMultipliers[department]; ok {
		return m
	}
	return 1.0
}

// ExperienceHike は経験年数1年につき2%、最大10%
func ExperienceHike(years float64) float64 {
	if years <= 0 {
		return 0
	}
	return math.Min(years*ExperiencePerYear, MaxExperienceHike)
}

// PerformanceHike は評価3.0を超えた分に7.5%/点
func PerformanceHike(rating float64) float64 {
	if rating <= PerformanceBaseline {
		return 0
	}
	return (rating - PerformanceBaseline) * PerformanceSlope
}

// AttendanceHike は出勤率 >90: 8%, >80: 5%, >60: 2%
func AttendanceHike(rate float64) float64 {
	switch {
	case rate > 90:
		return 8
	case rate > 80:
		return 5
	case rate > 60:
		return 2
	default:
		return 0
	}
}

// CertificationHike は資格1つにつき3%、最大12%
func CertificationHike(certs float64) float64 {
	if certs <= 0 {
		return 0
	}
	return math.Min(certs*CertificationEach, MaxCertHike)
}

// Calculate computes the hike recommendation for one employee.
func Calculate(in Input) Result {
	breakdown := map[string]float64{
		FactorExperience:     ExperienceHike(in.ExperienceYears),
		FactorPerformance:    PerformanceHike(in.PerformanceRating),
		FactorAttendance:     AttendanceHike(in.AttendanceRate),
		FactorCertifications: CertificationHike(in.Certifications),
	}
	base := breakdown[FactorExperience] + breakdown[FactorPerformance] +
		breakdown[FactorAttendance] + breakdown[FactorCertifications]

	mult := DepartmentMultiplier(in.Department)
	pct := math.Min(base*mult, MaxHikePercentage)
	amount := in.CurrentSalary * pct / 100
	newSalary := in.CurrentSalary + amount

	factors := make(map[string]float64, len(breakdown)+1)
	for k, v := range breakdown {
		factors[k] = v
	}
	factors[FactorDepartment] = (mult - 1) * 100

	res := Result{
		CurrentSalary:        in.CurrentSalary,
		PredictedSalary:      math.RoundToEven(newSalary),
		HikePercentage:       roundTo(pct, 1),
		HikeAmount:           math.RoundToEven(amount),
		DepartmentMultiplier: mult,
		Breakdown:            breakdown,
		FactorsAnalysis:      factors,
		Eligible:             pct > 0,
		SalaryRange: Range{
			Min: math.RoundToEven(in.CurrentSalary + amount*0.8),
			Max: math.RoundToEven(in.CurrentSalary + amount*1.2),
		},
		ConfidenceScore: roundTo(confidence(pct, completeness(in)), 1),
		Indicators:      indicators(in, pct),
	}
	res.EligibilityStatus = "not_eligible"
	if res.Eligible {
		res.EligibilityStatus = "eligible"
	}
	res.Recommendations, res.NextReview = recommendations(in, breakdown[FactorAttendance])
	res.RiskFactors = riskFactors(in)
	return res
}

// completeness は記録のある項目の割合（0〜1）
func completeness(in Input) float64 {
	present := 0
	for _, ok := range []bool{
		in.ExperienceYears > 0,
		in.PerformanceRating > 0,
		in.Certifications > 0,
		in.AttendanceRate > 0,
		in.Department != UnknownDepartment,
	} {
		if ok {
			present++
		}
	}
	return float64(present) / 5
}

func confidence(pct, completeness float64) float64 {
	var c float64
	switch {
	case pct > 10:
		c = 75 + completeness*20
	case pct > 5:
		c = 60 + completeness*20
	case pct > 0:
		c = 50 + completeness*15
	default:
		c = 30 + completeness*10
	}
	return math.Max(math.Min(c, 95), 25)
}

func recommendations(in Input, attendanceHike float64) (recs, next []string) {
	recs, next = []string{}, []string{}

	switch {
	case in.Certifications == 0:
		recs = append(recs, fmt.Sprintf("Add technical certifications to unlock up to %.0f%% salary hike (currently missing %.0f%% potential)", MaxCertHike, MaxCertHike))
		next = append(next, "Obtain 2-3 relevant certifications")
	case in.Certifications < 3:
		missing := 4 - in.Certifications
		recs = append(recs, fmt.Sprintf("Add %g more certifications to gain additional %g%% salary hike", missing, missing*CertificationEach))
		next = append(next, fmt.Sprintf("Complete %g additional certifications", missing))
	}

	switch {
	case in.AttendanceRate == 0:
		recs = append(recs, "Establish consistent attendance record to qualify for up to 8% attendance-based hike")
		next = append(next, "Maintain 90%+ attendance for 6 months")
	case in.AttendanceRate < 80:
		recs = append(recs, fmt.Sprintf("Improve attendance to 90%%+ to gain additional %g%% salary hike", 8-attendanceHike))
		next = append(next, "Achieve 90%+ attendance consistently")
	}

	if in.PerformanceRating <= PerformanceBaseline {
		recs = append(recs, "Improve performance rating above 3.0 to unlock performance-based salary increases (up to 15%)")
		next = append(next, "Work on performance improvement plan")
	}

	if in.ExperienceYears == 0 {
		recs = append(recs, "Gain experience in current role - each year adds ~2% to your hike eligibility")
		next = append(next, "Complete 1 year of service for experience-based hike")
	}
	return recs, next
}

func riskFactors(in Input) []string {
	risks := []string{}
	switch {
	case in.AttendanceRate == 0:
		risks = append(risks, "No attendance record - significant barrier to salary hike approval")
	case in.AttendanceRate < 60:
		risks = append(risks, "Poor attendance may disqualify you from salary hike considerations")
	}
	if in.Certifications == 0 {
		risks = append(risks, "Lack of certifications reduces hike eligibility in competitive market")
	}
	if in.PerformanceRating <= 2.5 {
		risks = append(risks, "Below-average performance rating may result in hike denial")
	}
	if in.ExperienceYears == 0 && in.AttendanceRate == 0 {
		risks = append(risks, "New employee with no performance history - hike eligibility very limited")
	}
	return risks
}

func indicators(in Input, pct float64) Indicators {
	ind := Indicators{
		HikeEligibility:    math.Min(100, pct*4),
		AttendanceScore:    math.Max(in.AttendanceRate, 0),
		CertificationScore: math.Min(100, in.Certifications*25),
	}
	if in.PerformanceRating > 0 {
		ind.PerformanceScore = math.Max(20, math.Min(100, in.PerformanceRating*20))
	}
	return ind
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
