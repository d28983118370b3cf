package salary

import (
	"math"
	"math/rand/v2"
)

// Vocabularies used by GenerateSampleData.
var (
	SampleDepartments     = []string{"Engineering", "Sales", "Marketing", "HR", "Finance", "Operations"}
	SampleDesignations    = []string{"Junior", "Senior", "Lead", "Manager", "Director", "VP"}
	SampleEducationLevels = []string{"Bachelor", "Master", "PhD", "Diploma"}
	SampleLocations       = []string{"New York", "San Francisco", "Austin", "Remote", "Chicago"}
)

// designation -> (base, per year of experience)
var designationScale = map[string][2]float64{
	"Junior":   {60000, 3000},
	"Senior":   {80000, 4000},
	"Lead":     {100000, 5000},
	"Manager":  {120000, 6000},
	"Director": {150000, 7000},
	"VP":       {200000, 8000},
}

var sampleDeptMultiplier = map[string]float64{
	"Engineering": 1.2, "Sales": 1.1, "Marketing": 1.0,
	"HR": 0.9, "Finance": 1.1, "Operations": 1.0,
}

var sampleEducationMultiplier = map[string]float64{
	"Bachelor": 1.0, "Master": 1.1, "PhD": 1.2, "Diploma": 0.9,
}

// GenerateSampleData returns n synthetic labelled records. The same seed
// always yields the same records.
func GenerateSampleData(n int, seed uint64) []Record {
	rng := rand.New(rand.NewPCG(seed, seed))
	pick := func(xs []string) string { return xs[rng.IntN(len(xs))] }
	uniform := func(lo, hi float64) float64 { return lo + (hi-lo)*rng.Float64() }

	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		dept := pick(SampleDepartments)
		designation := pick(SampleDesignations)
		education := pick(SampleEducationLevels)
		location := pick(SampleLocations)

		experience := uniform(0, 15)
		performance := uniform(2.5, 5.0)
		certs := float64(rng.IntN(8))

		scale := designationScale[designation]
		salary := scale[0] + experience*scale[1]
		salary *= sampleDeptMultiplier[dept]
		salary *= sampleEducationMultiplier[education]
		salary *= 0.8 + performance*0.1
		salary += certs * 2000
		salary *= uniform(0.9, 1.1)

		out = append(out, Record{
			Department:        dept,
			Designation:       designation,
			ExperienceYears:   round(experience, 1),
			PerformanceRating: round(performance, 1),
			EducationLevel:    education,
			Certifications:    certs,
			Location:          location,
			CurrentSalary:     Salary(round(salary, 2)),
		})
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
