package grade

import "math"

// gradeBands maps inclusive percentage lower bounds to letter grades,
// in descending order; the first match wins. Every grade except F passes.
var gradeBands = []struct {
	min    int
	letter string
	points int
}{
	{90, "A+", 10},
	{80, "A", 9},
	{70, "B+", 8},
	{60, "B", 7},
	{50, "C+", 6},
	{40, "C", 5},
	{35, "D", 4},
}

// ComputeTotals derives the grading fields from raw assessment marks and
// experiment scores. It is pure: no I/O, no hidden state, deterministic.
// Inputs are assumed pre-bounded by validation; null marks count as 0.
func ComputeTotals(a AssessmentSet, experiments []Experiment) Totals {
	t := Totals{
		CIATotal:       ciaTotal(a),
		ESETotal:       eseTotal(a),
		PracticalTotal: practicalTotal(experiments),
	}
	t.TotalMarks = t.CIATotal + t.ESETotal + t.PracticalTotal
	t.Percentage = t.TotalMarks

	for _, band := range gradeBands {
		if t.Percentage >= band.min {
			t.LetterGrade = band.letter
			t.GradePoints = band.points
			t.Status = StatusPass
			return t
		}
	}
	t.LetterGrade = "F"
	t.GradePoints = 0
	t.Status = StatusFail
	return t
}

// ciaTotal scales the raw CIA1+CIA2+CIA3 total (out of 90) down to 40,
// rounding half up.
func ciaTotal(a AssessmentSet) int {
	raw := a.CIA1.Marks.Int + a.CIA2.Marks.Int + a.CIA3.Marks.Int
	return roundHalfUp(float64(raw) / ciaRawMax * ciaScaledMax)
}

// eseTotal scales the raw MSE+ESE total (out of 100) down to 50, rounding half up.
func eseTotal(a AssessmentSet) int {
	raw := a.MSE.Marks.Int + a.ESE.Marks.Int
	return roundHalfUp(float64(raw) / eseRawMax * eseScaledMax)
}

// practicalTotal averages the observation and record scores of the scored
// experiments among the first 3 (both sub-scores entered), then sums the
// ceilings of the two averages, capped at 10. No scored experiment -> 0.
func practicalTotal(experiments []Experiment) int {
	if len(experiments) > ScoredExperiments {
		experiments = experiments[:ScoredExperiments]
	}

	var obsSum, recSum, scored int
	for _, exp := range experiments {
		if exp.scored() {
			obsSum += exp.Observation.Int
			recSum += exp.Record.Int
			scored++
		}
	}
	if scored == 0 {
		return 0
	}

	avgObs := float64(obsSum) / float64(scored) // out of 5
	avgRec := float64(recSum) / float64(scored) // out of 5
	total := int(math.Ceil(avgObs)) + int(math.Ceil(avgRec))
	if total > practicalScaledMax {
		return practicalScaledMax
	}
	return total
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
