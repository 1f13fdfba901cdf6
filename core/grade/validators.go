package grade

import (
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maabara/core"
)

var (
	marksRangeTag  = "marksrange"
	marksRangeText = "marks are out of range for this assessment"

	scoreRangeTag  = "scorerange"
	scoreRangeText = "experiment scores must be between 0 and 5"
)

func init() {
	// register validators
	core.Validate.RegisterStructValidation(assessmentMarksValidation, AssessmentMarks{})
	core.Validate.RegisterStructValidation(experimentMarksValidation, ExperimentMarks{})
	core.RegisterCustomTranslation(marksRangeTag, marksRangeText)
	core.RegisterCustomTranslation(scoreRangeTag, scoreRangeText)
}

func trimmed(s string) string            { return core.CleanString(s) }
func validateStruct(v interface{}) error { return core.Validate.Struct(v) }
func translate(err error) error          { return core.TranslateValidationErrors(err) }

func inRange(m null.Int, max int) bool {
	return !m.Valid || (m.Int >= 0 && m.Int <= max)
}

// assessmentMarksValidation bounds each entered mark to its assessment's max;
// null marks are always allowed ("not yet entered").
func assessmentMarksValidation(sl validator.StructLevel) {
	am := sl.Current().Interface().(AssessmentMarks)

	check := func(m null.Int, max int, field string) {
		if !inRange(m, max) {
			sl.ReportError(m, field, field, marksRangeTag, "")
		}
	}
	check(am.CIA1, MaxCIA1, "CIA1")
	check(am.CIA2, MaxCIA2, "CIA2")
	check(am.CIA3, MaxCIA3, "CIA3")
	check(am.MSE, MaxMSE, "MSE")
	check(am.ESE, MaxESE, "ESE")
}

// experimentMarksValidation bounds observation and record to [0, 5].
func experimentMarksValidation(sl validator.StructLevel) {
	em := sl.Current().Interface().(ExperimentMarks)

	if !inRange(em.Observation, MaxExperimentScore) {
		sl.ReportError(em.Observation, "observation", "Observation", scoreRangeTag, "")
	}
	if !inRange(em.Record, MaxExperimentScore) {
		sl.ReportError(em.Record, "record", "Record", scoreRangeTag, "")
	}
}
