package grade

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"
)

var (
	// errors
	ErrNotFound     = errors.New("grade record not found")
	ErrRecordExists = errors.New("a grade record already exists for this student and class")
)

// Assessment max marks. CIA1 + CIA2 + CIA3 raw out of 90, MSE + ESE raw out of 100.
const (
	MaxCIA1 = 20
	MaxCIA2 = 50
	MaxCIA3 = 20
	MaxMSE  = 50
	MaxESE  = 50

	ciaRawMax = MaxCIA1 + MaxCIA2 + MaxCIA3
	eseRawMax = MaxMSE + MaxESE

	ciaScaledMax = 40
	eseScaledMax = 50

	// experiment sub-scores are each out of 5; only the first 3 experiments count
	MaxExperimentScore   = 5
	ScoredExperiments    = 3
	practicalScaledMax   = 10
	defaultExperimentFmt = "Experiment %d"
)

// Statuses
const (
	StatusPass = "Pass"
	StatusFail = "Fail"
)

// Assessment is a single in-semester evaluation; null marks mean "not yet entered".
type Assessment struct {
	Marks    null.Int `json:"marks"`
	MaxMarks int      `json:"max_marks"`
}

// AssessmentSet is the fixed set of assessments contributing to the final grade.
type AssessmentSet struct {
	CIA1 Assessment `json:"CIA1"`
	CIA2 Assessment `json:"CIA2"`
	CIA3 Assessment `json:"CIA3"`
	MSE  Assessment `json:"MSE"`
	ESE  Assessment `json:"ESE"`
}

// NewAssessmentSet returns an AssessmentSet with no marks entered.
func NewAssessmentSet() AssessmentSet {
	return AssessmentSet{
		CIA1: Assessment{MaxMarks: MaxCIA1},
		CIA2: Assessment{MaxMarks: MaxCIA2},
		CIA3: Assessment{MaxMarks: MaxCIA3},
		MSE:  Assessment{MaxMarks: MaxMSE},
		ESE:  Assessment{MaxMarks: MaxESE},
	}
}

// Experiment is a graded lab exercise; observation and record are each out of 5.
type Experiment struct {
	Name        string    `json:"name"`
	Observation null.Int  `json:"observation"`
	Record      null.Int  `json:"record"`
	RecordedAt  time.Time `json:"recorded_at"` // UTC
	RecordedBy  string    `json:"recorded_by"`
}

// scored reports whether the experiment counts towards the practical total;
// both sub-scores must be entered.
func (e Experiment) scored() bool {
	return e.Observation.Valid && e.Record.Valid
}

// Totals holds the derived grading fields. They are recomputed from the
// assessments and experiments before every persistence and never hand-edited.
type Totals struct {
	CIATotal       int    `json:"cia_total"`       // 0-40
	ESETotal       int    `json:"ese_total"`       // 0-50
	PracticalTotal int    `json:"practical_total"` // 0-10
	TotalMarks     int    `json:"total_marks"`     // 0-100
	Percentage     int    `json:"percentage"`      // == TotalMarks; total is already out of 100
	LetterGrade    string `json:"letter_grade"`
	GradePoints    int    `json:"grade_points"` // 0-10
	Status         string `json:"status"`
}

// Record is one student's grade record for one class offering.
// At most one active record may exist per (student, class, semester, year).
type Record struct {
	ID          string        `json:"id"`
	StudentID   string        `json:"student_id"`
	ClassID     string        `json:"class_id"`
	Semester    int           `json:"semester"`
	Year        int           `json:"year"`
	Assessments AssessmentSet `json:"assessments"`
	Experiments []Experiment  `json:"practical_marks"`
	Totals

	GradedBy  string    `json:"graded_by"`
	GradedAt  time.Time `json:"graded_at"` // UTC
	Remarks   string    `json:"remarks"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Recompute refreshes the derived fields from the current assessments and experiments.
func (r *Record) Recompute() {
	r.Totals = ComputeTotals(r.Assessments, r.Experiments)
}

// AssessmentMarks carries raw marks input for the fixed assessment set.
// A null mark clears the corresponding assessment back to "not entered".
type AssessmentMarks struct {
	CIA1 null.Int `json:"CIA1"`
	CIA2 null.Int `json:"CIA2"`
	CIA3 null.Int `json:"CIA3"`
	MSE  null.Int `json:"MSE"`
	ESE  null.Int `json:"ESE"`
}

// ExperimentMarks carries one experiment's input.
type ExperimentMarks struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Observation null.Int `json:"observation"`
	Record      null.Int `json:"record"`
}

// SaveMarks defines a partial marks submission for one student in one class.
// A nil Assessments or Experiments field leaves the corresponding part untouched.
type SaveMarks struct {
	StudentID   string            `json:"student_id" validate:"required"`
	ClassID     string            `json:"class_id" validate:"required"`
	Assessments *AssessmentMarks  `json:"assessments"`
	Experiments []ExperimentMarks `json:"practical_marks" validate:"omitempty,dive"`
	Remarks     string            `json:"remarks" validate:"max=500"`
}

func (sm *SaveMarks) Validate() error {
	sm.Remarks = trimmed(sm.Remarks)
	for i := range sm.Experiments {
		sm.Experiments[i].Name = trimmed(sm.Experiments[i].Name)
	}
	return translate(validateStruct(sm))
}

// ClassResult is a grade record joined with its student's identity,
// as consumed by dashboards and the CSV export.
type ClassResult struct {
	Record
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
}

type Repository interface {
	CreateGrade(ctx context.Context, rec Record) (Record, error)
	// GetGrade returns the active record for (student, class).
	GetGrade(ctx context.Context, studentID, classID string) (Record, error)
	// UpdateGrade persists the full record, experiments included.
	UpdateGrade(ctx context.Context, rec Record) (Record, error)
	// QueryClassResults returns all active records of a class with student
	// identities, ordered by percentage descending.
	QueryClassResults(ctx context.Context, classID string) ([]ClassResult, error)
}
