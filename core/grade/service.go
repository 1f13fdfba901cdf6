package grade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/maabara/core"
	"github.com/trezcool/maabara/core/class"
)

// BatchFailure records one student's failure inside a class-wide operation.
type BatchFailure struct {
	StudentID string `json:"student_id"`
	Err       string `json:"error"`
}

// BatchResult is the multi-status outcome of a class-wide fan-out; students
// are processed independently and failures never abort the remaining ones.
type BatchResult struct {
	Processed int            `json:"processed"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}

func (r BatchResult) Failed() bool { return len(r.Failures) > 0 }

type Service struct {
	repo    Repository
	classes class.Repository
	log     core.Logger
}

func NewService(repo Repository, classes class.Repository, log core.Logger) *Service {
	return &Service{repo: repo, classes: classes, log: log}
}

// EnsureRecord finds the active grade record for (student, class), creating
// and persisting one from the class's semester/year if absent. A record with
// no experiments gets the 3 placeholders seeded; populated experiments are
// never overwritten.
func (svc *Service) EnsureRecord(ctx context.Context, studentID, classID, facultyID string) (Record, error) {
	rec, err := svc.repo.GetGrade(ctx, studentID, classID)
	if err == nil {
		if len(rec.Experiments) > 0 {
			return rec, nil
		}
		rec.Experiments = defaultExperiments(facultyID)
		rec.Recompute()
		rec.UpdatedAt = time.Now().UTC()
		return svc.repo.UpdateGrade(ctx, rec)
	}
	if !errors.Is(err, ErrNotFound) {
		return Record{}, err
	}

	cls, err := svc.classes.GetClass(ctx, classID)
	if err != nil {
		return Record{}, err
	}
	now := time.Now().UTC()
	rec = Record{
		StudentID:   studentID,
		ClassID:     classID,
		Semester:    cls.Semester,
		Year:        cls.Year,
		Assessments: NewAssessmentSet(),
		Experiments: defaultExperiments(facultyID),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec.Recompute()
	return svc.repo.CreateGrade(ctx, rec)
}

// SaveMarks merges the provided marks into the student's record (nil parts
// are left untouched), stamps the grader, recomputes the derived fields and
// persists. The returned record is always freshly recomputed.
func (svc *Service) SaveMarks(ctx context.Context, sm SaveMarks, facultyID string) (Record, error) {
	if err := sm.Validate(); err != nil {
		return Record{}, err
	}

	rec, err := svc.EnsureRecord(ctx, sm.StudentID, sm.ClassID, facultyID)
	if err != nil {
		return Record{}, err
	}

	now := time.Now().UTC()
	if sm.Assessments != nil {
		rec.Assessments.CIA1.Marks = sm.Assessments.CIA1
		rec.Assessments.CIA2.Marks = sm.Assessments.CIA2
		rec.Assessments.CIA3.Marks = sm.Assessments.CIA3
		rec.Assessments.MSE.Marks = sm.Assessments.MSE
		rec.Assessments.ESE.Marks = sm.Assessments.ESE
	}
	if sm.Experiments != nil {
		experiments := make([]Experiment, 0, len(sm.Experiments))
		for _, em := range sm.Experiments {
			experiments = append(experiments, Experiment{
				Name:        em.Name,
				Observation: em.Observation,
				Record:      em.Record,
				RecordedAt:  now,
				RecordedBy:  facultyID,
			})
		}
		rec.Experiments = experiments
	}
	if sm.Remarks != "" {
		rec.Remarks = sm.Remarks
	}
	rec.GradedBy = facultyID
	rec.GradedAt = now
	rec.UpdatedAt = now

	rec.Recompute()
	return svc.repo.UpdateGrade(ctx, rec)
}

// AddExperiment appends a new unscored experiment to every enrolled student's
// record, creating records as needed. Appending only affects totals when the
// new experiment falls within the first 3; recomputation runs regardless.
func (svc *Service) AddExperiment(ctx context.Context, classID, name, facultyID string) (BatchResult, error) {
	name = trimmed(name)
	if name == "" || len(name) > 100 {
		return BatchResult{}, core.NewValidationError(
			errors.New("invalid experiment name"),
			core.FieldError{Field: "name", Error: "an experiment name of at most 100 characters is required"},
		)
	}

	cls, err := svc.classes.GetClass(ctx, classID)
	if err != nil {
		return BatchResult{}, err
	}

	var res BatchResult
	now := time.Now().UTC()
	for _, studentID := range cls.StudentIDs {
		rec, err := svc.EnsureRecord(ctx, studentID, classID, facultyID)
		if err != nil {
			res.Failures = append(res.Failures, BatchFailure{StudentID: studentID, Err: err.Error()})
			continue
		}
		rec.Experiments = append(rec.Experiments, Experiment{
			Name:       name,
			RecordedAt: now,
			RecordedBy: facultyID,
		})
		rec.UpdatedAt = now
		rec.Recompute()
		if _, err := svc.repo.UpdateGrade(ctx, rec); err != nil {
			res.Failures = append(res.Failures, BatchFailure{StudentID: studentID, Err: err.Error()})
			continue
		}
		res.Processed++
	}

	if res.Failed() {
		svc.log.Warn(fmt.Sprintf("experiment %q not added for %d/%d students of class %s",
			name, len(res.Failures), len(cls.StudentIDs), classID))
	}
	return res, nil
}

// RemoveExperiment removes the experiment at the given index from every
// enrolled student's record that has it, recomputing totals afterwards;
// removal can promote a later experiment into the scored first 3.
func (svc *Service) RemoveExperiment(ctx context.Context, classID string, index int, facultyID string) (BatchResult, error) {
	if index < 0 {
		return BatchResult{}, core.NewValidationError(
			errors.New("invalid experiment index"),
			core.FieldError{Field: "index", Error: "experiment index cannot be negative"},
		)
	}

	cls, err := svc.classes.GetClass(ctx, classID)
	if err != nil {
		return BatchResult{}, err
	}

	var res BatchResult
	now := time.Now().UTC()
	for _, studentID := range cls.StudentIDs {
		rec, err := svc.repo.GetGrade(ctx, studentID, classID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // nothing to remove
			}
			res.Failures = append(res.Failures, BatchFailure{StudentID: studentID, Err: err.Error()})
			continue
		}
		if index >= len(rec.Experiments) {
			continue
		}
		rec.Experiments = append(rec.Experiments[:index], rec.Experiments[index+1:]...)
		rec.UpdatedAt = now
		rec.Recompute()
		if _, err := svc.repo.UpdateGrade(ctx, rec); err != nil {
			res.Failures = append(res.Failures, BatchFailure{StudentID: studentID, Err: err.Error()})
			continue
		}
		res.Processed++
	}

	if res.Failed() {
		svc.log.Warn(fmt.Sprintf("experiment %d not removed for %d students of class %s",
			index, len(res.Failures), classID))
	}
	return res, nil
}

// ClassResults returns the class's active records with student identities,
// ordered by percentage descending.
func (svc *Service) ClassResults(ctx context.Context, classID string) ([]ClassResult, error) {
	return svc.repo.QueryClassResults(ctx, classID)
}

// Deactivate soft-deactivates a record; grade records are never hard-deleted.
func (svc *Service) Deactivate(ctx context.Context, studentID, classID string) error {
	rec, err := svc.repo.GetGrade(ctx, studentID, classID)
	if err != nil {
		return err
	}
	rec.IsActive = false
	rec.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateGrade(ctx, rec)
	return err
}

// defaultExperiments seeds the 3 placeholder experiments of a fresh record.
func defaultExperiments(facultyID string) []Experiment {
	now := time.Now().UTC()
	experiments := make([]Experiment, 0, ScoredExperiments)
	for i := 1; i <= ScoredExperiments; i++ {
		experiments = append(experiments, Experiment{
			Name:       fmt.Sprintf(defaultExperimentFmt, i),
			RecordedAt: now,
			RecordedBy: facultyID,
		})
	}
	return experiments
}
