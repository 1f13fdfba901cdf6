package grade_test

import (
	"context"
	"errors"
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maabara/core"
	"github.com/trezcool/maabara/core/grade"
	"github.com/trezcool/maabara/core/user"
	"github.com/trezcool/maabara/storage/database/inmem"
	"github.com/trezcool/maabara/tests"
)

type gradeEnv struct {
	svc       *grade.Service
	classID   string
	facultyID string
	students  []user.User
}

func setup(t *testing.T, studentCount int) gradeEnv {
	t.Helper()

	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	classRepo := inmemdb.NewClassRepository(db)
	gradeRepo := inmemdb.NewGradeRepository(db)

	faculty := testutil.CreateUser(t, usrRepo, "Dr. Jane", "jane", "jane@test.cd", user.RoleFaculty, true)
	students := make([]user.User, 0, studentCount)
	ids := make([]string, 0, studentCount)
	for i := 0; i < studentCount; i++ {
		usr := testutil.CreateUser(t, usrRepo,
			"Student "+string(rune('A'+i)), "student"+string(rune('a'+i)),
			"student"+string(rune('a'+i))+"@test.cd", user.RoleStudent, true)
		students = append(students, usr)
		ids = append(ids, usr.ID)
	}
	cls := testutil.CreateClass(t, classRepo, "CS301L", "OS Lab", faculty.ID, 5, 2025, ids...)

	return gradeEnv{
		svc:       grade.NewService(gradeRepo, classRepo, testutil.NopLogger{}),
		classID:   cls.ID,
		facultyID: faculty.ID,
		students:  students,
	}
}

func TestService_EnsureRecord(t *testing.T) {
	env := setup(t, 1)
	ctx := context.Background()
	studentID := env.students[0].ID

	rec, err := env.svc.EnsureRecord(ctx, studentID, env.classID, env.facultyID)
	if err != nil {
		t.Fatalf("EnsureRecord() error = %v", err)
	}
	if rec.Semester != 5 || rec.Year != 2025 {
		t.Errorf("EnsureRecord() offering = (%d, %d), want (5, 2025)", rec.Semester, rec.Year)
	}
	if len(rec.Experiments) != grade.ScoredExperiments {
		t.Fatalf("EnsureRecord() seeded %d experiments, want %d", len(rec.Experiments), grade.ScoredExperiments)
	}
	for i, exp := range rec.Experiments {
		if exp.Observation.Valid || exp.Record.Valid {
			t.Errorf("placeholder experiment %d has scores", i)
		}
	}
	if rec.Status != grade.StatusFail {
		t.Errorf("fresh record status = %s, want %s", rec.Status, grade.StatusFail)
	}

	// ensure again: same record, experiments untouched
	again, err := env.svc.EnsureRecord(ctx, studentID, env.classID, env.facultyID)
	if err != nil {
		t.Fatalf("EnsureRecord() again error = %v", err)
	}
	if again.ID != rec.ID {
		t.Errorf("EnsureRecord() created a second record: %s != %s", again.ID, rec.ID)
	}
	if len(again.Experiments) != grade.ScoredExperiments {
		t.Errorf("EnsureRecord() re-seeded experiments: %d", len(again.Experiments))
	}
}

func TestService_SaveMarks(t *testing.T) {
	env := setup(t, 1)
	ctx := context.Background()
	studentID := env.students[0].ID

	rec, err := env.svc.SaveMarks(ctx, grade.SaveMarks{
		StudentID: studentID,
		ClassID:   env.classID,
		Assessments: &grade.AssessmentMarks{
			CIA1: null.IntFrom(20),
			CIA2: null.IntFrom(50),
			CIA3: null.IntFrom(20),
			MSE:  null.IntFrom(50),
			ESE:  null.IntFrom(48),
		},
		Experiments: []grade.ExperimentMarks{
			{Name: "Exp 1", Observation: null.IntFrom(4), Record: null.IntFrom(5)},
			{Name: "Exp 2", Observation: null.IntFrom(5), Record: null.IntFrom(4)},
			{Name: "Exp 3"},
		},
	}, env.facultyID)
	if err != nil {
		t.Fatalf("SaveMarks() error = %v", err)
	}

	if rec.CIATotal != 40 || rec.ESETotal != 49 || rec.PracticalTotal != 10 {
		t.Errorf("totals = (%d, %d, %d), want (40, 49, 10)", rec.CIATotal, rec.ESETotal, rec.PracticalTotal)
	}
	if rec.Percentage != 99 || rec.LetterGrade != "A+" || rec.Status != grade.StatusPass {
		t.Errorf("grade = (%d, %s, %s), want (99, A+, Pass)", rec.Percentage, rec.LetterGrade, rec.Status)
	}
	if rec.GradedBy != env.facultyID || rec.GradedAt.IsZero() {
		t.Errorf("grader not stamped: %s at %v", rec.GradedBy, rec.GradedAt)
	}

	// partial save: only remarks; marks and experiments untouched
	rec2, err := env.svc.SaveMarks(ctx, grade.SaveMarks{
		StudentID: studentID,
		ClassID:   env.classID,
		Remarks:   "solid work",
	}, env.facultyID)
	if err != nil {
		t.Fatalf("SaveMarks() partial error = %v", err)
	}
	if rec2.Percentage != 99 || rec2.Remarks != "solid work" {
		t.Errorf("partial save changed totals: (%d, %q)", rec2.Percentage, rec2.Remarks)
	}
	if len(rec2.Experiments) != 3 {
		t.Errorf("partial save changed experiments: %d", len(rec2.Experiments))
	}
}

func TestService_SaveMarks_validation(t *testing.T) {
	env := setup(t, 1)
	ctx := context.Background()

	tests := []struct {
		name string
		sm   grade.SaveMarks
	}{
		{
			name: "missing student",
			sm:   grade.SaveMarks{ClassID: env.classID},
		},
		{
			name: "CIA1 above max",
			sm: grade.SaveMarks{
				StudentID:   env.students[0].ID,
				ClassID:     env.classID,
				Assessments: &grade.AssessmentMarks{CIA1: null.IntFrom(grade.MaxCIA1 + 1)},
			},
		},
		{
			name: "negative experiment score",
			sm: grade.SaveMarks{
				StudentID: env.students[0].ID,
				ClassID:   env.classID,
				Experiments: []grade.ExperimentMarks{
					{Name: "Exp 1", Observation: null.IntFrom(-1)},
				},
			},
		},
		{
			name: "experiment score above 5",
			sm: grade.SaveMarks{
				StudentID: env.students[0].ID,
				ClassID:   env.classID,
				Experiments: []grade.ExperimentMarks{
					{Name: "Exp 1", Record: null.IntFrom(6)},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.SaveMarks(ctx, tt.sm, env.facultyID)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("SaveMarks() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestService_AddExperiment(t *testing.T) {
	env := setup(t, 3)
	ctx := context.Background()

	// score the first student's 3 experiments so totals are sensitive to changes
	if _, err := env.svc.SaveMarks(ctx, grade.SaveMarks{
		StudentID: env.students[0].ID,
		ClassID:   env.classID,
		Experiments: []grade.ExperimentMarks{
			{Name: "Exp 1", Observation: null.IntFrom(3), Record: null.IntFrom(3)},
			{Name: "Exp 2", Observation: null.IntFrom(3), Record: null.IntFrom(3)},
			{Name: "Exp 3", Observation: null.IntFrom(3), Record: null.IntFrom(3)},
		},
	}, env.facultyID); err != nil {
		t.Fatalf("SaveMarks() error = %v", err)
	}

	res, err := env.svc.AddExperiment(ctx, env.classID, "Deadlock Detection", env.facultyID)
	if err != nil {
		t.Fatalf("AddExperiment() error = %v", err)
	}
	if res.Processed != 3 || res.Failed() {
		t.Fatalf("AddExperiment() = %+v, want 3 processed and no failures", res)
	}

	for _, student := range env.students {
		rec, err := env.svc.EnsureRecord(ctx, student.ID, env.classID, env.facultyID)
		if err != nil {
			t.Fatalf("EnsureRecord() error = %v", err)
		}
		if len(rec.Experiments) != 4 {
			t.Errorf("student %s has %d experiments, want 4", student.Username, len(rec.Experiments))
		}
		if last := rec.Experiments[len(rec.Experiments)-1]; last.Name != "Deadlock Detection" {
			t.Errorf("appended experiment name = %q", last.Name)
		}
	}

	// appending beyond the first 3 must not change the practical total
	rec, _ := env.svc.EnsureRecord(ctx, env.students[0].ID, env.classID, env.facultyID)
	if rec.PracticalTotal != 6 {
		t.Errorf("PracticalTotal = %d, want 6", rec.PracticalTotal)
	}
}

func TestService_AddExperiment_invalidName(t *testing.T) {
	env := setup(t, 1)

	for _, name := range []string{"", "   ", string(make([]byte, 101))} {
		if _, err := env.svc.AddExperiment(context.Background(), env.classID, name, env.facultyID); err == nil {
			t.Errorf("AddExperiment(%q) expected error", name)
		}
	}
}

func TestService_RemoveExperiment(t *testing.T) {
	env := setup(t, 2)
	ctx := context.Background()

	// 4 experiments; the 4th is scored but outside the scored window
	if _, err := env.svc.SaveMarks(ctx, grade.SaveMarks{
		StudentID: env.students[0].ID,
		ClassID:   env.classID,
		Experiments: []grade.ExperimentMarks{
			{Name: "Exp 1"},
			{Name: "Exp 2", Observation: null.IntFrom(2), Record: null.IntFrom(2)},
			{Name: "Exp 3"},
			{Name: "Exp 4", Observation: null.IntFrom(5), Record: null.IntFrom(5)},
		},
	}, env.facultyID); err != nil {
		t.Fatalf("SaveMarks() error = %v", err)
	}

	res, err := env.svc.RemoveExperiment(ctx, env.classID, 0, env.facultyID)
	if err != nil {
		t.Fatalf("RemoveExperiment() error = %v", err)
	}
	// student 2 never got a record; silently skipped
	if res.Processed != 1 || res.Failed() {
		t.Fatalf("RemoveExperiment() = %+v, want 1 processed and no failures", res)
	}

	rec, err := env.svc.EnsureRecord(ctx, env.students[0].ID, env.classID, env.facultyID)
	if err != nil {
		t.Fatalf("EnsureRecord() error = %v", err)
	}
	if len(rec.Experiments) != 3 {
		t.Fatalf("experiments = %d, want 3", len(rec.Experiments))
	}
	// Exp 4 promoted into the scored window: avgs over Exp 2 and Exp 4
	// obs (2+5)/2 = 3.5 -> 4; rec likewise -> 8
	if rec.PracticalTotal != 8 {
		t.Errorf("PracticalTotal = %d, want 8", rec.PracticalTotal)
	}

	// out-of-range index: nothing to remove anywhere
	res, err = env.svc.RemoveExperiment(ctx, env.classID, 10, env.facultyID)
	if err != nil {
		t.Fatalf("RemoveExperiment() error = %v", err)
	}
	if res.Processed != 0 {
		t.Errorf("RemoveExperiment() out of range processed %d records", res.Processed)
	}

	if _, err = env.svc.RemoveExperiment(ctx, env.classID, -1, env.facultyID); err == nil {
		t.Error("RemoveExperiment(-1) expected error")
	}
}

func TestService_ClassResults(t *testing.T) {
	env := setup(t, 3)
	ctx := context.Background()

	scores := []int{30, 50, 40} // ESE raw -> percentage 15, 25, 20
	for i, student := range env.students {
		if _, err := env.svc.SaveMarks(ctx, grade.SaveMarks{
			StudentID:   student.ID,
			ClassID:     env.classID,
			Assessments: &grade.AssessmentMarks{ESE: null.IntFrom(scores[i])},
		}, env.facultyID); err != nil {
			t.Fatalf("SaveMarks() error = %v", err)
		}
	}

	results, err := env.svc.ClassResults(ctx, env.classID)
	if err != nil {
		t.Fatalf("ClassResults() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("ClassResults() returned %d results, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Percentage < results[i].Percentage {
			t.Errorf("results not ordered by percentage desc: %d before %d",
				results[i-1].Percentage, results[i].Percentage)
		}
	}
	if results[0].StudentName == "" || results[0].StudentEmail == "" {
		t.Error("ClassResults() missing student identity")
	}
}

func TestService_Deactivate(t *testing.T) {
	env := setup(t, 1)
	ctx := context.Background()
	studentID := env.students[0].ID

	if _, err := env.svc.EnsureRecord(ctx, studentID, env.classID, env.facultyID); err != nil {
		t.Fatalf("EnsureRecord() error = %v", err)
	}
	if err := env.svc.Deactivate(ctx, studentID, env.classID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	results, err := env.svc.ClassResults(ctx, env.classID)
	if err != nil {
		t.Fatalf("ClassResults() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("deactivated record still in results: %d", len(results))
	}
}
