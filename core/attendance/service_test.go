package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trezcool/maabara/core"
	"github.com/trezcool/maabara/core/attendance"
	"github.com/trezcool/maabara/core/user"
	"github.com/trezcool/maabara/storage/database/inmem"
	"github.com/trezcool/maabara/tests"
)

type attendanceEnv struct {
	svc       *attendance.Service
	repo      attendance.Repository
	classID   string
	facultyID string
	students  []string
}

func setup(t *testing.T) attendanceEnv {
	t.Helper()

	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	classRepo := inmemdb.NewClassRepository(db)
	attRepo := inmemdb.NewAttendanceRepository(db)

	faculty := testutil.CreateUser(t, usrRepo, "Dr. Jane", "jane", "jane@test.cd", user.RoleFaculty, true)
	students := make([]string, 0, 3)
	for _, uname := range []string{"alpha", "bravo", "charlie"} {
		usr := testutil.CreateUser(t, usrRepo, uname, uname, uname+"@test.cd", user.RoleStudent, true)
		students = append(students, usr.ID)
	}
	cls := testutil.CreateClass(t, classRepo, "CS301L", "OS Lab", faculty.ID, 5, 2025, students...)

	return attendanceEnv{
		svc:       attendance.NewService(attRepo, testutil.NopLogger{}),
		repo:      attRepo,
		classID:   cls.ID,
		facultyID: faculty.ID,
		students:  students,
	}
}

func entries(students []string, absent ...string) []attendance.SessionEntry {
	isAbsent := func(id string) bool {
		for _, a := range absent {
			if a == id {
				return true
			}
		}
		return false
	}
	res := make([]attendance.SessionEntry, 0, len(students))
	for _, id := range students {
		status := attendance.StatusPresent
		if isAbsent(id) {
			status = attendance.StatusAbsent
		}
		res = append(res, attendance.SessionEntry{StudentID: id, Status: status})
	}
	return res
}

func TestService_Submit(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	res, err := env.svc.Submit(ctx, attendance.SubmitSession{
		ClassID:   env.classID,
		FacultyID: env.facultyID,
		Records:   entries(env.students, env.students[2]),
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.SavedCount != 3 {
		t.Errorf("SavedCount = %d, want 3", res.SavedCount)
	}
	want := attendance.SessionStats{Total: 3, Present: 2, Absent: 1, Timestamp: res.Stats.Timestamp}
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}

	// every record carries the same denormalized session aggregates
	state, err := env.svc.SessionState(ctx, env.classID, env.facultyID, time.Now())
	if err != nil {
		t.Fatalf("SessionState() error = %v", err)
	}
	if !state.IsSubmitted {
		t.Error("SessionState() not submitted")
	}
	for _, rec := range state.Records {
		if !rec.SessionSubmitted || rec.SessionTotal != 3 || rec.SessionPresent != 2 {
			t.Errorf("record %s session stamp = (%v, %d, %d), want (true, 3, 2)",
				rec.StudentID, rec.SessionSubmitted, rec.SessionTotal, rec.SessionPresent)
		}
		if rec.Type != attendance.SessionLab {
			t.Errorf("record type = %s, want default %s", rec.Type, attendance.SessionLab)
		}
	}
	if state.Stats == nil || *state.Stats != want {
		t.Errorf("SessionState() stats = %+v, want %+v", state.Stats, want)
	}
}

func TestService_Submit_alreadySubmitted(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	ss := attendance.SubmitSession{
		ClassID:   env.classID,
		FacultyID: env.facultyID,
		Records:   entries(env.students),
	}
	if _, err := env.svc.Submit(ctx, ss); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// same day, different marks: rejected outright
	ss2 := attendance.SubmitSession{
		ClassID:   env.classID,
		FacultyID: env.facultyID,
		Records:   entries(env.students, env.students[0]),
	}
	if _, err := env.svc.Submit(ctx, ss2); !errors.Is(err, attendance.ErrSessionAlreadySubmitted) {
		t.Errorf("Submit() error = %v, want %v", err, attendance.ErrSessionAlreadySubmitted)
	}

	// next day is a fresh session
	ss3 := attendance.SubmitSession{
		ClassID:   env.classID,
		FacultyID: env.facultyID,
		Date:      time.Now().Add(24 * time.Hour),
		Records:   entries(env.students),
	}
	if _, err := env.svc.Submit(ctx, ss3); err != nil {
		t.Errorf("Submit() next day error = %v", err)
	}
}

func TestService_Submit_validation(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		ss   attendance.SubmitSession
	}{
		{name: "no records", ss: attendance.SubmitSession{ClassID: env.classID, FacultyID: env.facultyID}},
		{name: "missing class", ss: attendance.SubmitSession{FacultyID: env.facultyID, Records: entries(env.students)}},
		{
			name: "bad status",
			ss: attendance.SubmitSession{
				ClassID:   env.classID,
				FacultyID: env.facultyID,
				Records:   []attendance.SessionEntry{{StudentID: env.students[0], Status: "Late"}},
			},
		},
		{
			name: "bad session type",
			ss: attendance.SubmitSession{
				ClassID:   env.classID,
				FacultyID: env.facultyID,
				Type:      "Seminar",
				Records:   entries(env.students),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Submit(ctx, tt.ss)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("Submit() error = %v, want ValidationError", err)
			}
		})
	}
}

// upsertsNoDuplicate: writing the same (student, class, day) twice keeps one record.
func TestRepository_UpsertRecord(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	day := core.Day(time.Now())

	rec := attendance.Record{
		StudentID: env.students[0],
		ClassID:   env.classID,
		FacultyID: env.facultyID,
		Date:      day,
		Status:    attendance.StatusAbsent,
		Type:      attendance.SessionLab,
		IsActive:  true,
	}
	first, err := env.repo.UpsertRecord(ctx, rec)
	if err != nil {
		t.Fatalf("UpsertRecord() error = %v", err)
	}

	rec.Status = attendance.StatusPresent
	second, err := env.repo.UpsertRecord(ctx, rec)
	if err != nil {
		t.Fatalf("UpsertRecord() again error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a new record: %s != %s", second.ID, first.ID)
	}

	records, err := env.repo.QuerySession(ctx, env.classID, env.facultyID, day)
	if err != nil {
		t.Fatalf("QuerySession() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("QuerySession() returned %d records, want 1", len(records))
	}
	if records[0].Status != attendance.StatusPresent {
		t.Errorf("record status = %s, want overwritten %s", records[0].Status, attendance.StatusPresent)
	}
}

// failingRepo fails upserts for one student to exercise partial saves.
type failingRepo struct {
	attendance.Repository
	failFor string
}

func (r failingRepo) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if rec.StudentID == r.failFor {
		return attendance.Record{}, errors.New("storage hiccup")
	}
	return r.Repository.UpsertRecord(ctx, rec)
}

func TestService_Submit_partialFailure(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	svc := attendance.NewService(failingRepo{Repository: env.repo, failFor: env.students[1]}, testutil.NopLogger{})

	res, err := svc.Submit(ctx, attendance.SubmitSession{
		ClassID:   env.classID,
		FacultyID: env.facultyID,
		Records:   entries(env.students),
	})

	var psErr *attendance.PartialSaveError
	if !errors.As(err, &psErr) {
		t.Fatalf("Submit() error = %v, want PartialSaveError", err)
	}
	if len(psErr.StudentIDs) != 1 || psErr.StudentIDs[0] != env.students[1] {
		t.Errorf("failed students = %v, want [%s]", psErr.StudentIDs, env.students[1])
	}
	if res.SavedCount != 2 {
		t.Errorf("SavedCount = %d, want 2", res.SavedCount)
	}

	// the saved records stay committed
	state, err := env.svc.SessionState(ctx, env.classID, env.facultyID, time.Now())
	if err != nil {
		t.Fatalf("SessionState() error = %v", err)
	}
	if len(state.Records) != 2 {
		t.Errorf("SessionState() records = %d, want 2", len(state.Records))
	}
}

func TestService_StudentPercentage(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	studentID := env.students[0]

	got, err := env.svc.StudentPercentage(ctx, studentID, env.classID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("StudentPercentage() error = %v", err)
	}
	if got != 0 {
		t.Errorf("StudentPercentage() with no records = %d, want 0", got)
	}

	// 2 present, 1 absent over 3 days
	now := time.Now()
	for i, status := range []string{attendance.StatusPresent, attendance.StatusPresent, attendance.StatusAbsent} {
		if _, err := env.repo.UpsertRecord(ctx, attendance.Record{
			StudentID: studentID,
			ClassID:   env.classID,
			FacultyID: env.facultyID,
			Date:      core.Day(now.AddDate(0, 0, -i)),
			Status:    status,
			IsActive:  true,
		}); err != nil {
			t.Fatalf("UpsertRecord() error = %v", err)
		}
	}

	got, err = env.svc.StudentPercentage(ctx, studentID, env.classID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("StudentPercentage() error = %v", err)
	}
	if got != 67 {
		t.Errorf("StudentPercentage() = %d, want 67", got)
	}

	// bounded to the last 2 days: both present
	got, err = env.svc.StudentPercentage(ctx, studentID, env.classID, now.AddDate(0, 0, -1), now)
	if err != nil {
		t.Fatalf("StudentPercentage() error = %v", err)
	}
	if got != 100 {
		t.Errorf("StudentPercentage() bounded = %d, want 100", got)
	}
}
