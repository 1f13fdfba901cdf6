package main

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maabara/core/attendance"
	"github.com/trezcool/maabara/core/class"
	"github.com/trezcool/maabara/core/grade"
	"github.com/trezcool/maabara/core/user"
)

// seed loads a small demo data set: a faculty, a few students, one lab class
// with an attendance session and graded marks.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	faculty, err := cli.usrSvc.Create(ctx, user.NewUser{
		Name:     "Dr. Priya Sharma",
		Username: "psharma",
		Email:    "psharma@university.edu",
		Role:     user.RoleFaculty,
	})
	if err != nil {
		return err
	}

	students := []user.NewUser{
		{Name: "Aisha Khan", Username: "akhan", Email: "akhan@university.edu", Role: user.RoleStudent},
		{Name: "Rahul Verma", Username: "rverma", Email: "rverma@university.edu", Role: user.RoleStudent},
		{Name: "Sneha Patel", Username: "spatel", Email: "spatel@university.edu", Role: user.RoleStudent},
	}
	studentIDs := make([]string, 0, len(students))
	for _, nu := range students {
		usr, err := cli.usrSvc.Create(ctx, nu)
		if err != nil {
			return err
		}
		studentIDs = append(studentIDs, usr.ID)
	}

	cls, err := cli.classSvc.Create(ctx, class.NewClass{
		Code:      "CS301L",
		Name:      "Operating Systems Lab",
		Subject:   "Operating Systems",
		Semester:  5,
		Year:      time.Now().Year(),
		FacultyID: faculty.ID,
	})
	if err != nil {
		return err
	}
	for _, sid := range studentIDs {
		if err = cli.classSvc.Enroll(ctx, cls.ID, sid); err != nil {
			return err
		}
	}

	// today's attendance
	entries := make([]attendance.SessionEntry, 0, len(studentIDs))
	for i, sid := range studentIDs {
		status := attendance.StatusPresent
		if i == len(studentIDs)-1 {
			status = attendance.StatusAbsent
		}
		entries = append(entries, attendance.SessionEntry{StudentID: sid, Status: status})
	}
	if _, err = cli.attSvc.Submit(ctx, attendance.SubmitSession{
		ClassID:   cls.ID,
		FacultyID: faculty.ID,
		Records:   entries,
	}); err != nil {
		return err
	}

	// marks for the first student
	if _, err = cli.gradeSvc.SaveMarks(ctx, grade.SaveMarks{
		StudentID: studentIDs[0],
		ClassID:   cls.ID,
		Assessments: &grade.AssessmentMarks{
			CIA1: null.IntFrom(18),
			CIA2: null.IntFrom(42),
			CIA3: null.IntFrom(16),
			MSE:  null.IntFrom(40),
			ESE:  null.IntFrom(44),
		},
		Experiments: []grade.ExperimentMarks{
			{Name: "Process Scheduling", Observation: null.IntFrom(4), Record: null.IntFrom(5)},
			{Name: "Memory Management", Observation: null.IntFrom(5), Record: null.IntFrom(4)},
			{Name: "File Systems"},
		},
	}, faculty.ID); err != nil {
		return err
	}

	fmt.Printf("seeded class %s with %d students\n", cls.Code, len(studentIDs))
	return nil
}
