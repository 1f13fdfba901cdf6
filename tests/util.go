package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/maabara/core"
	"github.com/trezcool/maabara/core/class"
	"github.com/trezcool/maabara/core/user"
)

// NopLogger discards everything; services require a Logger but tests rarely
// care about the output.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

func NewConfig() *core.Config {
	return &core.Config{
		Debug:    true,
		TestMode: true,
		AppName:  "Maabara",
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr, err := repo.CreateUser(context.Background(), user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(
	t *testing.T,
	repo class.Repository,
	code, name, facultyID string,
	semester, year int,
	studentIDs ...string,
) class.Class {
	t.Helper()

	now := time.Now().UTC()
	cls, err := repo.CreateClass(context.Background(), class.Class{
		Code:      code,
		Name:      name,
		Subject:   name,
		Semester:  semester,
		Year:      year,
		FacultyID: facultyID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	for _, sid := range studentIDs {
		if err = repo.AddStudent(context.Background(), cls.ID, sid); err != nil {
			t.Fatalf("AddStudent() failed: %v", err)
		}
	}
	cls.StudentIDs = append(cls.StudentIDs, studentIDs...)
	return cls
}
