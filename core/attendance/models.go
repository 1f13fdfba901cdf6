package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trezcool/maabara/core"
)

// ErrSessionAlreadySubmitted is non-retryable: submission is a one-shot
// action per (class, faculty, day) with no override path.
var ErrSessionAlreadySubmitted = errors.New("attendance already submitted for this day")

// Statuses
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

// Session types
const (
	SessionLecture  = "Lecture"
	SessionLab      = "Lab" // default
	SessionTutorial = "Tutorial"
	SessionExam     = "Exam"
)

// Record is one student's attendance for one class on one calendar day;
// unique per (student, class, day). The Session* fields are denormalized
// session-level aggregates, identical across a submission batch.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ClassID   string    `json:"class_id"`
	FacultyID string    `json:"faculty_id"`
	Date      time.Time `json:"date"` // truncated to midnight
	Status    string    `json:"status"`
	Type      string    `json:"session_type"`
	Remarks   string    `json:"remarks"`
	MarkedAt  time.Time `json:"marked_at"` // UTC

	SessionSubmitted bool      `json:"session_submitted"`
	SessionTotal     int       `json:"total_students_in_session"`
	SessionPresent   int       `json:"present_count_in_session"`
	SessionTimestamp time.Time `json:"session_timestamp"` // UTC

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// SessionStats summarizes one submission batch.
type SessionStats struct {
	Total     int       `json:"total"`
	Present   int       `json:"present"`
	Absent    int       `json:"absent"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionResult is the outcome of a session submission.
type SessionResult struct {
	SavedCount int          `json:"saved_count"`
	Stats      SessionStats `json:"stats"`
}

// SessionState is the read view of one (class, faculty, day) session.
type SessionState struct {
	Records     []Record      `json:"records"`
	IsSubmitted bool          `json:"is_submitted"`
	Stats       *SessionStats `json:"stats"` // nil when no records exist yet
}

// SessionEntry is one student's row in a submission payload. Callers pass one
// entry per enrolled student; an omitted student silently receives no record.
type SessionEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=Present Absent"`
	Remarks   string `json:"remarks" validate:"max=200"`
}

// SubmitSession is a full single-day submission batch for one class.
type SubmitSession struct {
	ClassID   string         `json:"class_id" validate:"required"`
	FacultyID string         `json:"faculty_id" validate:"required"`
	Date      time.Time      `json:"date"`
	Type      string         `json:"session_type" validate:"omitempty,oneof=Lecture Lab Tutorial Exam"`
	Records   []SessionEntry `json:"records" validate:"required,min=1,dive"`
}

func (ss *SubmitSession) Validate() error {
	for i := range ss.Records {
		ss.Records[i].Remarks = core.CleanString(ss.Records[i].Remarks)
	}
	if ss.Type == "" {
		ss.Type = SessionLab
	}
	if ss.Date.IsZero() {
		ss.Date = time.Now()
	}
	return core.TranslateValidationErrors(core.Validate.Struct(ss))
}

// PartialSaveError reports the students whose records failed to save during a
// batch; the successfully saved records remain committed.
type PartialSaveError struct {
	StudentIDs []string
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("failed to save attendance for students: %s", strings.Join(e.StudentIDs, ", "))
}

type Repository interface {
	// UpsertRecord inserts the record or, when one already exists for
	// (student, class, day), overwrites it in place. The uniqueness is
	// enforced by the storage engine, not by a check-then-write.
	UpsertRecord(ctx context.Context, rec Record) (Record, error)
	// QuerySession returns the records of [Day(day), NextDay(day)) for the
	// class and faculty.
	QuerySession(ctx context.Context, classID, facultyID string, day time.Time) ([]Record, error)
	// SessionSubmitted reports whether any record of that day carries
	// SessionSubmitted.
	SessionSubmitted(ctx context.Context, classID, facultyID string, day time.Time) (bool, error)
	// CountRecords returns total and present counts for a student in a class,
	// optionally bounded to [from, to] days (zero times mean unbounded).
	CountRecords(ctx context.Context, studentID, classID string, from, to time.Time) (total, present int, err error)
}
