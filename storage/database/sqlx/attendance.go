package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/maabara/core"
	"github.com/trezcool/maabara/core/attendance"
)

type attendanceRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	ClassID   string    `db:"class_id"`
	FacultyID string    `db:"faculty_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	Type      string    `db:"session_type"`
	Remarks   string    `db:"remarks"`
	MarkedAt  time.Time `db:"marked_at"`

	SessionSubmitted bool      `db:"session_submitted"`
	SessionTotal     int       `db:"session_total"`
	SessionPresent   int       `db:"session_present"`
	SessionTimestamp time.Time `db:"session_timestamp"`

	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		ClassID:   r.ClassID,
		FacultyID: r.FacultyID,
		Date:      r.Date,
		Status:    r.Status,
		Type:      r.Type,
		Remarks:   r.Remarks,
		MarkedAt:  r.MarkedAt.UTC(),

		SessionSubmitted: r.SessionSubmitted,
		SessionTotal:     r.SessionTotal,
		SessionPresent:   r.SessionPresent,
		SessionTimestamp: r.SessionTimestamp.UTC(),

		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	// the UNIQUE (student_id, class_id, date) index is the real duplicate
	// guard; concurrent submissions collapse into one row per student per day
	q := `
	INSERT INTO attendance (id, student_id, class_id, faculty_id, date, status, session_type, remarks, marked_at,
	                        session_submitted, session_total, session_present, session_timestamp,
	                        is_active, created_at, updated_at)
	VALUES (:id, :student_id, :class_id, :faculty_id, :date, :status, :session_type, :remarks, :marked_at,
	        :session_submitted, :session_total, :session_present, :session_timestamp,
	        :is_active, :created_at, :updated_at)
	ON CONFLICT (student_id, class_id, date) DO UPDATE
	    SET status            = EXCLUDED.status,
	        session_type      = EXCLUDED.session_type,
	        remarks           = EXCLUDED.remarks,
	        marked_at         = EXCLUDED.marked_at,
	        session_submitted = EXCLUDED.session_submitted,
	        session_total     = EXCLUDED.session_total,
	        session_present   = EXCLUDED.session_present,
	        session_timestamp = EXCLUDED.session_timestamp,
	        is_active         = EXCLUDED.is_active,
	        updated_at        = EXCLUDED.updated_at`
	row := attendanceRow{
		ID:        rec.ID,
		StudentID: rec.StudentID,
		ClassID:   rec.ClassID,
		FacultyID: rec.FacultyID,
		Date:      rec.Date,
		Status:    rec.Status,
		Type:      rec.Type,
		Remarks:   rec.Remarks,
		MarkedAt:  rec.MarkedAt.UTC(),

		SessionSubmitted: rec.SessionSubmitted,
		SessionTotal:     rec.SessionTotal,
		SessionPresent:   rec.SessionPresent,
		SessionTimestamp: rec.SessionTimestamp.UTC(),

		IsActive:  rec.IsActive,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance")
	}
	return rec, nil
}

func (repo attendanceRepository) QuerySession(ctx context.Context, classID, facultyID string, day time.Time) ([]attendance.Record, error) {
	var rows []attendanceRow
	q := `
	SELECT *
	FROM attendance
	WHERE class_id = $1
	  AND faculty_id = $2
	  AND date >= $3
	  AND date < $4
	ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, classID, facultyID, core.Day(day), core.NextDay(day)); err != nil {
		return nil, errors.Wrap(err, "querying session")
	}

	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (repo attendanceRepository) SessionSubmitted(ctx context.Context, classID, facultyID string, day time.Time) (bool, error) {
	var submitted bool
	q := `
	SELECT EXISTS(SELECT 1
	              FROM attendance
	              WHERE class_id = $1
	                AND faculty_id = $2
	                AND date >= $3
	                AND date < $4
	                AND session_submitted)`
	if err := repo.db.GetContext(ctx, &submitted, q, classID, facultyID, core.Day(day), core.NextDay(day)); err != nil {
		return false, errors.Wrap(err, "checking session submission")
	}
	return submitted, nil
}

func (repo attendanceRepository) CountRecords(ctx context.Context, studentID, classID string, from, to time.Time) (int, int, error) {
	q := "SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'Present') FROM attendance WHERE student_id = $1 AND class_id = $2 AND is_active"
	args := []interface{}{studentID, classID}
	if !from.IsZero() {
		args = append(args, core.Day(from))
		q += " AND date >= $3"
	}
	if !to.IsZero() {
		args = append(args, core.NextDay(to))
		q += fmt.Sprintf(" AND date < $%d", len(args))
	}

	var total, present int
	if err := repo.db.QueryRowxContext(ctx, q, args...).Scan(&total, &present); err != nil {
		return 0, 0, errors.Wrap(err, "counting attendance")
	}
	return total, present, nil
}
