package inmemdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/maabara/core"
	"github.com/trezcool/maabara/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// sessionKey enforces the one-row-per-student-per-class-per-day invariant.
func sessionKey(studentID, classID string, day time.Time) string {
	return fmt.Sprintf("%s|%s|%s", studentID, classID, core.Day(day).Format("2006-01-02"))
}

func (repo *attendanceRepository) UpsertRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := sessionKey(rec.StudentID, rec.ClassID, rec.Date)
	if existing, ok := repo.db.attendance[key]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	repo.db.attendance[key] = &rec
	return rec, nil
}

func (repo *attendanceRepository) QuerySession(_ context.Context, classID, facultyID string, day time.Time) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance {
		if rec.ClassID == classID && rec.FacultyID == facultyID && core.SameDay(rec.Date, day) {
			records = append(records, *rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}

func (repo *attendanceRepository) SessionSubmitted(_ context.Context, classID, facultyID string, day time.Time) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rec := range repo.db.attendance {
		if rec.ClassID == classID && rec.FacultyID == facultyID && core.SameDay(rec.Date, day) && rec.SessionSubmitted {
			return true, nil
		}
	}
	return false, nil
}

func (repo *attendanceRepository) CountRecords(_ context.Context, studentID, classID string, from, to time.Time) (int, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var total, present int
	for _, rec := range repo.db.attendance {
		if rec.StudentID != studentID || rec.ClassID != classID || !rec.IsActive {
			continue
		}
		if !from.IsZero() && rec.Date.Before(core.Day(from)) {
			continue
		}
		if !to.IsZero() && !rec.Date.Before(core.NextDay(to)) {
			continue
		}
		total++
		if rec.Status == attendance.StatusPresent {
			present++
		}
	}
	return total, present, nil
}
