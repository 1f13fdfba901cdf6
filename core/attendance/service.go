package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/trezcool/maabara/core"
)

type Service struct {
	repo Repository
	log  core.Logger
}

func NewService(repo Repository, log core.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// IsSessionSubmitted reports whether the class's attendance was already
// submitted for date's calendar day.
func (svc *Service) IsSessionSubmitted(ctx context.Context, classID, facultyID string, date time.Time) (bool, error) {
	return svc.repo.SessionSubmitted(ctx, classID, facultyID, core.Day(date))
}

// Submit saves a full attendance session. The session aggregates are computed
// once, before any write, and stamped identically on every record. Per-record
// upsert failures do not abort the batch: saved records stay committed and the
// failing student IDs are reported via PartialSaveError. Submit is therefore
// at-least-once, not atomic, across the batch.
func (svc *Service) Submit(ctx context.Context, ss SubmitSession) (SessionResult, error) {
	if err := ss.Validate(); err != nil {
		return SessionResult{}, err
	}

	day := core.Day(ss.Date)
	submitted, err := svc.repo.SessionSubmitted(ctx, ss.ClassID, ss.FacultyID, day)
	if err != nil {
		return SessionResult{}, err
	}
	if submitted {
		return SessionResult{}, ErrSessionAlreadySubmitted
	}

	// session aggregates, fixed for the whole batch
	total := len(ss.Records)
	present := 0
	for _, entry := range ss.Records {
		if entry.Status == StatusPresent {
			present++
		}
	}
	timestamp := time.Now().UTC()

	res := SessionResult{
		Stats: SessionStats{Total: total, Present: present, Absent: total - present, Timestamp: timestamp},
	}
	var failed []string
	for _, entry := range ss.Records {
		rec := Record{
			StudentID:        entry.StudentID,
			ClassID:          ss.ClassID,
			FacultyID:        ss.FacultyID,
			Date:             day,
			Status:           entry.Status,
			Type:             ss.Type,
			Remarks:          entry.Remarks,
			MarkedAt:         timestamp,
			SessionSubmitted: true,
			SessionTotal:     total,
			SessionPresent:   present,
			SessionTimestamp: timestamp,
			IsActive:         true,
		}
		if _, err := svc.repo.UpsertRecord(ctx, rec); err != nil {
			svc.log.Error(fmt.Sprintf("saving attendance for student %s in class %s", entry.StudentID, ss.ClassID), err)
			failed = append(failed, entry.StudentID)
			continue
		}
		res.SavedCount++
	}

	if len(failed) > 0 {
		return res, &PartialSaveError{StudentIDs: failed}
	}
	return res, nil
}

// SessionState returns the stored session of date's day along with its
// submission flag and stats; Stats is nil when no records exist yet.
func (svc *Service) SessionState(ctx context.Context, classID, facultyID string, date time.Time) (SessionState, error) {
	day := core.Day(date)

	records, err := svc.repo.QuerySession(ctx, classID, facultyID, day)
	if err != nil {
		return SessionState{}, err
	}
	submitted, err := svc.repo.SessionSubmitted(ctx, classID, facultyID, day)
	if err != nil {
		return SessionState{}, err
	}

	state := SessionState{Records: records, IsSubmitted: submitted}
	if len(records) > 0 {
		present := 0
		for _, rec := range records {
			if rec.Status == StatusPresent {
				present++
			}
		}
		state.Stats = &SessionStats{
			Total:     len(records),
			Present:   present,
			Absent:    len(records) - present,
			Timestamp: records[0].SessionTimestamp,
		}
	}
	return state, nil
}

// StudentPercentage computes a student's attendance percentage in a class,
// optionally bounded to [from, to]; 0 when no records exist.
func (svc *Service) StudentPercentage(ctx context.Context, studentID, classID string, from, to time.Time) (int, error) {
	total, present, err := svc.repo.CountRecords(ctx, studentID, classID, from, to)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return int(math.Round(float64(present) / float64(total) * 100)), nil
}
