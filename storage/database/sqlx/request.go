package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maabara/core/request"
)

type requestRow struct {
	ID        string `db:"id"`
	StudentID string `db:"student_id"`
	ClassID   string `db:"class_id"`
	FacultyID string `db:"faculty_id"`
	Type      string `db:"request_type"`
	Reason    string `db:"reason"`
	Status    string `db:"status"`

	ReviewedBy    null.String `db:"reviewed_by"`
	ReviewedAt    null.Time   `db:"reviewed_at"`
	AdminComments string      `db:"admin_comments"`

	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r requestRow) toRequest() request.Request {
	return request.Request{
		ID:        r.ID,
		StudentID: r.StudentID,
		ClassID:   r.ClassID,
		FacultyID: r.FacultyID,
		Type:      r.Type,
		Reason:    r.Reason,
		Status:    r.Status,

		ReviewedBy:    r.ReviewedBy.String,
		ReviewedAt:    r.ReviewedAt.Time.UTC(),
		AdminComments: r.AdminComments,

		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toRequestRow(req request.Request) requestRow {
	return requestRow{
		ID:        req.ID,
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		FacultyID: req.FacultyID,
		Type:      req.Type,
		Reason:    req.Reason,
		Status:    req.Status,

		ReviewedBy:    null.NewString(req.ReviewedBy, req.ReviewedBy != ""),
		ReviewedAt:    null.NewTime(req.ReviewedAt.UTC(), !req.ReviewedAt.IsZero()),
		AdminComments: req.AdminComments,

		IsActive:  req.IsActive,
		CreatedAt: req.CreatedAt.UTC(),
		UpdatedAt: req.UpdatedAt.UTC(),
	}
}

type requestRepository struct {
	db *sqlx.DB
}

var _ request.Repository = (*requestRepository)(nil) // interface compliance check

func NewRequestRepository(db *sqlx.DB) *requestRepository {
	return &requestRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to request.ErrNotFound
func (repo requestRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return request.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo requestRepository) CreateRequest(ctx context.Context, req request.Request) (request.Request, error) {
	req.ID = uuid.New().String()
	q := `
	INSERT INTO student_requests (id, student_id, class_id, faculty_id, request_type, reason, status,
	                              reviewed_by, reviewed_at, admin_comments, is_active, created_at, updated_at)
	VALUES (:id, :student_id, :class_id, :faculty_id, :request_type, :reason, :status,
	        :reviewed_by, :reviewed_at, :admin_comments, :is_active, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toRequestRow(req)); err != nil {
		return request.Request{}, errors.Wrap(err, "inserting request")
	}
	return req, nil
}

func (repo requestRepository) GetRequest(ctx context.Context, id string) (request.Request, error) {
	var row requestRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM student_requests WHERE id = $1", id); err != nil {
		return request.Request{}, repo.trapNoRowsErr(err, "finding request")
	}
	return row.toRequest(), nil
}

func (repo requestRepository) UpdateRequest(ctx context.Context, req request.Request) (request.Request, error) {
	req.UpdatedAt = time.Now().UTC()
	q := `
	UPDATE student_requests
	SET status         = :status,
	    reviewed_by    = :reviewed_by,
	    reviewed_at    = :reviewed_at,
	    admin_comments = :admin_comments,
	    is_active      = :is_active,
	    updated_at     = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toRequestRow(req))
	if err != nil {
		return request.Request{}, errors.Wrap(err, "updating request")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return request.Request{}, request.ErrNotFound
	}
	return req, nil
}

func (repo requestRepository) PendingExists(ctx context.Context, studentID, classID, facultyID, reqType string) (bool, error) {
	var exists bool
	q := `
	SELECT EXISTS(SELECT 1
	              FROM student_requests
	              WHERE student_id = $1
	                AND class_id = $2
	                AND faculty_id = $3
	                AND request_type = $4
	                AND status = 'Pending')`
	if err := repo.db.GetContext(ctx, &exists, q, studentID, classID, facultyID, reqType); err != nil {
		return false, errors.Wrap(err, "checking pending request")
	}
	return exists, nil
}

func (repo requestRepository) QueryRequestsByStatus(ctx context.Context, status string) ([]request.Request, error) {
	var rows []requestRow
	q := "SELECT * FROM student_requests WHERE status = $1 ORDER BY created_at DESC"
	if err := repo.db.SelectContext(ctx, &rows, q, status); err != nil {
		return nil, errors.Wrap(err, "querying requests")
	}

	reqs := make([]request.Request, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.toRequest())
	}
	return reqs, nil
}
