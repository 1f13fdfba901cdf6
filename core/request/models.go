package request

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/maabara/core"
)

var (
	// errors
	ErrNotFound         = errors.New("request not found")
	ErrDuplicatePending = errors.New("a similar request is already pending")
	// ErrAlreadyReviewed guards the terminal states: a reviewed request can
	// never be re-reviewed.
	ErrAlreadyReviewed = errors.New("request has already been reviewed")
)

// Request types
const (
	TypeAddStudent    = "ADD_STUDENT"
	TypeRemoveStudent = "REMOVE_STUDENT"
)

// Statuses; Pending -> Approved | Rejected, terminal once reviewed.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Request is a faculty's roster-change request awaiting admin review.
type Request struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
	FacultyID string `json:"faculty_id"`
	Type      string `json:"request_type"`
	Reason    string `json:"reason"`
	Status    string `json:"status"`

	ReviewedBy    string    `json:"reviewed_by"`
	ReviewedAt    time.Time `json:"reviewed_at"` // UTC
	AdminComments string    `json:"admin_comments"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (r *Request) Reviewed() bool { return r.Status != StatusPending }

// NewRequest contains information needed to file a roster-change request.
type NewRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	FacultyID string `json:"faculty_id" validate:"required"`
	Type      string `json:"request_type" validate:"required,oneof=ADD_STUDENT REMOVE_STUDENT"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

func (nr *NewRequest) Validate() error {
	nr.Reason = core.CleanString(nr.Reason)
	return core.TranslateValidationErrors(core.Validate.Struct(nr))
}

// Review carries an admin's decision on a pending request.
type Review struct {
	Approve    bool   `json:"approve"`
	ReviewerID string `json:"reviewer_id" validate:"required"`
	Comments   string `json:"comments" validate:"max=500"`
}

func (rv *Review) Validate() error {
	rv.Comments = core.CleanString(rv.Comments)
	return core.TranslateValidationErrors(core.Validate.Struct(rv))
}

type Repository interface {
	CreateRequest(ctx context.Context, req Request) (Request, error)
	GetRequest(ctx context.Context, id string) (Request, error)
	UpdateRequest(ctx context.Context, req Request) (Request, error)
	// PendingExists reports whether an identical Pending request exists.
	PendingExists(ctx context.Context, studentID, classID, facultyID, reqType string) (bool, error)
	// QueryRequestsByStatus returns requests in that status, newest first.
	QueryRequestsByStatus(ctx context.Context, status string) ([]Request, error)
}
