package request

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/maabara/core"
	"github.com/trezcool/maabara/core/class"
	"github.com/trezcool/maabara/core/user"
)

type Service struct {
	repo    Repository
	classes class.Repository
	users   user.Repository
	mail    core.EmailService
	log     core.Logger
}

func NewService(repo Repository, classes class.Repository, users user.Repository, mailSvc core.EmailService, log core.Logger) *Service {
	return &Service{repo: repo, classes: classes, users: users, mail: mailSvc, log: log}
}

// Create files a new Pending request; an identical still-pending request is rejected.
func (svc *Service) Create(ctx context.Context, nr NewRequest) (Request, error) {
	if err := nr.Validate(); err != nil {
		return Request{}, err
	}

	exists, err := svc.repo.PendingExists(ctx, nr.StudentID, nr.ClassID, nr.FacultyID, nr.Type)
	if err != nil {
		return Request{}, err
	}
	if exists {
		return Request{}, ErrDuplicatePending
	}

	now := time.Now().UTC()
	req := Request{
		StudentID: nr.StudentID,
		ClassID:   nr.ClassID,
		FacultyID: nr.FacultyID,
		Type:      nr.Type,
		Reason:    nr.Reason,
		Status:    StatusPending,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateRequest(ctx, req)
}

// Review approves or rejects a pending request. Approval applies the roster
// mutation before the status flips; reviewed requests are terminal.
func (svc *Service) Review(ctx context.Context, requestID string, rv Review) (Request, error) {
	if err := rv.Validate(); err != nil {
		return Request{}, err
	}

	req, err := svc.repo.GetRequest(ctx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Reviewed() {
		return Request{}, ErrAlreadyReviewed
	}

	if rv.Approve {
		switch req.Type {
		case TypeAddStudent:
			err = svc.classes.AddStudent(ctx, req.ClassID, req.StudentID)
		case TypeRemoveStudent:
			err = svc.classes.RemoveStudent(ctx, req.ClassID, req.StudentID)
		}
		if err != nil {
			return Request{}, err
		}
		req.Status = StatusApproved
	} else {
		req.Status = StatusRejected
	}
	req.ReviewedBy = rv.ReviewerID
	req.ReviewedAt = time.Now().UTC()
	req.AdminComments = rv.Comments
	req.UpdatedAt = req.ReviewedAt

	req, err = svc.repo.UpdateRequest(ctx, req)
	if err != nil {
		return Request{}, err
	}

	svc.notifyFaculty(ctx, req)
	return req, nil
}

// Pending returns the requests awaiting review, newest first.
func (svc *Service) Pending(ctx context.Context) ([]Request, error) {
	return svc.repo.QueryRequestsByStatus(ctx, StatusPending)
}

// notifyFaculty emails the requesting faculty about the decision; failures
// are logged, never surfaced (the review itself already committed).
func (svc *Service) notifyFaculty(ctx context.Context, req Request) {
	faculty, err := svc.users.GetUser(ctx, user.GetFilter{ID: req.FacultyID})
	if err != nil {
		svc.log.Warn(fmt.Sprintf("request %s: cannot notify faculty %s", req.ID, req.FacultyID), err)
		return
	}

	action := "rejected"
	if req.Status == StatusApproved {
		action = "approved"
	}
	svc.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: faculty.Name, Address: faculty.Email}},
		Subject: "Student request " + action,
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour %s request for student %s in class %s has been %s.\n\nComments: %s\n",
			faculty.Name, req.Type, req.StudentID, req.ClassID, action, req.AdminComments),
	})
}
