package class

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/trezcool/maabara/core"
)

var (
	// errors
	ErrNotFound   = errors.New("class not found")
	ErrCodeExists = errors.New("a class with this code already exists")
)

type Class struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Semester    int       `json:"semester"`
	Year        int       `json:"year"`
	FacultyID   string    `json:"faculty_id"`
	StudentIDs  []string  `json:"student_ids"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (c *Class) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=100"`
	Subject     string `json:"subject" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Semester    int    `json:"semester" validate:"required,min=1,max=8"`
	Year        int    `json:"year" validate:"required,min=2020,max=2030"`
	FacultyID   string `json:"faculty_id" validate:"required"`
}

func (nc *NewClass) Validate() error {
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Description = core.CleanString(nc.Description)
	return core.TranslateValidationErrors(core.Validate.Struct(nc))
}

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		// GetClass returns the class and its current roster.
		GetClass(ctx context.Context, id string) (Class, error)
		QueryClassesByFaculty(ctx context.Context, facultyID string) ([]Class, error)
		// AddStudent enrolls a student; enrolling an already-enrolled student is a no-op.
		AddStudent(ctx context.Context, classID, studentID string) error
		RemoveStudent(ctx context.Context, classID, studentID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	if err := nc.Validate(); err != nil {
		return Class{}, err
	}
	now := time.Now().UTC()
	cls := Class{
		Code:        nc.Code,
		Name:        nc.Name,
		Subject:     nc.Subject,
		Description: nc.Description,
		Semester:    nc.Semester,
		Year:        nc.Year,
		FacultyID:   nc.FacultyID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) QueryByFaculty(ctx context.Context, facultyID string) ([]Class, error) {
	return svc.repo.QueryClassesByFaculty(ctx, facultyID)
}

func (svc *Service) Enroll(ctx context.Context, classID, studentID string) error {
	return svc.repo.AddStudent(ctx, classID, studentID)
}

func (svc *Service) Unenroll(ctx context.Context, classID, studentID string) error {
	return svc.repo.RemoveStudent(ctx, classID, studentID)
}
