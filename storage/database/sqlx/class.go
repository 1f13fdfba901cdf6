package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/maabara/core/class"
)

type classRow struct {
	ID          string    `db:"id"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	Subject     string    `db:"subject"`
	Description string    `db:"description"`
	Semester    int       `db:"semester"`
	Year        int       `db:"year"`
	FacultyID   string    `db:"faculty_id"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r classRow) toClass() class.Class {
	return class.Class{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Subject:     r.Subject,
		Description: r.Description,
		Semester:    r.Semester,
		Year:        r.Year,
		FacultyID:   r.FacultyID,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) *classRepository {
	return &classRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to class.ErrNotFound
func (repo classRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return class.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo classRepository) roster(ctx context.Context, classID string) ([]string, error) {
	var ids []string
	q := "SELECT student_id FROM class_students WHERE class_id = $1"
	if err := repo.db.SelectContext(ctx, &ids, q, classID); err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	return ids, nil
}

func (repo classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = uuid.New().String()
	q := `
	INSERT INTO classes (id, code, name, subject, description, semester, year, faculty_id, is_active, created_at, updated_at)
	VALUES (:id, :code, :name, :subject, :description, :semester, :year, :faculty_id, :is_active, :created_at, :updated_at)`
	row := classRow{
		ID:          cls.ID,
		Code:        cls.Code,
		Name:        cls.Name,
		Subject:     cls.Subject,
		Description: cls.Description,
		Semester:    cls.Semester,
		Year:        cls.Year,
		FacultyID:   cls.FacultyID,
		IsActive:    cls.IsActive,
		CreatedAt:   cls.CreatedAt.UTC(),
		UpdatedAt:   cls.UpdatedAt.UTC(),
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return class.Class{}, class.ErrCodeExists
		}
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo classRepository) GetClass(ctx context.Context, id string) (class.Class, error) {
	var row classRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM classes WHERE id = $1", id); err != nil {
		return class.Class{}, repo.trapNoRowsErr(err, "finding class")
	}
	cls := row.toClass()

	ids, err := repo.roster(ctx, id)
	if err != nil {
		return class.Class{}, err
	}
	cls.StudentIDs = ids
	return cls, nil
}

func (repo classRepository) QueryClassesByFaculty(ctx context.Context, facultyID string) ([]class.Class, error) {
	var rows []classRow
	q := "SELECT * FROM classes WHERE faculty_id = $1 AND is_active ORDER BY created_at DESC"
	if err := repo.db.SelectContext(ctx, &rows, q, facultyID); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}

	classes := make([]class.Class, 0, len(rows))
	for _, row := range rows {
		cls := row.toClass()
		ids, err := repo.roster(ctx, cls.ID)
		if err != nil {
			return nil, err
		}
		cls.StudentIDs = ids
		classes = append(classes, cls)
	}
	return classes, nil
}

func (repo classRepository) AddStudent(ctx context.Context, classID, studentID string) error {
	// re-enrolling is a no-op
	q := "INSERT INTO class_students (class_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING"
	if _, err := repo.db.ExecContext(ctx, q, classID, studentID); err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return nil
}

func (repo classRepository) RemoveStudent(ctx context.Context, classID, studentID string) error {
	q := "DELETE FROM class_students WHERE class_id = $1 AND student_id = $2"
	if _, err := repo.db.ExecContext(ctx, q, classID, studentID); err != nil {
		return errors.Wrap(err, "unenrolling student")
	}
	return nil
}
