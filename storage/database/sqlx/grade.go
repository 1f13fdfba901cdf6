package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maabara/core/grade"
)

type gradeRow struct {
	ID        string `db:"id"`
	StudentID string `db:"student_id"`
	ClassID   string `db:"class_id"`
	Semester  int    `db:"semester"`
	Year      int    `db:"year"`

	CIA1 null.Int `db:"cia1"`
	CIA2 null.Int `db:"cia2"`
	CIA3 null.Int `db:"cia3"`
	MSE  null.Int `db:"mse"`
	ESE  null.Int `db:"ese"`

	CIATotal       int    `db:"cia_total"`
	ESETotal       int    `db:"ese_total"`
	PracticalTotal int    `db:"practical_total"`
	TotalMarks     int    `db:"total_marks"`
	Percentage     int    `db:"percentage"`
	LetterGrade    string `db:"letter_grade"`
	GradePoints    int    `db:"grade_points"`
	Status         string `db:"status"`

	GradedBy  string    `db:"graded_by"`
	GradedAt  time.Time `db:"graded_at"`
	Remarks   string    `db:"remarks"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r gradeRow) toRecord() grade.Record {
	assessments := grade.NewAssessmentSet()
	assessments.CIA1.Marks = r.CIA1
	assessments.CIA2.Marks = r.CIA2
	assessments.CIA3.Marks = r.CIA3
	assessments.MSE.Marks = r.MSE
	assessments.ESE.Marks = r.ESE

	return grade.Record{
		ID:          r.ID,
		StudentID:   r.StudentID,
		ClassID:     r.ClassID,
		Semester:    r.Semester,
		Year:        r.Year,
		Assessments: assessments,
		Totals: grade.Totals{
			CIATotal:       r.CIATotal,
			ESETotal:       r.ESETotal,
			PracticalTotal: r.PracticalTotal,
			TotalMarks:     r.TotalMarks,
			Percentage:     r.Percentage,
			LetterGrade:    r.LetterGrade,
			GradePoints:    r.GradePoints,
			Status:         r.Status,
		},
		GradedBy:  r.GradedBy,
		GradedAt:  r.GradedAt.UTC(),
		Remarks:   r.Remarks,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toGradeRow(rec grade.Record) gradeRow {
	return gradeRow{
		ID:        rec.ID,
		StudentID: rec.StudentID,
		ClassID:   rec.ClassID,
		Semester:  rec.Semester,
		Year:      rec.Year,

		CIA1: rec.Assessments.CIA1.Marks,
		CIA2: rec.Assessments.CIA2.Marks,
		CIA3: rec.Assessments.CIA3.Marks,
		MSE:  rec.Assessments.MSE.Marks,
		ESE:  rec.Assessments.ESE.Marks,

		CIATotal:       rec.CIATotal,
		ESETotal:       rec.ESETotal,
		PracticalTotal: rec.PracticalTotal,
		TotalMarks:     rec.TotalMarks,
		Percentage:     rec.Percentage,
		LetterGrade:    rec.LetterGrade,
		GradePoints:    rec.GradePoints,
		Status:         rec.Status,

		GradedBy:  rec.GradedBy,
		GradedAt:  rec.GradedAt.UTC(),
		Remarks:   rec.Remarks,
		IsActive:  rec.IsActive,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
}

type experimentRow struct {
	GradeID     string    `db:"grade_id"`
	Position    int       `db:"position"`
	Name        string    `db:"name"`
	Observation null.Int  `db:"observation"`
	Record      null.Int  `db:"record"`
	RecordedAt  time.Time `db:"recorded_at"`
	RecordedBy  string    `db:"recorded_by"`
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to grade.ErrNotFound
func (repo gradeRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return grade.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo gradeRepository) experiments(ctx context.Context, gradeID string) ([]grade.Experiment, error) {
	var rows []experimentRow
	q := "SELECT * FROM grade_experiments WHERE grade_id = $1 ORDER BY position"
	if err := repo.db.SelectContext(ctx, &rows, q, gradeID); err != nil {
		return nil, errors.Wrap(err, "querying experiments")
	}

	exps := make([]grade.Experiment, 0, len(rows))
	for _, row := range rows {
		exps = append(exps, grade.Experiment{
			Name:        row.Name,
			Observation: row.Observation,
			Record:      row.Record,
			RecordedAt:  row.RecordedAt.UTC(),
			RecordedBy:  row.RecordedBy,
		})
	}
	return exps, nil
}

// saveExperiments replaces the record's experiment list wholesale; positions
// follow slice order.
func (repo gradeRepository) saveExperiments(ctx context.Context, tx *sqlx.Tx, gradeID string, exps []grade.Experiment) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM grade_experiments WHERE grade_id = $1", gradeID); err != nil {
		return errors.Wrap(err, "clearing experiments")
	}

	q := `
	INSERT INTO grade_experiments (grade_id, position, name, observation, record, recorded_at, recorded_by)
	VALUES (:grade_id, :position, :name, :observation, :record, :recorded_at, :recorded_by)`
	for i, exp := range exps {
		row := experimentRow{
			GradeID:     gradeID,
			Position:    i,
			Name:        exp.Name,
			Observation: exp.Observation,
			Record:      exp.Record,
			RecordedAt:  exp.RecordedAt.UTC(),
			RecordedBy:  exp.RecordedBy,
		}
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			return errors.Wrap(err, "inserting experiment")
		}
	}
	return nil
}

func (repo gradeRepository) CreateGrade(ctx context.Context, rec grade.Record) (grade.Record, error) {
	rec.ID = uuid.New().String()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return grade.Record{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	INSERT INTO grades (id, student_id, class_id, semester, year,
	                    cia1, cia2, cia3, mse, ese,
	                    cia_total, ese_total, practical_total, total_marks, percentage, letter_grade, grade_points, status,
	                    graded_by, graded_at, remarks, is_active, created_at, updated_at)
	VALUES (:id, :student_id, :class_id, :semester, :year,
	        :cia1, :cia2, :cia3, :mse, :ese,
	        :cia_total, :ese_total, :practical_total, :total_marks, :percentage, :letter_grade, :grade_points, :status,
	        :graded_by, :graded_at, :remarks, :is_active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, q, toGradeRow(rec)); err != nil {
		if isUniqueViolation(err) {
			return grade.Record{}, grade.ErrRecordExists
		}
		return grade.Record{}, errors.Wrap(err, "inserting grade")
	}

	if err = repo.saveExperiments(ctx, tx, rec.ID, rec.Experiments); err != nil {
		return grade.Record{}, err
	}

	if err = tx.Commit(); err != nil {
		return grade.Record{}, errors.Wrap(err, "committing tx")
	}
	return rec, nil
}

func (repo gradeRepository) GetGrade(ctx context.Context, studentID, classID string) (grade.Record, error) {
	var row gradeRow
	q := "SELECT * FROM grades WHERE student_id = $1 AND class_id = $2 AND is_active"
	if err := repo.db.GetContext(ctx, &row, q, studentID, classID); err != nil {
		return grade.Record{}, repo.trapNoRowsErr(err, "finding grade")
	}
	rec := row.toRecord()

	exps, err := repo.experiments(ctx, rec.ID)
	if err != nil {
		return grade.Record{}, err
	}
	rec.Experiments = exps
	return rec, nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, rec grade.Record) (grade.Record, error) {
	rec.UpdatedAt = time.Now().UTC()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return grade.Record{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	UPDATE grades
	SET cia1 = :cia1, cia2 = :cia2, cia3 = :cia3, mse = :mse, ese = :ese,
	    cia_total = :cia_total, ese_total = :ese_total, practical_total = :practical_total,
	    total_marks = :total_marks, percentage = :percentage, letter_grade = :letter_grade,
	    grade_points = :grade_points, status = :status,
	    graded_by = :graded_by, graded_at = :graded_at, remarks = :remarks,
	    is_active = :is_active, updated_at = :updated_at
	WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, q, toGradeRow(rec))
	if err != nil {
		return grade.Record{}, errors.Wrap(err, "updating grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grade.Record{}, grade.ErrNotFound
	}

	if err = repo.saveExperiments(ctx, tx, rec.ID, rec.Experiments); err != nil {
		return grade.Record{}, err
	}

	if err = tx.Commit(); err != nil {
		return grade.Record{}, errors.Wrap(err, "committing tx")
	}
	return rec, nil
}

func (repo gradeRepository) QueryClassResults(ctx context.Context, classID string) ([]grade.ClassResult, error) {
	type resultRow struct {
		gradeRow
		StudentName  string `db:"student_name"`
		StudentEmail string `db:"student_email"`
	}

	var rows []resultRow
	q := `
	SELECT g.*, u.name AS student_name, u.email AS student_email
	FROM grades g
	         INNER JOIN users u ON u.id = g.student_id
	WHERE g.class_id = $1
	  AND g.is_active
	ORDER BY g.percentage DESC, u.name`
	if err := repo.db.SelectContext(ctx, &rows, q, classID); err != nil {
		return nil, errors.Wrap(err, "querying class results")
	}

	results := make([]grade.ClassResult, 0, len(rows))
	for _, row := range rows {
		rec := row.toRecord()
		exps, err := repo.experiments(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Experiments = exps
		results = append(results, grade.ClassResult{
			Record:       rec,
			StudentName:  row.StudentName,
			StudentEmail: row.StudentEmail,
		})
	}
	return results, nil
}
