package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/maabara/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func copyRecord(rec *grade.Record) grade.Record {
	r := *rec
	r.Experiments = append([]grade.Experiment(nil), rec.Experiments...)
	return r
}

func (repo *gradeRepository) CreateGrade(_ context.Context, rec grade.Record) (grade.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range repo.db.grades {
		if r.StudentID == rec.StudentID && r.ClassID == rec.ClassID &&
			r.Semester == rec.Semester && r.Year == rec.Year {
			return grade.Record{}, grade.ErrRecordExists
		}
	}

	rec.ID = uuid.New().String()
	stored := copyRecord(&rec)
	repo.db.grades[rec.ID] = &stored
	return rec, nil
}

func (repo *gradeRepository) GetGrade(_ context.Context, studentID, classID string) (grade.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rec := range repo.db.grades {
		if rec.StudentID == studentID && rec.ClassID == classID && rec.IsActive {
			return copyRecord(rec), nil
		}
	}
	return grade.Record{}, grade.ErrNotFound
}

func (repo *gradeRepository) UpdateGrade(_ context.Context, rec grade.Record) (grade.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.grades[rec.ID]; !ok {
		return grade.Record{}, grade.ErrNotFound
	}
	stored := copyRecord(&rec)
	repo.db.grades[rec.ID] = &stored
	return rec, nil
}

func (repo *gradeRepository) QueryClassResults(_ context.Context, classID string) ([]grade.ClassResult, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	results := make([]grade.ClassResult, 0)
	for _, rec := range repo.db.grades {
		if rec.ClassID != classID || !rec.IsActive {
			continue
		}
		res := grade.ClassResult{Record: copyRecord(rec)}
		if usr, ok := repo.db.users[rec.StudentID]; ok {
			res.StudentName = usr.Name
			res.StudentEmail = usr.Email
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Percentage != results[j].Percentage {
			return results[i].Percentage > results[j].Percentage
		}
		return results[i].StudentName < results[j].StudentName
	})
	return results, nil
}
