package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/maabara/core/class"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, c := range repo.db.classes {
		if c.Code == cls.Code {
			return class.Class{}, class.ErrCodeExists
		}
	}

	cls.ID = uuid.New().String()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClass(_ context.Context, id string) (class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		c := *cls
		c.StudentIDs = append([]string(nil), cls.StudentIDs...)
		return c, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) QueryClassesByFaculty(_ context.Context, facultyID string) ([]class.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]class.Class, 0)
	for _, cls := range repo.db.classes {
		if cls.FacultyID == facultyID && cls.IsActive {
			c := *cls
			c.StudentIDs = append([]string(nil), cls.StudentIDs...)
			classes = append(classes, c)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.After(classes[j].CreatedAt) })
	return classes, nil
}

func (repo *classRepository) AddStudent(_ context.Context, classID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls, ok := repo.db.classes[classID]
	if !ok {
		return class.ErrNotFound
	}
	if cls.HasStudent(studentID) {
		return nil
	}
	cls.StudentIDs = append(cls.StudentIDs, studentID)
	return nil
}

func (repo *classRepository) RemoveStudent(_ context.Context, classID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls, ok := repo.db.classes[classID]
	if !ok {
		return class.ErrNotFound
	}
	for i, id := range cls.StudentIDs {
		if id == studentID {
			cls.StudentIDs = append(cls.StudentIDs[:i], cls.StudentIDs[i+1:]...)
			return nil
		}
	}
	return nil
}
