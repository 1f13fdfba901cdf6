package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/maabara/core/request"
)

type requestRepository struct {
	db *DB
}

var _ request.Repository = (*requestRepository)(nil)

func NewRequestRepository(db *DB) *requestRepository {
	return &requestRepository{db: db}
}

func (repo *requestRepository) CreateRequest(_ context.Context, req request.Request) (request.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	req.ID = uuid.New().String()
	repo.db.requests[req.ID] = &req
	return req, nil
}

func (repo *requestRepository) GetRequest(_ context.Context, id string) (request.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if req, ok := repo.db.requests[id]; ok {
		return *req, nil
	}
	return request.Request{}, request.ErrNotFound
}

func (repo *requestRepository) UpdateRequest(_ context.Context, req request.Request) (request.Request, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.requests[req.ID]; !ok {
		return request.Request{}, request.ErrNotFound
	}
	repo.db.requests[req.ID] = &req
	return req, nil
}

func (repo *requestRepository) PendingExists(_ context.Context, studentID, classID, facultyID, reqType string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, req := range repo.db.requests {
		if req.StudentID == studentID && req.ClassID == classID &&
			req.FacultyID == facultyID && req.Type == reqType &&
			req.Status == request.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (repo *requestRepository) QueryRequestsByStatus(_ context.Context, status string) ([]request.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	reqs := make([]request.Request, 0)
	for _, req := range repo.db.requests {
		if req.Status == status {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}
