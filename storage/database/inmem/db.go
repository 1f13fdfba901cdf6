package inmemdb

import (
	"sync"

	"github.com/trezcool/maabara/core/attendance"
	"github.com/trezcool/maabara/core/class"
	"github.com/trezcool/maabara/core/grade"
	"github.com/trezcool/maabara/core/request"
	"github.com/trezcool/maabara/core/user"
)

// DB is an in-memory store for tests and local hacking. Repositories share
// the tables so cross-domain reads (e.g. class results joining users) work.
type DB struct {
	mutex sync.RWMutex

	users      map[string]*user.User
	classes    map[string]*class.Class
	grades     map[string]*grade.Record
	attendance map[string]*attendance.Record // keyed (studentID, classID, day)
	requests   map[string]*request.Request
}

func NewDB() *DB {
	return &DB{
		users:      make(map[string]*user.User),
		classes:    make(map[string]*class.Class),
		grades:     make(map[string]*grade.Record),
		attendance: make(map[string]*attendance.Record),
		requests:   make(map[string]*request.Request),
	}
}
