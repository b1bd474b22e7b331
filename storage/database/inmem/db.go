package inmemdb

import (
	"sync"

	"github.com/roeiles/voortgang/core/grading"
	"github.com/roeiles/voortgang/core/session"
	"github.com/roeiles/voortgang/core/subject"
	"github.com/roeiles/voortgang/core/user"
)

type (
	// DB is an in-memory stand-in for the PostgreSQL database, used by tests and local runs.
	DB struct {
		user        *userTable
		subject     *subjectTable
		grade       *gradeTable
		completion  *completionTable
		feedback    *feedbackTable
		sessionData *sessionTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	subjectTable struct {
		sync.RWMutex
		subjects map[int]*subject.Subject
		tests    map[int]*subject.Test
	}

	// rows of the append-only tables carry an insertion sequence to break date ties.
	gradeRow struct {
		grading.Grade
		seq int
	}
	gradeTable struct {
		sync.RWMutex
		seq  int
		rows []gradeRow
	}

	completionRow struct {
		grading.TestCompletion
		seq int
	}
	completionTable struct {
		sync.RWMutex
		seq  int
		rows []completionRow
	}

	feedbackRow struct {
		grading.CategoryFeedback
		seq int
	}
	feedbackTable struct {
		sync.RWMutex
		seq  int
		rows []feedbackRow
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]session.Session
	}
)

// Open returns an empty database seeded with the default subject and test catalog.
func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		subject:     &subjectTable{subjects: make(map[int]*subject.Subject), tests: make(map[int]*subject.Test)},
		grade:       &gradeTable{},
		completion:  &completionTable{},
		feedback:    &feedbackTable{},
		sessionData: &sessionTable{table: make(map[string]session.Session)},
	}
	for _, sub := range subject.DefaultSubjects() {
		sub := sub
		db.subject.subjects[sub.ID] = &sub
	}
	for _, t := range subject.DefaultTests() {
		t := t
		db.subject.tests[t.ID] = &t
	}
	return db, nil
}
