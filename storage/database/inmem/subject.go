package inmemdb

import (
	"context"
	"sort"

	"github.com/roeiles/voortgang/core/subject"
)

type subjectRepository struct {
	db *subjectTable
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db.subject}
}

func (repo *subjectRepository) QuerySubjects(_ context.Context, filter subject.SubjectFilter) ([]subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]subject.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		if filter.Category != "" && sub.Category != filter.Category {
			continue
		}
		if filter.ActiveOnly && !sub.Active {
			continue
		}
		subjects = append(subjects, *sub)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects, nil
}

func (repo *subjectRepository) GetSubject(_ context.Context, id int) (subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) SetSubjectActive(_ context.Context, id int, active bool) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub, ok := repo.db.subjects[id]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	sub.Active = active
	return *sub, nil
}

func (repo *subjectRepository) QueryTests(_ context.Context) ([]subject.Test, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tests := make([]subject.Test, 0, len(repo.db.tests))
	for _, t := range repo.db.tests {
		tests = append(tests, *t)
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].ID < tests[j].ID })
	return tests, nil
}

func (repo *subjectRepository) GetTest(_ context.Context, id int) (subject.Test, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.tests[id]; ok {
		return *t, nil
	}
	return subject.Test{}, subject.ErrTestNotFound
}
