package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/subject"
)

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *sqlx.DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) QuerySubjects(ctx context.Context, filter subject.SubjectFilter) ([]subject.Subject, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, "category = $1")
	}
	if filter.ActiveOnly {
		where = append(where, "active")
	}

	q := "SELECT id, name, category, active FROM subjects"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	subjects := make([]subject.Subject, 0)
	if err := repo.db.SelectContext(ctx, &subjects, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	return subjects, nil
}

func (repo *subjectRepository) GetSubject(ctx context.Context, id int) (subject.Subject, error) {
	var sub subject.Subject
	err := repo.db.GetContext(ctx, &sub, "SELECT id, name, category, active FROM subjects WHERE id = $1", id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, errors.Wrap(err, "selecting subject")
	}
	return sub, nil
}

func (repo *subjectRepository) SetSubjectActive(ctx context.Context, id int, active bool) (subject.Subject, error) {
	var sub subject.Subject
	err := repo.db.GetContext(ctx, &sub,
		"UPDATE subjects SET active = $2 WHERE id = $1 RETURNING id, name, category, active", id, active)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	return sub, nil
}

func (repo *subjectRepository) QueryTests(ctx context.Context) ([]subject.Test, error) {
	tests := make([]subject.Test, 0)
	if err := repo.db.SelectContext(ctx, &tests, "SELECT id, name, description FROM tests ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "selecting tests")
	}
	return tests, nil
}

func (repo *subjectRepository) GetTest(ctx context.Context, id int) (subject.Test, error) {
	var t subject.Test
	if err := repo.db.GetContext(ctx, &t, "SELECT id, name, description FROM tests WHERE id = $1", id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return subject.Test{}, subject.ErrTestNotFound
		}
		return subject.Test{}, errors.Wrap(err, "selecting test")
	}
	return t, nil
}
