package subject

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core"
)

var (
	// errors
	ErrNotFound     = errors.New("subject not found")
	ErrTestNotFound = errors.New("test not found")
)

type (
	Repository interface {
		// QuerySubjects returns the subjects matching filter, ordered by ID.
		QuerySubjects(ctx context.Context, filter SubjectFilter) ([]Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)
		SetSubjectActive(ctx context.Context, id int, active bool) (Subject, error)
		// QueryTests returns all tests, ordered by ID.
		QueryTests(ctx context.Context) ([]Test, error)
		GetTest(ctx context.Context, id int) (Test, error)
	}

	Service interface {
		All(ctx context.Context) ([]Subject, error)
		ByCategory(ctx context.Context, cat Category) ([]Subject, error)
		Gradable(ctx context.Context, cat Category) ([]Subject, error)
		Get(ctx context.Context, id int) (Subject, error)
		ToggleActive(ctx context.Context, id int, active bool) (Subject, error)
		Tests(ctx context.Context) ([]Test, error)
		TestByID(ctx context.Context, id int) (Test, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &service{repo: repo}
}

func (svc *service) All(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, SubjectFilter{})
}

func (svc *service) ByCategory(ctx context.Context, cat Category) ([]Subject, error) {
	if !cat.Valid() {
		return nil, core.NewFieldError("category", ErrInvalidCategory)
	}
	return svc.repo.QuerySubjects(ctx, SubjectFilter{Category: cat})
}

func (svc *service) Gradable(ctx context.Context, cat Category) ([]Subject, error) {
	if !cat.Valid() {
		return nil, core.NewFieldError("category", ErrInvalidCategory)
	}
	return svc.repo.QuerySubjects(ctx, SubjectFilter{Category: cat, ActiveOnly: true})
}

func (svc *service) Get(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) ToggleActive(ctx context.Context, id int, active bool) (Subject, error) {
	sub, err := svc.repo.SetSubjectActive(ctx, id, active)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Subject{}, ErrNotFound
		}
		return Subject{}, errors.Wrap(err, "setting subject active")
	}
	return sub, nil
}

func (svc *service) Tests(ctx context.Context) ([]Test, error) {
	return svc.repo.QueryTests(ctx)
}

func (svc *service) TestByID(ctx context.Context, id int) (Test, error) {
	return svc.repo.GetTest(ctx, id)
}
