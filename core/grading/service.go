package grading

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/subject"
	"github.com/roeiles/voortgang/core/user"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrNotAStudent     = errors.New("user is not a student")
	ErrNotATeacher     = errors.New("user is not a teacher")
	ErrSubjectInactive = errors.New("subject is not gradable")
)

var NowFunc = time.Now // mockable

type (
	Repository interface {
		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		QueryGrades(ctx context.Context, filter GradeFilter) ([]Grade, error)

		CreateCompletion(ctx context.Context, tc TestCompletion) (TestCompletion, error)
		QueryCompletions(ctx context.Context, filter CompletionFilter) ([]TestCompletion, error)
		// CountCompletions counts the completed rows of a (student, test) pair.
		CountCompletions(ctx context.Context, studentID string, testID int) (int, error)
		DeleteCompletion(ctx context.Context, id string) error

		CreateCategoryFeedback(ctx context.Context, fb CategoryFeedback) (CategoryFeedback, error)
		QueryCategoryFeedback(ctx context.Context, filter FeedbackFilter) ([]CategoryFeedback, error)
	}

	Service interface {
		LatestGrades(ctx context.Context, studentID string, subjectID, limit int) ([]Grade, error)
		AverageGrade(ctx context.Context, studentID string, subjectID int) (float64, error)
		GradeSeries(ctx context.Context, studentID string, subjectID int) ([]Grade, error)
		AddGrade(ctx context.Context, ng NewGrade) (Grade, error)

		CompletionCount(ctx context.Context, studentID string, testID int) (int, error)
		RecordCompletion(ctx context.Context, studentID string, testID int, completed bool) error
		SetCompletionCount(ctx context.Context, studentID string, testID, target int) (int, error)

		AddCategoryFeedback(ctx context.Context, nf NewCategoryFeedback) (CategoryFeedback, bool, error)
		FeedbackHistory(ctx context.Context, studentID string, cat subject.Category) ([]CategoryFeedback, error)
		LatestFeedback(ctx context.Context, studentID string, cat subject.Category) (*CategoryFeedback, error)

		StudentOverview(ctx context.Context, studentID string) (Overview, error)
		GradingForm(ctx context.Context, studentID string) (Form, error)
		SaveGrading(ctx context.Context, teacherID, studentID string, in GradingInput) (SaveResult, error)
		History(ctx context.Context, studentID string) (History, error)
	}

	service struct {
		repo     Repository
		users    user.Service
		subjects subject.Service
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users user.Service, subjects subject.Service, validate *validator.Validate) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(subjects, "subjects"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &service{
		repo:     repo,
		users:    users,
		subjects: subjects,
		validate: validate,
	}
}

// checkStudent makes sure id belongs to a student.
func (svc *service) checkStudent(ctx context.Context, id string) (user.User, error) {
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, core.NewFieldError("student_id", ErrStudentNotFound)
		}
		return user.User{}, errors.Wrap(err, "finding student")
	}
	if !usr.IsStudent() {
		return user.User{}, core.NewFieldError("student_id", ErrNotAStudent)
	}
	return usr, nil
}

// checkTeacher makes sure id belongs to a teacher or an admin.
func (svc *service) checkTeacher(ctx context.Context, id string) error {
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewFieldError("teacher_id", ErrNotATeacher)
		}
		return errors.Wrap(err, "finding teacher")
	}
	if !(usr.IsTeacher() || usr.IsAdmin()) {
		return core.NewFieldError("teacher_id", ErrNotATeacher)
	}
	return nil
}

// Grades

func (svc *service) LatestGrades(ctx context.Context, studentID string, subjectID, limit int) ([]Grade, error) {
	grades, err := svc.repo.QueryGrades(ctx, GradeFilter{StudentID: studentID, SubjectID: subjectID, Limit: limit})
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []Grade{}
	}
	return grades, nil
}

func (svc *service) AverageGrade(ctx context.Context, studentID string, subjectID int) (float64, error) {
	grades, err := svc.LatestGrades(ctx, studentID, subjectID, AverageWindow)
	if err != nil {
		return 0, err
	}
	return average(grades), nil
}

// GradeSeries returns every grade of the pair, oldest first.
func (svc *service) GradeSeries(ctx context.Context, studentID string, subjectID int) ([]Grade, error) {
	grades, err := svc.LatestGrades(ctx, studentID, subjectID, 0)
	if err != nil {
		return nil, err
	}
	series := make([]Grade, len(grades))
	for i, g := range grades {
		series[len(grades)-1-i] = g
	}
	return series, nil
}

func (svc *service) AddGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	ng.Feedback = core.CleanString(ng.Feedback)
	if err := svc.validate.Struct(ng); err != nil {
		return Grade{}, err
	}
	if _, err := svc.checkStudent(ctx, ng.StudentID); err != nil {
		return Grade{}, err
	}
	if err := svc.checkTeacher(ctx, ng.TeacherID); err != nil {
		return Grade{}, err
	}
	sub, err := svc.subjects.Get(ctx, ng.SubjectID)
	if err != nil {
		if errors.Cause(err) == subject.ErrNotFound {
			return Grade{}, core.NewFieldError("subject_id", subject.ErrNotFound)
		}
		return Grade{}, errors.Wrap(err, "finding subject")
	}
	if !sub.Active {
		return Grade{}, core.NewFieldError("subject_id", ErrSubjectInactive)
	}

	now := NowFunc().UTC()
	g, err := svc.repo.CreateGrade(ctx, Grade{
		StudentID: ng.StudentID,
		SubjectID: ng.SubjectID,
		Grade:     ng.Grade,
		TeacherID: ng.TeacherID,
		Feedback:  ng.Feedback,
		Date:      now,
		CreatedAt: now,
	})
	return g, errors.Wrap(err, "creating grade")
}

// Test completions

func (svc *service) CompletionCount(ctx context.Context, studentID string, testID int) (int, error) {
	cnt, err := svc.repo.CountCompletions(ctx, studentID, testID)
	if err != nil {
		return 0, errors.Wrap(err, "counting completions")
	}
	return cnt, nil
}

func (svc *service) checkCompletionArgs(ctx context.Context, studentID string, testID int) error {
	if _, err := svc.checkStudent(ctx, studentID); err != nil {
		return err
	}
	if _, err := svc.subjects.TestByID(ctx, testID); err != nil {
		if errors.Cause(err) == subject.ErrTestNotFound {
			return core.NewFieldError("test_id", subject.ErrTestNotFound)
		}
		return errors.Wrap(err, "finding test")
	}
	return nil
}

// RecordCompletion adds a completion, or removes the most recent one when completed is false.
// Removing when there is none is a no-op.
func (svc *service) RecordCompletion(ctx context.Context, studentID string, testID int, completed bool) error {
	if err := svc.checkCompletionArgs(ctx, studentID, testID); err != nil {
		return err
	}
	if completed {
		return svc.increment(ctx, studentID, testID)
	}
	return svc.decrement(ctx, studentID, testID)
}

func (svc *service) increment(ctx context.Context, studentID string, testID int) error {
	now := NowFunc().UTC()
	_, err := svc.repo.CreateCompletion(ctx, TestCompletion{
		StudentID: studentID,
		TestID:    testID,
		Completed: true,
		Date:      now,
		CreatedAt: now,
	})
	return errors.Wrap(err, "creating completion")
}

func (svc *service) decrement(ctx context.Context, studentID string, testID int) error {
	last, err := svc.repo.QueryCompletions(ctx, CompletionFilter{
		StudentID:     studentID,
		TestID:        testID,
		CompletedOnly: true,
		Limit:         1,
	})
	if err != nil {
		return errors.Wrap(err, "querying completions")
	}
	if len(last) == 0 {
		return nil
	}
	return errors.Wrap(svc.repo.DeleteCompletion(ctx, last[0].ID), "deleting completion")
}

// SetCompletionCount adds or removes completions until the pair counts target.
// It returns the number of writes applied.
func (svc *service) SetCompletionCount(ctx context.Context, studentID string, testID, target int) (int, error) {
	if err := svc.checkCompletionArgs(ctx, studentID, testID); err != nil {
		return 0, err
	}
	if target < 0 {
		target = 0
	}
	current, err := svc.CompletionCount(ctx, studentID, testID)
	if err != nil {
		return 0, err
	}

	var applied int
	for ; current < target; current++ {
		if err = svc.increment(ctx, studentID, testID); err != nil {
			return applied, err
		}
		applied++
	}
	for ; current > target; current-- {
		if err = svc.decrement(ctx, studentID, testID); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// Category feedback

// AddCategoryFeedback stores non-blank feedback. Blank feedback is skipped: added is false
// and nothing is written.
func (svc *service) AddCategoryFeedback(ctx context.Context, nf NewCategoryFeedback) (fb CategoryFeedback, added bool, err error) {
	nf.Feedback = core.CleanString(nf.Feedback)
	if nf.Feedback == "" {
		return CategoryFeedback{}, false, nil
	}
	if err = svc.validate.Struct(nf); err != nil {
		return CategoryFeedback{}, false, err
	}
	if !nf.Category.Valid() {
		return CategoryFeedback{}, false, core.NewFieldError("category", subject.ErrInvalidCategory)
	}
	if _, err = svc.checkStudent(ctx, nf.StudentID); err != nil {
		return CategoryFeedback{}, false, err
	}
	if err = svc.checkTeacher(ctx, nf.TeacherID); err != nil {
		return CategoryFeedback{}, false, err
	}

	now := NowFunc().UTC()
	fb, err = svc.repo.CreateCategoryFeedback(ctx, CategoryFeedback{
		StudentID: nf.StudentID,
		Category:  nf.Category,
		Feedback:  nf.Feedback,
		TeacherID: nf.TeacherID,
		Date:      now,
		CreatedAt: now,
	})
	if err != nil {
		return CategoryFeedback{}, false, errors.Wrap(err, "creating category feedback")
	}
	return fb, true, nil
}

func (svc *service) FeedbackHistory(ctx context.Context, studentID string, cat subject.Category) ([]CategoryFeedback, error) {
	if !cat.Valid() {
		return nil, core.NewFieldError("category", subject.ErrInvalidCategory)
	}
	fbs, err := svc.repo.QueryCategoryFeedback(ctx, FeedbackFilter{StudentID: studentID, Category: cat})
	if err != nil {
		return nil, errors.Wrap(err, "querying category feedback")
	}
	if fbs == nil {
		fbs = []CategoryFeedback{}
	}
	return fbs, nil
}

// LatestFeedback returns nil when the student has no feedback for cat.
func (svc *service) LatestFeedback(ctx context.Context, studentID string, cat subject.Category) (*CategoryFeedback, error) {
	fbs, err := svc.FeedbackHistory(ctx, studentID, cat)
	if err != nil || len(fbs) == 0 {
		return nil, err
	}
	return &fbs[0], nil
}

// average returns the mean grade, 0 meaning "not graded".
func average(grades []Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum int
	for _, g := range grades {
		sum += g.Grade
	}
	return float64(sum) / float64(len(grades))
}
