package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/grading"
)

var errCompletionNotFound = errors.New("test completion not found")

type gradingRepository struct {
	grades      *gradeTable
	completions *completionTable
	feedback    *feedbackTable
}

var _ grading.Repository = (*gradingRepository)(nil)

func NewGradingRepository(db *DB) grading.Repository {
	return &gradingRepository{
		grades:      db.grade,
		completions: db.completion,
		feedback:    db.feedback,
	}
}

// newestFirst orders by date, then by insertion.
func newestFirst(dateI, dateJ time.Time, seqI, seqJ int) bool {
	if !dateI.Equal(dateJ) {
		return dateI.After(dateJ)
	}
	return seqI > seqJ
}

func truncate(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

func (repo *gradingRepository) CreateGrade(_ context.Context, g grading.Grade) (grading.Grade, error) {
	repo.grades.Lock()
	defer repo.grades.Unlock()

	repo.grades.seq++
	g.ID = uuid.New().String()
	repo.grades.rows = append(repo.grades.rows, gradeRow{Grade: g, seq: repo.grades.seq})
	return g, nil
}

func (repo *gradingRepository) QueryGrades(_ context.Context, filter grading.GradeFilter) ([]grading.Grade, error) {
	repo.grades.RLock()
	defer repo.grades.RUnlock()

	rows := make([]gradeRow, 0)
	for _, r := range repo.grades.rows {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectID != 0 && r.SubjectID != filter.SubjectID {
			continue
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return newestFirst(rows[i].Date, rows[j].Date, rows[i].seq, rows[j].seq) })

	grades := make([]grading.Grade, truncate(len(rows), filter.Limit))
	for i := range grades {
		grades[i] = rows[i].Grade
	}
	return grades, nil
}

func (repo *gradingRepository) CreateCompletion(_ context.Context, tc grading.TestCompletion) (grading.TestCompletion, error) {
	repo.completions.Lock()
	defer repo.completions.Unlock()

	repo.completions.seq++
	tc.ID = uuid.New().String()
	repo.completions.rows = append(repo.completions.rows, completionRow{TestCompletion: tc, seq: repo.completions.seq})
	return tc, nil
}

func (repo *gradingRepository) QueryCompletions(_ context.Context, filter grading.CompletionFilter) ([]grading.TestCompletion, error) {
	repo.completions.RLock()
	defer repo.completions.RUnlock()

	rows := make([]completionRow, 0)
	for _, r := range repo.completions.rows {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.TestID != 0 && r.TestID != filter.TestID {
			continue
		}
		if filter.CompletedOnly && !r.Completed {
			continue
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return newestFirst(rows[i].Date, rows[j].Date, rows[i].seq, rows[j].seq) })

	completions := make([]grading.TestCompletion, truncate(len(rows), filter.Limit))
	for i := range completions {
		completions[i] = rows[i].TestCompletion
	}
	return completions, nil
}

func (repo *gradingRepository) CountCompletions(_ context.Context, studentID string, testID int) (int, error) {
	repo.completions.RLock()
	defer repo.completions.RUnlock()

	var n int
	for _, r := range repo.completions.rows {
		if r.StudentID == studentID && r.TestID == testID && r.Completed {
			n++
		}
	}
	return n, nil
}

func (repo *gradingRepository) DeleteCompletion(_ context.Context, id string) error {
	repo.completions.Lock()
	defer repo.completions.Unlock()

	for i, r := range repo.completions.rows {
		if r.ID == id {
			repo.completions.rows = append(repo.completions.rows[:i], repo.completions.rows[i+1:]...)
			return nil
		}
	}
	return errCompletionNotFound
}

func (repo *gradingRepository) CreateCategoryFeedback(_ context.Context, fb grading.CategoryFeedback) (grading.CategoryFeedback, error) {
	repo.feedback.Lock()
	defer repo.feedback.Unlock()

	repo.feedback.seq++
	fb.ID = uuid.New().String()
	repo.feedback.rows = append(repo.feedback.rows, feedbackRow{CategoryFeedback: fb, seq: repo.feedback.seq})
	return fb, nil
}

func (repo *gradingRepository) QueryCategoryFeedback(_ context.Context, filter grading.FeedbackFilter) ([]grading.CategoryFeedback, error) {
	repo.feedback.RLock()
	defer repo.feedback.RUnlock()

	rows := make([]feedbackRow, 0)
	for _, r := range repo.feedback.rows {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return newestFirst(rows[i].Date, rows[j].Date, rows[i].seq, rows[j].seq) })

	fbs := make([]grading.CategoryFeedback, truncate(len(rows), filter.Limit))
	for i := range fbs {
		fbs[i] = rows[i].CategoryFeedback
	}
	return fbs, nil
}
