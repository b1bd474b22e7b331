package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/roeiles/voortgang/core/grading"
	"github.com/roeiles/voortgang/core/subject"
)

var errCompletionNotFound = errors.New("test completion not found")

type (
	gradeRow struct {
		ID        string      `db:"id"`
		StudentID string      `db:"student_id"`
		SubjectID int         `db:"subject_id"`
		Grade     int         `db:"grade"`
		TeacherID null.String `db:"teacher_id"`
		Feedback  null.String `db:"feedback"`
		Date      time.Time   `db:"date"`
		CreatedAt time.Time   `db:"created_at"`
	}

	completionRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		TestID    int       `db:"test_id"`
		Completed bool      `db:"completed"`
		Date      time.Time `db:"date"`
		CreatedAt time.Time `db:"created_at"`
	}

	feedbackRow struct {
		ID        string      `db:"id"`
		StudentID string      `db:"student_id"`
		Category  string      `db:"category"`
		Feedback  string      `db:"feedback"`
		TeacherID null.String `db:"teacher_id"`
		Date      time.Time   `db:"date"`
		CreatedAt time.Time   `db:"created_at"`
	}
)

func (row gradeRow) toGrade() grading.Grade {
	return grading.Grade{
		ID:        row.ID,
		StudentID: row.StudentID,
		SubjectID: row.SubjectID,
		Grade:     row.Grade,
		TeacherID: row.TeacherID.String,
		Feedback:  row.Feedback.String,
		Date:      row.Date.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (row completionRow) toCompletion() grading.TestCompletion {
	return grading.TestCompletion{
		ID:        row.ID,
		StudentID: row.StudentID,
		TestID:    row.TestID,
		Completed: row.Completed,
		Date:      row.Date.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (row feedbackRow) toFeedback() grading.CategoryFeedback {
	return grading.CategoryFeedback{
		ID:        row.ID,
		StudentID: row.StudentID,
		Category:  subject.Category(row.Category),
		Feedback:  row.Feedback,
		TeacherID: row.TeacherID.String,
		Date:      row.Date.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
	}
}

// conditions accumulates a WHERE clause with positional arguments.
type conditions struct {
	where []string
	args  []interface{}
}

func (c *conditions) add(expr string, v interface{}) {
	c.args = append(c.args, v)
	c.where = append(c.where, strings.Replace(expr, "?", "$"+strconv.Itoa(len(c.args)), 1))
}

// query renders "SELECT cols FROM table WHERE ... ORDER BY date DESC, seq DESC [LIMIT n]".
func (c *conditions) query(cols, table string, limit int) string {
	q := "SELECT " + cols + " FROM " + table
	if len(c.where) > 0 {
		q += " WHERE " + strings.Join(c.where, " AND ")
	}
	q += " ORDER BY date DESC, seq DESC"
	if limit > 0 {
		q += " LIMIT " + strconv.Itoa(limit)
	}
	return q
}

type gradingRepository struct {
	db *sqlx.DB
}

var _ grading.Repository = (*gradingRepository)(nil)

func NewGradingRepository(db *sqlx.DB) grading.Repository {
	return &gradingRepository{db: db}
}

const gradeColumns = "id, student_id, subject_id, grade, teacher_id, feedback, date, created_at"

func (repo *gradingRepository) CreateGrade(ctx context.Context, g grading.Grade) (grading.Grade, error) {
	g.ID = uuid.New().String()
	row := gradeRow{
		ID:        g.ID,
		StudentID: g.StudentID,
		SubjectID: g.SubjectID,
		Grade:     g.Grade,
		TeacherID: null.NewString(g.TeacherID, g.TeacherID != ""),
		Feedback:  null.NewString(g.Feedback, g.Feedback != ""),
		Date:      g.Date,
		CreatedAt: g.CreatedAt,
	}
	const q = `INSERT INTO grades (` + gradeColumns + `)
		VALUES (:id, :student_id, :subject_id, :grade, :teacher_id, :feedback, :date, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return grading.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo *gradingRepository) QueryGrades(ctx context.Context, filter grading.GradeFilter) ([]grading.Grade, error) {
	var c conditions
	if filter.StudentID != "" {
		c.add("student_id = ?", filter.StudentID)
	}
	if filter.SubjectID != 0 {
		c.add("subject_id = ?", filter.SubjectID)
	}

	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, c.query(gradeColumns, "grades", filter.Limit), c.args...); err != nil {
		return nil, errors.Wrap(err, "selecting grades")
	}
	grades := make([]grading.Grade, len(rows))
	for i, row := range rows {
		grades[i] = row.toGrade()
	}
	return grades, nil
}

const completionColumns = "id, student_id, test_id, completed, date, created_at"

func (repo *gradingRepository) CreateCompletion(ctx context.Context, tc grading.TestCompletion) (grading.TestCompletion, error) {
	tc.ID = uuid.New().String()
	const q = `INSERT INTO test_completions (` + completionColumns + `)
		VALUES (:id, :student_id, :test_id, :completed, :date, :created_at)`
	row := completionRow{
		ID:        tc.ID,
		StudentID: tc.StudentID,
		TestID:    tc.TestID,
		Completed: tc.Completed,
		Date:      tc.Date,
		CreatedAt: tc.CreatedAt,
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return grading.TestCompletion{}, errors.Wrap(err, "inserting test completion")
	}
	return tc, nil
}

func (repo *gradingRepository) QueryCompletions(ctx context.Context, filter grading.CompletionFilter) ([]grading.TestCompletion, error) {
	var c conditions
	if filter.StudentID != "" {
		c.add("student_id = ?", filter.StudentID)
	}
	if filter.TestID != 0 {
		c.add("test_id = ?", filter.TestID)
	}
	if filter.CompletedOnly {
		c.add("completed = ?", true)
	}

	var rows []completionRow
	if err := repo.db.SelectContext(ctx, &rows, c.query(completionColumns, "test_completions", filter.Limit), c.args...); err != nil {
		return nil, errors.Wrap(err, "selecting test completions")
	}
	completions := make([]grading.TestCompletion, len(rows))
	for i, row := range rows {
		completions[i] = row.toCompletion()
	}
	return completions, nil
}

func (repo *gradingRepository) CountCompletions(ctx context.Context, studentID string, testID int) (int, error) {
	var n int
	const q = "SELECT COUNT(*) FROM test_completions WHERE student_id = $1 AND test_id = $2 AND completed"
	if err := repo.db.GetContext(ctx, &n, q, studentID, testID); err != nil {
		return 0, errors.Wrap(err, "counting test completions")
	}
	return n, nil
}

func (repo *gradingRepository) DeleteCompletion(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM test_completions WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting test completion")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errCompletionNotFound
	}
	return nil
}

const feedbackColumns = "id, student_id, category, feedback, teacher_id, date, created_at"

func (repo *gradingRepository) CreateCategoryFeedback(ctx context.Context, fb grading.CategoryFeedback) (grading.CategoryFeedback, error) {
	fb.ID = uuid.New().String()
	const q = `INSERT INTO category_feedback (` + feedbackColumns + `)
		VALUES (:id, :student_id, :category, :feedback, :teacher_id, :date, :created_at)`
	row := feedbackRow{
		ID:        fb.ID,
		StudentID: fb.StudentID,
		Category:  string(fb.Category),
		Feedback:  fb.Feedback,
		TeacherID: null.NewString(fb.TeacherID, fb.TeacherID != ""),
		Date:      fb.Date,
		CreatedAt: fb.CreatedAt,
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return grading.CategoryFeedback{}, errors.Wrap(err, "inserting category feedback")
	}
	return fb, nil
}

func (repo *gradingRepository) QueryCategoryFeedback(ctx context.Context, filter grading.FeedbackFilter) ([]grading.CategoryFeedback, error) {
	var c conditions
	if filter.StudentID != "" {
		c.add("student_id = ?", filter.StudentID)
	}
	if filter.Category != "" {
		c.add("category = ?", string(filter.Category))
	}

	var rows []feedbackRow
	if err := repo.db.SelectContext(ctx, &rows, c.query(feedbackColumns, "category_feedback", filter.Limit), c.args...); err != nil {
		return nil, errors.Wrap(err, "selecting category feedback")
	}
	fbs := make([]grading.CategoryFeedback, len(rows))
	for i, row := range rows {
		fbs[i] = row.toFeedback()
	}
	return fbs, nil
}
