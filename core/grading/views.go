package grading

import (
	"context"

	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/subject"
)

type (
	SubjectProgress struct {
		Subject subject.Subject `json:"subject"`
		Grades  []Grade         `json:"grades"` // latest AverageWindow grades, newest first
		Average float64         `json:"average"`
	}

	CategoryOverview struct {
		Category       subject.Category  `json:"category"`
		Subjects       []SubjectProgress `json:"subjects"`
		LatestFeedback *CategoryFeedback `json:"latest_feedback"`
	}

	TestProgress struct {
		Test  subject.Test `json:"test"`
		Count int          `json:"count"`
	}

	// Overview is what a student sees on their dashboard.
	// Inactive subjects are listed too, with their history.
	Overview struct {
		StudentID        string             `json:"student_id"`
		Categories       []CategoryOverview `json:"categories"`
		Tests            []TestProgress     `json:"tests"`
		TotalCompletions int                `json:"total_completions"`
	}

	FormSubject struct {
		Subject   subject.Subject `json:"subject"`
		LastGrade *Grade          `json:"last_grade"`
	}

	FormCategory struct {
		Category subject.Category `json:"category"`
		Subjects []FormSubject    `json:"subjects"`
		Feedback string           `json:"feedback"`
	}

	// Form is the state of the teacher grading form for a student: only gradable subjects.
	Form struct {
		StudentID  string         `json:"student_id"`
		Categories []FormCategory `json:"categories"`
		Tests      []TestProgress `json:"tests"`
	}

	SubjectHistory struct {
		Subject subject.Subject `json:"subject"`
		Grades  []Grade         `json:"grades"` // newest first
	}

	CategoryHistory struct {
		Category subject.Category   `json:"category"`
		Subjects []SubjectHistory   `json:"subjects"`
		Feedback []CategoryFeedback `json:"feedback"`
	}

	History struct {
		StudentID   string            `json:"student_id"`
		Categories  []CategoryHistory `json:"categories"`
		Tests       []TestProgress    `json:"tests"`
		Completions []TestCompletion  `json:"completions"`
	}
)

// studentRecords holds everything recorded on a student, grouped for the views.
type studentRecords struct {
	grades      map[int][]Grade // by subject, newest first
	feedback    map[subject.Category][]CategoryFeedback
	counts      map[int]int // completed, by test
	completions []TestCompletion
}

func (svc *service) loadRecords(ctx context.Context, studentID string) (studentRecords, error) {
	recs := studentRecords{
		grades:   make(map[int][]Grade),
		feedback: make(map[subject.Category][]CategoryFeedback),
		counts:   make(map[int]int),
	}

	grades, err := svc.repo.QueryGrades(ctx, GradeFilter{StudentID: studentID})
	if err != nil {
		return recs, errors.Wrap(err, "querying grades")
	}
	for _, g := range grades {
		recs.grades[g.SubjectID] = append(recs.grades[g.SubjectID], g)
	}

	fbs, err := svc.repo.QueryCategoryFeedback(ctx, FeedbackFilter{StudentID: studentID})
	if err != nil {
		return recs, errors.Wrap(err, "querying category feedback")
	}
	for _, fb := range fbs {
		recs.feedback[fb.Category] = append(recs.feedback[fb.Category], fb)
	}

	recs.completions, err = svc.repo.QueryCompletions(ctx, CompletionFilter{StudentID: studentID, CompletedOnly: true})
	if err != nil {
		return recs, errors.Wrap(err, "querying completions")
	}
	if recs.completions == nil {
		recs.completions = []TestCompletion{}
	}
	for _, tc := range recs.completions {
		recs.counts[tc.TestID]++
	}
	return recs, nil
}

func (svc *service) testProgress(ctx context.Context, counts map[int]int) ([]TestProgress, int, error) {
	tests, err := svc.subjects.Tests(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying tests")
	}
	var total int
	progress := make([]TestProgress, 0, len(tests))
	for _, t := range tests {
		progress = append(progress, TestProgress{Test: t, Count: counts[t.ID]})
		total += counts[t.ID]
	}
	return progress, total, nil
}

func (svc *service) StudentOverview(ctx context.Context, studentID string) (Overview, error) {
	if _, err := svc.checkStudent(ctx, studentID); err != nil {
		return Overview{}, err
	}
	recs, err := svc.loadRecords(ctx, studentID)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{StudentID: studentID, Categories: make([]CategoryOverview, 0, len(subject.AllCategories))}
	for _, cat := range subject.AllCategories {
		subjects, err := svc.subjects.ByCategory(ctx, cat)
		if err != nil {
			return Overview{}, errors.Wrap(err, "querying subjects")
		}
		co := CategoryOverview{Category: cat, Subjects: make([]SubjectProgress, 0, len(subjects))}
		for _, sub := range subjects {
			latest := recs.grades[sub.ID]
			if len(latest) > AverageWindow {
				latest = latest[:AverageWindow]
			}
			if latest == nil {
				latest = []Grade{}
			}
			co.Subjects = append(co.Subjects, SubjectProgress{Subject: sub, Grades: latest, Average: average(latest)})
		}
		if fbs := recs.feedback[cat]; len(fbs) > 0 {
			co.LatestFeedback = &fbs[0]
		}
		ov.Categories = append(ov.Categories, co)
	}

	ov.Tests, ov.TotalCompletions, err = svc.testProgress(ctx, recs.counts)
	if err != nil {
		return Overview{}, err
	}
	return ov, nil
}

func (svc *service) GradingForm(ctx context.Context, studentID string) (Form, error) {
	if _, err := svc.checkStudent(ctx, studentID); err != nil {
		return Form{}, err
	}
	recs, err := svc.loadRecords(ctx, studentID)
	if err != nil {
		return Form{}, err
	}

	form := Form{StudentID: studentID, Categories: make([]FormCategory, 0, len(subject.AllCategories))}
	for _, cat := range subject.AllCategories {
		subjects, err := svc.subjects.Gradable(ctx, cat)
		if err != nil {
			return Form{}, errors.Wrap(err, "querying gradable subjects")
		}
		fc := FormCategory{Category: cat, Subjects: make([]FormSubject, 0, len(subjects))}
		for _, sub := range subjects {
			fs := FormSubject{Subject: sub}
			if grades := recs.grades[sub.ID]; len(grades) > 0 {
				fs.LastGrade = &grades[0]
			}
			fc.Subjects = append(fc.Subjects, fs)
		}
		if fbs := recs.feedback[cat]; len(fbs) > 0 {
			fc.Feedback = fbs[0].Feedback
		}
		form.Categories = append(form.Categories, fc)
	}

	form.Tests, _, err = svc.testProgress(ctx, recs.counts)
	if err != nil {
		return Form{}, err
	}
	return form, nil
}

func (svc *service) History(ctx context.Context, studentID string) (History, error) {
	if _, err := svc.checkStudent(ctx, studentID); err != nil {
		return History{}, err
	}
	recs, err := svc.loadRecords(ctx, studentID)
	if err != nil {
		return History{}, err
	}

	hist := History{
		StudentID:   studentID,
		Categories:  make([]CategoryHistory, 0, len(subject.AllCategories)),
		Completions: recs.completions,
	}
	for _, cat := range subject.AllCategories {
		subjects, err := svc.subjects.ByCategory(ctx, cat)
		if err != nil {
			return History{}, errors.Wrap(err, "querying subjects")
		}
		ch := CategoryHistory{Category: cat, Subjects: []SubjectHistory{}, Feedback: recs.feedback[cat]}
		for _, sub := range subjects {
			if grades := recs.grades[sub.ID]; len(grades) > 0 {
				ch.Subjects = append(ch.Subjects, SubjectHistory{Subject: sub, Grades: grades})
			}
		}
		if ch.Feedback == nil {
			ch.Feedback = []CategoryFeedback{}
		}
		hist.Categories = append(hist.Categories, ch)
	}

	hist.Tests, _, err = svc.testProgress(ctx, recs.counts)
	if err != nil {
		return History{}, err
	}
	return hist, nil
}
