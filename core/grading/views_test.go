package grading_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/grading"
	"github.com/roeiles/voortgang/core/subject"
)

func findSubject(t *testing.T, subjects []grading.SubjectProgress, id int) grading.SubjectProgress {
	t.Helper()
	for _, sp := range subjects {
		if sp.Subject.ID == id {
			return sp
		}
	}
	t.Fatalf("subject %d not in overview", id)
	return grading.SubjectProgress{}
}

func TestService_StudentOverview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tick := freezeTime(t)

	for _, v := range []int{1, 2, 3, 3} {
		f.grade(t, bootbehandeling, v)
		tick()
	}
	f.grade(t, riemen, 2)
	_, err := f.env.SubjectSvc.ToggleActive(ctx, riemen, false)
	require.NoError(t, err)

	_, _, err = f.svc.AddCategoryFeedback(ctx, grading.NewCategoryFeedback{
		StudentID: f.student.ID, Category: subject.CategoryVerrichtingen, Feedback: "goed bezig", TeacherID: f.teacher.ID,
	})
	require.NoError(t, err)
	_, err = f.svc.SetCompletionCount(ctx, f.student.ID, theorieBasis, 2)
	require.NoError(t, err)
	_, err = f.svc.SetCompletionCount(ctx, f.student.ID, praktijkBasis, 1)
	require.NoError(t, err)

	ov, err := f.svc.StudentOverview(ctx, f.student.ID)
	require.NoError(t, err)

	require.Len(t, ov.Categories, 3)
	verr := ov.Categories[0]
	assert.Equal(t, subject.CategoryVerrichtingen, verr.Category)
	assert.Len(t, verr.Subjects, 14, "inactive subjects are listed too")

	boot := findSubject(t, verr.Subjects, bootbehandeling)
	assert.Equal(t, []int{3, 3, 2}, gradeValues(boot.Grades))
	assert.InDelta(t, 8.0/3.0, boot.Average, 1e-9)

	riem := findSubject(t, verr.Subjects, riemen)
	assert.False(t, riem.Subject.Active)
	assert.Equal(t, 2.0, riem.Average)

	require.NotNil(t, verr.LatestFeedback)
	assert.Equal(t, "goed bezig", verr.LatestFeedback.Feedback)
	assert.Nil(t, ov.Categories[1].LatestFeedback)

	inp := findSubject(t, ov.Categories[1].Subjects, inpik)
	assert.Empty(t, inp.Grades)
	assert.Equal(t, 0.0, inp.Average)

	assert.Len(t, ov.Tests, 10)
	assert.Equal(t, 2, ov.Tests[0].Count)
	assert.Equal(t, 1, ov.Tests[1].Count)
	assert.Equal(t, 3, ov.TotalCompletions)

	_, err = f.svc.StudentOverview(ctx, f.teacher.ID)
	assert.True(t, core.IsValidationError(err), "teachers have no overview")
}

func TestService_GradingForm(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tick := freezeTime(t)

	f.grade(t, bootbehandeling, 1)
	tick()
	f.grade(t, bootbehandeling, 3)
	_, err := f.env.SubjectSvc.ToggleActive(ctx, riemen, false)
	require.NoError(t, err)

	form, err := f.svc.GradingForm(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, form.Categories, 3)

	verr := form.Categories[0]
	assert.Len(t, verr.Subjects, 13, "only gradable subjects")
	for _, fs := range verr.Subjects {
		assert.NotEqual(t, riemen, fs.Subject.ID)
	}
	require.NotNil(t, verr.Subjects[0].LastGrade)
	assert.Equal(t, 3, verr.Subjects[0].LastGrade.Grade)
	assert.Nil(t, verr.Subjects[1].LastGrade)
	assert.Equal(t, "", verr.Feedback)
}

func TestService_SaveGrading(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	freezeTime(t)

	_, err := f.env.SubjectSvc.ToggleActive(ctx, riemen, false)
	require.NoError(t, err)
	_, err = f.svc.SetCompletionCount(ctx, f.student.ID, praktijkBasis, 3)
	require.NoError(t, err)

	res, err := f.svc.SaveGrading(ctx, f.teacher.ID, f.student.ID, grading.GradingInput{
		Grades: map[int]int{
			bootbehandeling: 3,
			riemen:          2, // inactive
			inpik:           5, // out of range
			koersvastheid:   1,
		},
		Feedback: map[subject.Category]string{
			subject.CategoryVerrichtingen: "netjes",
			subject.CategoryRoeitechniek:  "  ", // skipped
		},
		Tests: map[int]int{
			theorieBasis:  2, // +2
			praktijkBasis: 1, // -2
			3:             0, // unchanged
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4+1+4, res.Attempted)
	assert.Equal(t, 2+1+4, res.Succeeded)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, grading.SaveFailure{Kind: "grade", Ref: "2", Error: grading.ErrSubjectInactive.Error()}, res.Failures[0])
	assert.Equal(t, "grade", res.Failures[1].Kind)
	assert.Equal(t, "15", res.Failures[1].Ref)

	// successful writes stay
	latest, err := f.svc.LatestGrades(ctx, f.student.ID, bootbehandeling, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, gradeValues(latest))
	n, err := f.svc.CompletionCount(ctx, f.student.ID, praktijkBasis)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.repo.feedbackWrites)

	_, err = f.svc.SaveGrading(ctx, f.teacher.ID, "nope", grading.GradingInput{Grades: map[int]int{bootbehandeling: 2}})
	assert.True(t, core.IsValidationError(err))
}

func TestService_History(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tick := freezeTime(t)

	f.grade(t, inpik, 1)
	tick()
	f.grade(t, inpik, 2)
	tick()
	for _, text := range []string{"a", "b"} {
		_, _, err := f.svc.AddCategoryFeedback(ctx, grading.NewCategoryFeedback{
			StudentID: f.student.ID, Category: subject.CategoryRoeitechniek, Feedback: text, TeacherID: f.teacher.ID,
		})
		require.NoError(t, err)
		tick()
	}
	require.NoError(t, f.svc.RecordCompletion(ctx, f.student.ID, theorieBasis, true))

	hist, err := f.svc.History(ctx, f.student.ID)
	require.NoError(t, err)

	assert.Empty(t, hist.Categories[0].Subjects, "ungraded subjects are left out")
	roei := hist.Categories[1]
	require.Len(t, roei.Subjects, 1)
	assert.Equal(t, inpik, roei.Subjects[0].Subject.ID)
	assert.Equal(t, []int{2, 1}, gradeValues(roei.Subjects[0].Grades))
	require.Len(t, roei.Feedback, 2)
	assert.Equal(t, "b", roei.Feedback[0].Feedback)
	assert.Len(t, hist.Completions, 1)
	assert.Equal(t, 1, hist.Tests[0].Count)
}
