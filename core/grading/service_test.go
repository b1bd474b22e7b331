package grading_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/grading"
	"github.com/roeiles/voortgang/core/subject"
	"github.com/roeiles/voortgang/core/user"
	inmemdb "github.com/roeiles/voortgang/storage/database/inmem"
	"github.com/roeiles/voortgang/testutil"
)

const (
	bootbehandeling = 1  // verrichtingen
	riemen          = 2  // verrichtingen
	inpik           = 15 // roeitechniek
	koersvastheid   = 26 // stuurkunst

	theorieBasis  = 1
	praktijkBasis = 2
)

// spyRepo counts the writes reaching the store.
type spyRepo struct {
	grading.Repository
	gradeWrites    int
	feedbackWrites int
}

func (r *spyRepo) CreateGrade(ctx context.Context, g grading.Grade) (grading.Grade, error) {
	r.gradeWrites++
	return r.Repository.CreateGrade(ctx, g)
}

func (r *spyRepo) CreateCategoryFeedback(ctx context.Context, fb grading.CategoryFeedback) (grading.CategoryFeedback, error) {
	r.feedbackWrites++
	return r.Repository.CreateCategoryFeedback(ctx, fb)
}

type fixture struct {
	env     *testutil.Env
	repo    *spyRepo
	svc     grading.Service
	student user.User
	teacher user.User
	admin   user.User
}

func setup(t *testing.T) *fixture {
	env := testutil.NewEnv(t)
	repo := &spyRepo{Repository: inmemdb.NewGradingRepository(env.DB)}
	return &fixture{
		env:     env,
		repo:    repo,
		svc:     grading.NewService(repo, env.UserSvc, env.SubjectSvc, env.Validate),
		student: testutil.CreateStudent(t, env.UserRepo, "Sanne", "sanne", user.GroupDiza),
		teacher: testutil.CreateTeacher(t, env.UserRepo, "Tom", "tom"),
		admin:   testutil.CreateAdmin(t, env.UserRepo, "Anna", "anna"),
	}
}

// freezeTime pins grading.NowFunc; every call to tick advances it by a minute.
func freezeTime(t *testing.T) (tick func()) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	grading.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { grading.NowFunc = time.Now })
	return func() { now = now.Add(time.Minute) }
}

func (f *fixture) grade(t *testing.T, subjectID, value int) grading.Grade {
	t.Helper()
	g, err := f.svc.AddGrade(context.Background(), grading.NewGrade{
		StudentID: f.student.ID,
		SubjectID: subjectID,
		Grade:     value,
		TeacherID: f.teacher.ID,
	})
	require.NoError(t, err)
	return g
}

func gradeValues(grades []grading.Grade) []int {
	values := make([]int, len(grades))
	for i, g := range grades {
		values[i] = g.Grade
	}
	return values
}

func TestService_AddGrade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.env.SubjectSvc.ToggleActive(ctx, riemen, false)
	require.NoError(t, err)

	tests := []struct {
		name      string
		ng        grading.NewGrade
		wantField string
		wantErr   bool
	}{
		{name: "grade 0", ng: grading.NewGrade{StudentID: f.student.ID, SubjectID: bootbehandeling, Grade: 0, TeacherID: f.teacher.ID}, wantErr: true},
		{name: "grade 4", ng: grading.NewGrade{StudentID: f.student.ID, SubjectID: bootbehandeling, Grade: 4, TeacherID: f.teacher.ID}, wantErr: true},
		{
			name: "unknown student", ng: grading.NewGrade{StudentID: "nope", SubjectID: bootbehandeling, Grade: 2, TeacherID: f.teacher.ID},
			wantField: "student_id",
		},
		{
			name: "teacher as student", ng: grading.NewGrade{StudentID: f.teacher.ID, SubjectID: bootbehandeling, Grade: 2, TeacherID: f.teacher.ID},
			wantField: "student_id",
		},
		{
			name: "student as teacher", ng: grading.NewGrade{StudentID: f.student.ID, SubjectID: bootbehandeling, Grade: 2, TeacherID: f.student.ID},
			wantField: "teacher_id",
		},
		{
			name: "unknown subject", ng: grading.NewGrade{StudentID: f.student.ID, SubjectID: 999, Grade: 2, TeacherID: f.teacher.ID},
			wantField: "subject_id",
		},
		{
			name: "inactive subject", ng: grading.NewGrade{StudentID: f.student.ID, SubjectID: riemen, Grade: 2, TeacherID: f.teacher.ID},
			wantField: "subject_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddGrade(ctx, tt.ng)
			require.Error(t, err)
			if tt.wantField != "" {
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok, "want a *core.ValidationError, got %T", err)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			}
		})
	}
	assert.Equal(t, 0, f.repo.gradeWrites, "rejected grades never reach the store")

	freezeTime(t)
	g, err := f.svc.AddGrade(ctx, grading.NewGrade{
		StudentID: f.student.ID,
		SubjectID: bootbehandeling,
		Grade:     grading.GradeExcellent,
		TeacherID: f.admin.ID,
		Feedback:  "  strak  ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "strak", g.Feedback)
	assert.Equal(t, grading.NowFunc(), g.Date)
	assert.Equal(t, 1, f.repo.gradeWrites)
}

func TestService_LatestAndAverage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tick := freezeTime(t)

	avg, err := f.svc.AverageGrade(ctx, f.student.ID, bootbehandeling)
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg, "ungraded")

	for _, v := range []int{1, 1, 3, 2, 3} {
		f.grade(t, bootbehandeling, v)
		tick()
	}
	f.grade(t, inpik, 1)

	latest, err := f.svc.LatestGrades(ctx, f.student.ID, bootbehandeling, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, gradeValues(latest))

	all, err := f.svc.LatestGrades(ctx, f.student.ID, bootbehandeling, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 3, 1, 1}, gradeValues(all))

	avg, err = f.svc.AverageGrade(ctx, f.student.ID, bootbehandeling)
	require.NoError(t, err)
	assert.InDelta(t, 8.0/3.0, avg, 1e-9, "mean of the latest three")

	series, err := f.svc.GradeSeries(ctx, f.student.ID, bootbehandeling)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 3, 2, 3}, gradeValues(series))
}

func TestService_LatestGrades_sameDate(t *testing.T) {
	f := setup(t)
	freezeTime(t) // every grade gets the same date

	for _, v := range []int{3, 1, 2} {
		f.grade(t, koersvastheid, v)
	}
	latest, err := f.svc.LatestGrades(context.Background(), f.student.ID, koersvastheid, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 3}, gradeValues(latest), "insertion order breaks ties")
}

func TestService_Completions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tick := freezeTime(t)

	count := func() int {
		n, err := f.svc.CompletionCount(ctx, f.student.ID, theorieBasis)
		require.NoError(t, err)
		return n
	}

	require.NoError(t, f.svc.RecordCompletion(ctx, f.student.ID, theorieBasis, false))
	assert.Equal(t, 0, count(), "decrement at zero is a no-op")

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.RecordCompletion(ctx, f.student.ID, theorieBasis, true))
		tick()
	}
	assert.Equal(t, 3, count())

	require.NoError(t, f.svc.RecordCompletion(ctx, f.student.ID, theorieBasis, false))
	assert.Equal(t, 2, count())

	applied, err := f.svc.SetCompletionCount(ctx, f.student.ID, theorieBasis, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, applied)
	assert.Equal(t, 5, count())

	applied, err = f.svc.SetCompletionCount(ctx, f.student.ID, theorieBasis, -1)
	require.NoError(t, err)
	assert.Equal(t, 5, applied)
	assert.Equal(t, 0, count())

	n, err := f.svc.CompletionCount(ctx, f.student.ID, praktijkBasis)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "counts are per test")

	err = f.svc.RecordCompletion(ctx, f.student.ID, 99, true)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
}

func TestService_CategoryFeedback(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tick := freezeTime(t)

	for _, text := range []string{"", "   \n\t"} {
		_, added, err := f.svc.AddCategoryFeedback(ctx, grading.NewCategoryFeedback{
			StudentID: f.student.ID,
			Category:  subject.CategoryRoeitechniek,
			Feedback:  text,
			TeacherID: f.teacher.ID,
		})
		require.NoError(t, err)
		assert.False(t, added)
	}
	assert.Equal(t, 0, f.repo.feedbackWrites, "blank feedback is not stored")

	latest, err := f.svc.LatestFeedback(ctx, f.student.ID, subject.CategoryRoeitechniek)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for _, text := range []string{"eerste", "tweede"} {
		_, added, err := f.svc.AddCategoryFeedback(ctx, grading.NewCategoryFeedback{
			StudentID: f.student.ID,
			Category:  subject.CategoryRoeitechniek,
			Feedback:  text,
			TeacherID: f.teacher.ID,
		})
		require.NoError(t, err)
		assert.True(t, added)
		tick()
	}

	latest, err = f.svc.LatestFeedback(ctx, f.student.ID, subject.CategoryRoeitechniek)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "tweede", latest.Feedback)

	hist, err := f.svc.FeedbackHistory(ctx, f.student.ID, subject.CategoryRoeitechniek)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "eerste", hist[1].Feedback)

	_, _, err = f.svc.AddCategoryFeedback(ctx, grading.NewCategoryFeedback{
		StudentID: f.student.ID,
		Category:  "zeilen",
		Feedback:  "nope",
		TeacherID: f.teacher.ID,
	})
	assert.True(t, core.IsValidationError(err))
}
