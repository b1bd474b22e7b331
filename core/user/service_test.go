package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/user"
	"github.com/roeiles/voortgang/testutil"
)

const pwd = "RoeienOpDeAmstel"

// failedTags maps every failing field of err to its tag.
func failedTags(t *testing.T, err error) map[string]string {
	t.Helper()
	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok, "want validator.ValidationErrors, got %T: %v", err, err)
	tags := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		tags[fe.Field()] = fe.Tag()
	}
	return tags
}

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	testutil.CreateTeacher(t, env.UserRepo, "Tom", "tom")

	tests := []struct {
		name     string
		nu       user.NewUser
		wantTags map[string]string
	}{
		{
			name:     "blank fields",
			nu:       user.NewUser{Username: " ", Name: "", Password: pwd, Role: user.RoleTeacher},
			wantTags: map[string]string{"username": "notblank", "name": "notblank"},
		},
		{
			name:     "unknown role",
			nu:       user.NewUser{Username: "kees", Name: "Kees", Password: pwd, Role: "coach"},
			wantTags: map[string]string{"role": "role"},
		},
		{
			name:     "student without group",
			nu:       user.NewUser{Username: "kees", Name: "Kees", Password: pwd, Role: user.RoleStudent},
			wantTags: map[string]string{"groep": "groep_required"},
		},
		{
			name:     "teacher with group",
			nu:       user.NewUser{Username: "kees", Name: "Kees", Password: pwd, Role: user.RoleTeacher, Group: user.GroupDiza},
			wantTags: map[string]string{"groep": "groep_forbidden"},
		},
		{
			name:     "unknown group",
			nu:       user.NewUser{Username: "kees", Name: "Kees", Password: pwd, Role: user.RoleStudent, Group: "sloep"},
			wantTags: map[string]string{"groep": "groep"},
		},
		{
			name:     "short password",
			nu:       user.NewUser{Username: "kees", Name: "Kees", Password: "kort", Role: user.RoleTeacher},
			wantTags: map[string]string{"password": "pwdminlen"},
		},
		{
			name:     "numeric password",
			nu:       user.NewUser{Username: "kees", Name: "Kees", Password: "1234567890", Role: user.RoleTeacher},
			wantTags: map[string]string{"password": "pwdnotallnum"},
		},
		{
			name:     "password with space",
			nu:       user.NewUser{Username: "kees", Name: "Kees", Password: "twee woorden", Role: user.RoleTeacher},
			wantTags: map[string]string{"password": "pwdnospace"},
		},
		{
			name:     "password like username",
			nu:       user.NewUser{Username: "keesjansen", Name: "Kees", Password: "KeesJansen1", Role: user.RoleTeacher},
			wantTags: map[string]string{"password": "pwdtoosim"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.UserSvc.Create(ctx, tt.nu)
			require.Error(t, err)
			assert.Equal(t, tt.wantTags, failedTags(t, err))
		})
	}

	t.Run("username taken", func(t *testing.T) {
		_, err := env.UserSvc.Create(ctx, user.NewUser{Username: " TOM ", Name: "Tom 2", Password: "GladdeRiemen", Role: user.RoleTeacher})
		require.Error(t, err)
		verr, ok := err.(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, "username", verr.Fields[0].Field)
		assert.Equal(t, user.ErrUsernameExists, verr.Err)
	})

	t.Run("ok", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		user.NowFunc = func() time.Time { return now }
		defer func() { user.NowFunc = time.Now }()

		usr, err := env.UserSvc.Create(ctx, user.NewUser{
			Username: " Sanne ",
			Name:     " Sanne de Vries ",
			Password: pwd,
			Role:     user.RoleStudent,
			Group:    " DIZA ",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "sanne", usr.Username)
		assert.Equal(t, "Sanne de Vries", usr.Name)
		assert.Equal(t, user.StudentProfile{Group: user.GroupDiza}, usr.Profile)
		assert.Equal(t, now, usr.CreatedAt)
		assert.NoError(t, usr.CheckPassword(pwd))
	})
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, env.UserRepo, "Sanne", "sanne", pwd, user.RoleStudent, user.GroupDiza)
	testutil.CreateTeacher(t, env.UserRepo, "Tom", "tom")

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.UserSvc.Update(ctx, "nope", user.UpdateUser{Name: "x"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("blank fields keep their value", func(t *testing.T) {
		got, err := env.UserSvc.Update(ctx, usr.ID, user.UpdateUser{Name: " "})
		require.NoError(t, err)
		assert.Equal(t, "sanne", got.Username)
		assert.Equal(t, "Sanne", got.Name)
		assert.Equal(t, user.GroupDiza, got.Group())
		assert.NoError(t, got.CheckPassword(pwd), "password unchanged")
		assert.Equal(t, usr.CreatedAt, got.CreatedAt)
	})

	t.Run("username taken", func(t *testing.T) {
		_, err := env.UserSvc.Update(ctx, usr.ID, user.UpdateUser{Username: "Tom"})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("teacher with group", func(t *testing.T) {
		_, err := env.UserSvc.Update(ctx, usr.ID, user.UpdateUser{Role: user.RoleTeacher, Group: user.GroupDiza})
		require.Error(t, err)
		assert.Equal(t, map[string]string{"groep": "groep_forbidden"}, failedTags(t, err))
	})

	t.Run("new group and password", func(t *testing.T) {
		got, err := env.UserSvc.Update(ctx, usr.ID, user.UpdateUser{Group: user.GroupDozo, Password: "NieuweBoot12"})
		require.NoError(t, err)
		assert.Equal(t, user.GroupDozo, got.Group())
		assert.NoError(t, got.CheckPassword("NieuweBoot12"))
		assert.Error(t, got.CheckPassword(pwd))
	})
}

func TestService_Query(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreateUser(t, env.UserRepo, "Zoë Smit", "zoe", "", user.RoleStudent, user.GroupDozo, base)
	testutil.CreateUser(t, env.UserRepo, "Bram Smit", "bram", "", user.RoleStudent, user.GroupDiza, base.Add(time.Hour))
	testutil.CreateUser(t, env.UserRepo, "Anna", "anna", "", user.RoleAdmin, "", base.Add(2*time.Hour))
	testutil.CreateUser(t, env.UserRepo, "Tom", "tsmit", "", user.RoleTeacher, "", base.Add(3*time.Hour))

	usernames := func(users []user.User) []string {
		names := make([]string, len(users))
		for i, u := range users {
			names[i] = u.Username
		}
		return names
	}

	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all", want: []string{"anna", "bram", "tsmit", "zoe"}},
		{name: "search name or username", filter: &user.QueryFilter{Search: "  SMIT "}, want: []string{"bram", "tsmit", "zoe"}},
		{name: "roles", filter: &user.QueryFilter{Roles: []user.Role{user.RoleAdmin, user.RoleTeacher}}, want: []string{"anna", "tsmit"}},
		{name: "groups", filter: &user.QueryFilter{Groups: []user.Group{user.GroupDozo}}, want: []string{"zoe"}},
		{
			name:     "ordered",
			ordering: []core.DBOrdering{{Field: "created_at", Ascending: false}},
			want:     []string{"tsmit", "anna", "bram", "zoe"},
		},
		{
			name:     "search and order",
			filter:   &user.QueryFilter{Search: "smit", Roles: []user.Role{user.RoleStudent}},
			ordering: []core.DBOrdering{{Field: "name", Ascending: true}},
			want:     []string{"bram", "zoe"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := env.UserSvc.Query(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, usernames(users))
		})
	}

	students, err := env.UserSvc.Students(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bram", "zoe"}, usernames(students), "students by name")
}

func TestService_GetAndDelete(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	a := testutil.CreateTeacher(t, env.UserRepo, "Tom", "tom")
	b := testutil.CreateAdmin(t, env.UserRepo, "Anna", "anna")

	got, err := env.UserSvc.GetByUsername(ctx, " TOM ")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = env.UserSvc.GetByUsername(ctx, "")
	assert.Equal(t, user.ErrNotFound, err)
	_, err = env.UserSvc.GetByID(ctx, "")
	assert.Equal(t, user.ErrNotFound, err)

	n, err := env.UserSvc.Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = env.UserSvc.Delete(ctx, a.ID, b.ID, "nope")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = env.UserSvc.GetByID(ctx, a.ID)
	assert.Equal(t, user.ErrNotFound, err)
}
