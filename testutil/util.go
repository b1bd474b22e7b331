// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roeiles/voortgang/core"
	"github.com/roeiles/voortgang/core/grading"
	"github.com/roeiles/voortgang/core/session"
	"github.com/roeiles/voortgang/core/subject"
	"github.com/roeiles/voortgang/core/user"
	inmemdb "github.com/roeiles/voortgang/storage/database/inmem"
)

// Env is a complete set of services over a fresh in-memory database.
type Env struct {
	DB         *inmemdb.DB
	UserRepo   user.Repository
	Validate   *validator.Validate
	UserSvc    user.Service
	SubjectSvc subject.Service
	GradingSvc grading.Service
	SessStore  session.Store
	SessionSvc session.Service
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}

	env := &Env{
		DB:        db,
		UserRepo:  inmemdb.NewUserRepository(db),
		Validate:  NewValidator(),
		SessStore: inmemdb.NewSessionStore(db),
	}
	env.UserSvc = user.NewService(env.UserRepo, env.Validate)
	env.SubjectSvc = subject.NewService(inmemdb.NewSubjectRepository(db))
	env.GradingSvc = grading.NewService(inmemdb.NewGradingRepository(db), env.UserSvc, env.SubjectSvc, env.Validate)
	env.SessionSvc = session.NewService(env.SessStore, env.UserSvc, time.Hour)
	return env
}

// CreateUser stores a user directly through repo, bypassing the password policy.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, pwd string,
	role user.Role,
	group user.Group,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	profile, err := user.NewProfile(role, group)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Profile:   profile,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err = usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err = repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo user.Repository, name, uname string, group user.Group) user.User {
	t.Helper()
	return CreateUser(t, repo, name, uname, "", user.RoleStudent, group)
}

func CreateTeacher(t *testing.T, repo user.Repository, name, uname string) user.User {
	t.Helper()
	return CreateUser(t, repo, name, uname, "", user.RoleTeacher, "")
}

func CreateAdmin(t *testing.T, repo user.Repository, name, uname string) user.User {
	t.Helper()
	return CreateUser(t, repo, name, uname, "", user.RoleAdmin, "")
}
