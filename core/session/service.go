package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("session not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStaleSession       = errors.New("session expired")
)

var NowFunc = time.Now // mockable

// Session is the server-side record of a login. Clients only hold a token naming its ID.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Role      user.Role  `json:"role"`
	Group     user.Group `json:"groep,omitempty"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type (
	Store interface {
		Save(ctx context.Context, sess Session) error
		// Get returns ErrNotFound when there is no session with this ID.
		Get(ctx context.Context, id string) (Session, error)
		Delete(ctx context.Context, id string) error
		DeleteByUser(ctx context.Context, userID string) (int, error)
	}

	Service interface {
		Login(ctx context.Context, username, password string) (Session, error)
		Restore(ctx context.Context, id string) (Session, error)
		Logout(ctx context.Context, id string) error
		// LogoutUser ends every session of a user, e.g. after a password reset.
		LogoutUser(ctx context.Context, userID string) error
	}

	service struct {
		store    Store
		users    user.Service
		lifetime time.Duration
	}
)

var _ Service = (*service)(nil)

func NewService(store Store, users user.Service, lifetime time.Duration) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
		vala.IsNotNil(users, "users"),
	).CheckAndPanic()

	return &service{store: store, users: users, lifetime: lifetime}
}

func (svc *service) Login(ctx context.Context, username, password string) (Session, error) {
	usr, err := svc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, errors.Wrap(err, "finding user")
	}
	if err = usr.CheckPassword(password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	if usr, err = svc.users.SetLastLogin(ctx, usr); err != nil {
		return Session{}, errors.Wrap(err, "setting last login")
	}

	now := NowFunc().UTC()
	sess := Session{
		ID:       uuid.New().String(),
		UserID:   usr.ID,
		Username: usr.Username,
		Name:     usr.Name,
		Role:     usr.Role(),
		Group:    usr.Group(),
		IssuedAt: now,
	}
	if svc.lifetime > 0 {
		sess.ExpiresAt = now.Add(svc.lifetime)
	}
	if err = svc.store.Save(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	return sess, nil
}

// Restore re-validates a stored session against its user. A session whose user is gone
// or changed username or role is deleted and ErrStaleSession is returned.
func (svc *service) Restore(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrNoSession
	}
	sess, err := svc.store.Get(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Session{}, ErrStaleSession
		}
		return Session{}, errors.Wrap(err, "getting session")
	}
	if sess.Expired(NowFunc().UTC()) {
		return Session{}, svc.discard(ctx, id)
	}

	usr, err := svc.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Session{}, svc.discard(ctx, id)
		}
		return Session{}, errors.Wrap(err, "finding session user")
	}
	if usr.Username != sess.Username || usr.Role() != sess.Role {
		return Session{}, svc.discard(ctx, id)
	}

	if usr.Name != sess.Name || usr.Group() != sess.Group {
		sess.Name = usr.Name
		sess.Group = usr.Group()
		if err = svc.store.Save(ctx, sess); err != nil {
			return Session{}, errors.Wrap(err, "refreshing session")
		}
	}
	return sess, nil
}

// discard deletes a stale session and returns ErrStaleSession, or the delete error.
func (svc *service) discard(ctx context.Context, id string) error {
	if err := svc.store.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "deleting stale session")
	}
	return ErrStaleSession
}

func (svc *service) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return errors.Wrap(svc.store.Delete(ctx, id), "deleting session")
}

func (svc *service) LogoutUser(ctx context.Context, userID string) error {
	_, err := svc.store.DeleteByUser(ctx, userID)
	return errors.Wrap(err, "deleting user sessions")
}
