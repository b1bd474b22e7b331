package inmemdb

import (
	"context"

	"github.com/roeiles/voortgang/core/session"
)

type sessionStore struct {
	db *sessionTable
}

var _ session.Store = (*sessionStore)(nil)

func NewSessionStore(db *DB) session.Store {
	return &sessionStore{db: db.sessionData}
}

func (s *sessionStore) Save(_ context.Context, sess session.Session) error {
	s.db.Lock()
	defer s.db.Unlock()
	s.db.table[sess.ID] = sess
	return nil
}

func (s *sessionStore) Get(_ context.Context, id string) (session.Session, error) {
	s.db.RLock()
	defer s.db.RUnlock()
	if sess, ok := s.db.table[id]; ok {
		return sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (s *sessionStore) Delete(_ context.Context, id string) error {
	s.db.Lock()
	defer s.db.Unlock()
	delete(s.db.table, id)
	return nil
}

func (s *sessionStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	s.db.Lock()
	defer s.db.Unlock()

	var n int
	for id, sess := range s.db.table {
		if sess.UserID == userID {
			delete(s.db.table, id)
			n++
		}
	}
	return n, nil
}
