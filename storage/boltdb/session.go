// Package boltdb keeps login sessions in a bbolt file, so they survive API restarts.
package boltdb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/roeiles/voortgang/core/session"
)

var sessionsBucket = []byte("sessions")

type SessionStore struct {
	db *bolt.DB
}

var _ session.Store = (*SessionStore)(nil)

// Open opens (or creates) the store file at path.
func Open(path string) (*SessionStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrap(err, "creating session store dir")
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening session store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating sessions bucket")
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) Save(_ context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(sess.ID), data)
	})
}

func (s *SessionStore) Get(_ context.Context, id string) (session.Session, error) {
	var sess session.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionsBucket).Get([]byte(id))
		if data == nil {
			return session.ErrNotFound
		}
		return json.Unmarshal(data, &sess)
	})
	if err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
}

func (s *SessionStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	n, err := s.deleteWhere(func(sess session.Session) bool { return sess.UserID == userID })
	return n, errors.Wrap(err, "deleting user sessions")
}

// PurgeExpired deletes the sessions expired at now.
func (s *SessionStore) PurgeExpired(now time.Time) (int, error) {
	n, err := s.deleteWhere(func(sess session.Session) bool { return sess.Expired(now) })
	return n, errors.Wrap(err, "purging expired sessions")
}

// deleteWhere collects the matching keys first: deleting during ForEach is not allowed.
func (s *SessionStore) deleteWhere(match func(session.Session) bool) (int, error) {
	var n int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		var keys [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var sess session.Session
			if err := json.Unmarshal(v, &sess); err != nil {
				return err
			}
			if match(sess) {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err = b.Delete(k); err != nil {
				return err
			}
		}
		n = len(keys)
		return nil
	})
	return n, err
}
