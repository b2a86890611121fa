// Package boltdb persists credentials in a local BoltDB file.
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/client/domain"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyTokenExpiry  = "token_expiry"
	keyUser         = "user"
)

// CredentialRepository stores the credential triple and the cached user
// profile under independent keys, each readable and clearable on its own.
// Absence of any part of the triple loads as "no session".
type CredentialRepository struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string) (*CredentialRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	bucket := []byte("credentials")
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &CredentialRepository{
		db:     db,
		bucket: bucket,
	}, nil
}

func (r *CredentialRepository) LoadSession() (*domain.Session, error) {
	if r == nil || r.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var session domain.Session
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		session.AccessToken = string(b.Get([]byte(keyAccessToken)))
		session.RefreshToken = string(b.Get([]byte(keyRefreshToken)))
		if raw := b.Get([]byte(keyTokenExpiry)); len(raw) == 8 {
			session.ExpiresAt = int64(binary.BigEndian.Uint64(raw))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !session.Complete() {
		return nil, nil
	}
	return &session, nil
}

func (r *CredentialRepository) SaveSession(session domain.Session) error {
	if r == nil || r.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	expiry := make([]byte, 8)
	binary.BigEndian.PutUint64(expiry, uint64(session.ExpiresAt))

	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		if err := b.Put([]byte(keyAccessToken), []byte(session.AccessToken)); err != nil {
			return err
		}
		if err := b.Put([]byte(keyRefreshToken), []byte(session.RefreshToken)); err != nil {
			return err
		}
		return b.Put([]byte(keyTokenExpiry), expiry)
	})
}

func (r *CredentialRepository) ClearSession() error {
	if r == nil || r.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(r.bucket)
		for _, key := range []string{keyAccessToken, keyRefreshToken, keyTokenExpiry} {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CredentialRepository) LoadUser() (*domain.User, error) {
	if r == nil || r.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var raw []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(r.bucket).Get([]byte(keyUser)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, err
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		// A corrupt cached profile is equivalent to no cached profile.
		return nil, nil
	}
	return &user, nil
}

func (r *CredentialRepository) SaveUser(user domain.User) error {
	if r == nil || r.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).Put([]byte(keyUser), payload)
	})
}

func (r *CredentialRepository) ClearUser() error {
	if r == nil || r.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(r.bucket).Delete([]byte(keyUser))
	})
}

// Close closes the underlying Bolt database.
func (r *CredentialRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
