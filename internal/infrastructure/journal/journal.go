// Package journal persists pending deletion cascades in BoltDB so that a
// cascade interrupted by a crash or storage outage is re-run later instead
// of leaving orphaned tasks behind.
package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Entry records a user whose deletion cascade has not been confirmed yet.
type Entry struct {
	UserID     string    `json:"user_id"`
	Retries    int       `json:"retries"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Store wraps BoltDB, keyed by user id so re-enqueueing the same user is
// a merge rather than a duplicate.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	bucket := []byte("cascades")
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: bucket,
	}, nil
}

// Enqueue records a pending cascade for the user. An existing entry for the
// same user keeps its retry count.
func (s *Store) Enqueue(userID string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if userID == "" {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get([]byte(userID)) != nil {
			return nil
		}
		payload, err := json.Marshal(Entry{UserID: userID, EnqueuedAt: time.Now()})
		if err != nil {
			return err
		}
		return b.Put([]byte(userID), payload)
	})
}

// Pending returns up to limit entries without removing them.
func (s *Store) Pending(limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(entries) < limit; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Remove deletes the entry once its cascade has been confirmed.
func (s *Store) Remove(userID string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(userID))
	})
}

// Bump increments the retry counter for the entry and reports the new count.
func (s *Store) Bump(userID string) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var retries int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		raw := b.Get([]byte(userID))
		if raw == nil {
			return nil
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		entry.Retries++
		retries = entry.Retries
		payload, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put([]byte(userID), payload)
	})
	return retries, err
}

// Size returns the number of pending cascades.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
