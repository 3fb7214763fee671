// Package history persists the command-line history in a bbolt database.
package history

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketCmds = "cmds"

// ErrNoEntry is returned when a requested history entry does not exist.
var ErrNoEntry = errors.New("no matching history entry")

// Store is a command history backed by bbolt. Safe to keep open for the
// editor's lifetime; bbolt serializes access internally.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCmds))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Add appends a command and returns its sequence number. Consecutive
// duplicates are collapsed to the existing entry.
func (s *Store) Add(cmd string) (uint64, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCmds))

		if k, v := b.Cursor().Last(); k != nil && string(v) == cmd {
			seq = unmarshalSeq(k)
			return nil
		}

		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), []byte(cmd))
	})
	return seq, err
}

// Last returns the n most recent commands, newest first.
func (s *Store) Last(n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketCmds)).Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			out = append(out, string(v))
		}
		return nil
	})
	return out, err
}

// Before returns the newest command with a sequence number strictly below
// seq. A seq of 0 means "newest overall".
func (s *Store) Before(seq uint64) (string, uint64, error) {
	var cmd string
	var at uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketCmds)).Cursor()

		var k, v []byte
		if seq == 0 {
			k, v = c.Last()
		} else {
			c.Seek(marshalSeq(seq))
			k, v = c.Prev()
		}
		if k == nil {
			return ErrNoEntry
		}
		cmd, at = string(v), unmarshalSeq(k)
		return nil
	})
	return cmd, at, err
}

// After returns the oldest command with a sequence number strictly above
// seq.
func (s *Store) After(seq uint64) (string, uint64, error) {
	var cmd string
	var at uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketCmds)).Cursor()
		k, v := c.Seek(marshalSeq(seq + 1))
		if k == nil {
			return ErrNoEntry
		}
		cmd, at = string(v), unmarshalSeq(k)
		return nil
	})
	return cmd, at, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
