// Package store persists trained encodings in a bbolt database.
package store

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/bpevocab/internal/trainer"
)

var encodingsBucket = []byte("encodings")

// ErrNotFound is returned when no encoding is stored under a name.
var ErrNotFound = errors.New("store: encoding not found")

// ErrNoEncoding is returned for a record without an encoding payload.
var ErrNoEncoding = errors.New("store: record has no encoding")

// Record is one stored encoding.
type Record struct {
	Name     string            `json:"name"`
	SavedAt  time.Time         `json:"saved_at"`
	Encoding *trainer.Encoding `json:"encoding"`
}

// Summary describes a stored encoding without its payload.
type Summary struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	Merges  int       `json:"merges"`
	Symbols int       `json:"symbols"`
}

// Store handles encoding persistence
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening encoding store %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(encodingsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating encodings bucket")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores enc under name, replacing any previous encoding.
func (s *Store) Save(name string, enc *trainer.Encoding) error {
	if name == "" {
		return errors.New("store: empty encoding name")
	}
	if enc == nil {
		return errors.Wrap(ErrNoEncoding, name)
	}
	data, err := json.Marshal(Record{Name: name, SavedAt: time.Now().UTC(), Encoding: enc})
	if err != nil {
		return errors.Wrapf(err, "marshalling encoding %s", name)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(encodingsBucket).Put([]byte(name), data)
	})
}

// Load returns the encoding stored under name.
func (s *Store) Load(name string) (*Record, error) {
	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(encodingsBucket).Get([]byte(name))
		if data == nil {
			return errors.Wrap(ErrNotFound, name)
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return errors.Wrapf(err, "decoding %s", name)
		}
		if rec.Encoding == nil {
			return errors.Wrap(ErrNoEncoding, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List summarizes every stored encoding, sorted by name.
func (s *Store) List() ([]Summary, error) {
	var out []Summary
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(encodingsBucket).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrapf(err, "decoding %s", k)
			}
			sum := Summary{Name: string(k), SavedAt: rec.SavedAt}
			if rec.Encoding != nil {
				sum.Merges = len(rec.Encoding.Merges)
				sum.Symbols = rec.Encoding.Tokens.Len()
			}
			out = append(out, sum)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// Delete removes the encoding stored under name.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(encodingsBucket)
		if b.Get([]byte(name)) == nil {
			return errors.Wrap(ErrNotFound, name)
		}
		return b.Delete([]byte(name))
	})
}
