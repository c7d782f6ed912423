// Package store keeps named tokenizer documents in a bbolt database so that
// several trained vocabularies can live in one file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/example/go-subword/internal/vocab"
)

var (
	bucketDocs = []byte("documents")
	bucketMeta = []byte("meta")
)

var (
	// ErrNotFound is returned when no document is stored under a name.
	ErrNotFound = errors.New("tokenizer not found")
	// ErrEmptyName is returned for blank document names.
	ErrEmptyName = errors.New("tokenizer name must not be empty")
)

// Entry summarizes a stored document without decoding its vocabulary.
type Entry struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	VocabSize int       `json:"vocab_size"`
	Merges    int       `json:"merges"`
	Pieces    int       `json:"pieces"`
	SavedAt   time.Time `json:"saved_at"`
}

type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the database at path. The timeout bounds the wait
// for the file lock held by another process.
func Open(path string, timeout time.Duration) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Put stores doc under name, replacing any previous document.
func (s *Store) Put(name string, doc *vocab.Document) error {
	key, err := keyFor(name)
	if err != nil {
		return err
	}

	data, err := vocab.Marshal(doc)
	if err != nil {
		return err
	}

	meta, err := json.Marshal(Entry{
		Name:      name,
		Kind:      doc.Kind,
		VocabSize: len(doc.TokenToID),
		Merges:    len(doc.Merges),
		Pieces:    len(doc.Pieces),
		SavedAt:   s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode entry %q: %w", name, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketDocs).Put(key, data); err != nil {
			return fmt.Errorf("put %q: %w", name, err)
		}

		return tx.Bucket(bucketMeta).Put(key, meta)
	})
}

// Get returns the document stored under name.
func (s *Store) Get(name string) (*vocab.Document, error) {
	key, err := keyFor(name)
	if err != nil {
		return nil, err
	}

	var doc *vocab.Document

	err = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get(key)
		if data == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}

		// data is only valid inside the transaction; Unmarshal copies it out.
		doc, err = vocab.Unmarshal(data)

		return err
	})

	return doc, err
}

// Delete removes the document stored under name.
func (s *Store) Delete(name string) error {
	key, err := keyFor(name)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocs)
		if docs.Get(key) == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}

		if err := docs.Delete(key); err != nil {
			return err
		}

		return tx.Bucket(bucketMeta).Delete(key)
	})
}

// List returns every entry sorted by name.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode entry %q: %w", k, err)
			}

			entries = append(entries, e)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

func keyFor(name string) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	return []byte(name), nil
}
