package keywords

import (
	"time"

	"go.etcd.io/bbolt"
)

var (
	settingsBucket = []byte("settings")
	keywordsKey    = []byte("keywords")
)

// BoltStore keeps the set in a bbolt database, as the same JSON document the
// FileStore writes, under bucket "settings" and key "keywords".
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &StoreError{Op: "open", Path: path, Err: err}
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &StoreError{Op: "open", Path: path, Err: err}
	}

	return &BoltStore{db: db, path: path}, nil
}

func (s *BoltStore) Load() (Set, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(settingsBucket).Get(keywordsKey); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, &StoreError{Op: "load", Path: s.path, Err: err}
	}
	if data == nil {
		return DefaultSet(), nil
	}
	set, err := decodeDocument(data)
	if err != nil {
		return nil, &StoreError{Op: "load", Path: s.path, Err: err}
	}
	return set, nil
}

// Save runs in a single transaction; on error nothing is written.
func (s *BoltStore) Save(set Set) error {
	data, err := encodeDocument(set)
	if err != nil {
		return &StoreError{Op: "save", Path: s.path, Err: err}
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(keywordsKey, data)
	})
	if err != nil {
		return &StoreError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
