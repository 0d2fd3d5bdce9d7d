// Package kvstore wraps a local LevelDB database used as the facility's
// persistent snapshot store. Every collection is held in memory by its
// repository and written through here as one JSON blob per key after each
// mutation; the blobs are read back once at startup.
package kvstore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// Collection keys. Peripheral modules follow the same one-key-per-collection
// convention as the core stores.
const (
	KeyPatients    = "patients"
	KeyInvoices    = "invoices"
	KeyWards       = "wards"
	KeyReferrals   = "referrals"
	KeyPharmacy    = "pharmacy_inventory"
	KeyBloodStock  = "blood_stock"
	KeyLabOrders   = "clinical_lab_orders"
	KeyRounds      = "clinical_rounds"
	KeyOTSchedule  = "clinical_ot_schedule"
	KeyCurrentUser = "currentUser"
)

type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) the store at the given directory path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open kv store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a store backed by volatile memory. Used in tests and by
// the seed command's dry-run mode.
func OpenInMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open in-memory kv store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetJSON unmarshals the blob stored under key into v. The second return is
// false when the key has never been written.
func (s *Store) GetJSON(key string, v interface{}) (bool, error) {
	data, err := s.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON serializes v and writes it under key, replacing any previous blob.
func (s *Store) PutJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.db.Put([]byte(key), data, nil); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key. Deleting an absent key is not an
// error.
func (s *Store) Delete(key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// NextSeq increments and returns the persisted counter stored under
// "seq_<name>". The first call returns 1.
func (s *Store) NextSeq(name string) (uint64, error) {
	key := []byte("seq_" + name)
	var cur uint64
	if data, err := s.db.Get(key, nil); err == nil {
		cur, err = strconv.ParseUint(string(data), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt sequence %s: %w", name, err)
		}
	} else if err != leveldb.ErrNotFound {
		return 0, fmt.Errorf("read sequence %s: %w", name, err)
	}
	cur++
	if err := s.db.Put(key, []byte(strconv.FormatUint(cur, 10)), nil); err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", name, err)
	}
	return cur, nil
}
