package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NeKzor/svm/common/logger"
	bolt "go.etcd.io/bbolt"
)

// bucket is the single bbolt bucket holding every record.
var bucket = []byte("svm")

// keySep separates key parts. Parts must not contain it so that
// lexicographic byte order of encoded keys equals tuple order.
const keySep = byte(0x00)

// Store is an embedded ordered key-value store on top of bbolt.
// Keys are ordered tuples of strings; values are JSON documents.
// Single-key writes are atomic, there are no multi-key transactions.
type Store struct {
	db  *bolt.DB
	log *logger.Logger
}

// Open opens (or creates) the store at path.
func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	log.Info("kv store opened", "path", path)

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.log.Info("closing kv store")
	return s.db.Close()
}

// Health verifies the store is still readable.
func (s *Store) Health(ctx context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucket) == nil {
			return fmt.Errorf("kv bucket missing")
		}
		return nil
	})
}

// Get reads the value at key into dest. The second return value reports
// whether the key was present.
func (s *Store) Get(ctx context.Context, key []string, dest any) (bool, error) {
	k, err := encodeKey(key)
	if err != nil {
		return false, err
	}

	var raw []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get(k); v != nil {
			raw = append(raw, v...)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("kv get: %w", err)
	}
	if raw == nil {
		return false, nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode value at %v: %w", key, err)
	}
	return true, nil
}

// Set writes value at key, overwriting any existing value.
func (s *Store) Set(ctx context.Context, key []string, value any) error {
	k, err := encodeKey(key)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value at %v: %w", key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(k, raw)
	})
	if err != nil {
		return fmt.Errorf("kv set: %w", err)
	}
	return nil
}

// Scan visits every key under prefix in ascending key order.
// fn receives the decoded key tuple and the raw JSON value.
func (s *Store) Scan(ctx context.Context, prefix []string, fn func(key []string, value []byte) error) error {
	p, err := encodeKey(prefix)
	if err != nil {
		return err
	}

	// A tuple matches the prefix if it is the prefix itself or extends it
	// with further parts past a separator.
	extended := append(append([]byte{}, p...), keySep)

	err = s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucket).Cursor()
		for k, v := c.Seek(p); k != nil; k, v = c.Next() {
			if !bytes.Equal(k, p) && !bytes.HasPrefix(k, extended) {
				if !bytes.HasPrefix(k, p) {
					break
				}
				continue
			}
			if err := fn(decodeKey(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("kv scan: %w", err)
	}
	return nil
}

func encodeKey(parts []string) ([]byte, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty key")
	}
	var buf bytes.Buffer
	for i, part := range parts {
		if bytes.IndexByte([]byte(part), keySep) >= 0 {
			return nil, fmt.Errorf("key part %q contains separator byte", part)
		}
		if i > 0 {
			buf.WriteByte(keySep)
		}
		buf.WriteString(part)
	}
	return buf.Bytes(), nil
}

func decodeKey(k []byte) []string {
	raw := bytes.Split(k, []byte{keySep})
	parts := make([]string, len(raw))
	for i, r := range raw {
		parts[i] = string(r)
	}
	return parts
}
