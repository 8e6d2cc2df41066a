// Package boltstore implements a backend.Backend over a single bbolt
// file: one bucket for content-addressed objects, one for singleton
// state values, and one for append-only reflog entries.
package boltstore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/forgevault/forgevault/internal/backend"
	"github.com/forgevault/forgevault/internal/cas"
)

var (
	bucketObjects = []byte("objects")
	bucketState   = []byte("state")
	bucketReflog  = []byte("reflog")
)

// Backend is a bbolt-backed backend.Backend. A single Backend may have
// at most one transaction open via Begin at a time.
type Backend struct {
	db *bolt.DB
	tx *bolt.Tx
}

// Open opens (creating if necessary) the bbolt file at path and
// ensures its buckets exist.
func Open(path string) (*Backend, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketObjects, bucketState, bucketReflog} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Backend{db: db}, nil
}

// view runs fn against a read-only view of the database, reusing an
// open transaction from Begin if one is active.
func (b *Backend) view(fn func(tx *bolt.Tx) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	return b.db.View(fn)
}

// update runs fn against a writable view of the database, reusing an
// open transaction from Begin if one is active.
func (b *Backend) update(fn func(tx *bolt.Tx) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	return b.db.Update(fn)
}

func (b *Backend) RawGet(key []byte) ([]byte, error) {
	var out []byte
	err := b.view(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketObjects).Get(key)
		if v == nil {
			return backend.ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (b *Backend) RawPut(key, data []byte) error {
	return b.update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketObjects).Put(key, data)
	})
}

func (b *Backend) RawExists(key []byte) (bool, error) {
	var exists bool
	err := b.view(func(tx *bolt.Tx) error {
		exists = tx.Bucket(bucketObjects).Get(key) != nil
		return nil
	})
	return exists, err
}

func (b *Backend) RawGetState(key []byte) ([]byte, bool, error) {
	var out []byte
	var found bool
	err := b.view(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketState).Get(key)
		if v == nil {
			return nil
		}
		found = true
		out = append([]byte(nil), v...)
		return nil
	})
	return out, found, err
}

func (b *Backend) RawPutState(key, data []byte) error {
	return b.update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put(key, data)
	})
}

func (b *Backend) RawBetween(start, end []byte) ([][]byte, error) {
	var out [][]byte
	err := b.view(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketObjects).Cursor()
		for k, v := c.Seek(start); k != nil; k, v = c.Next() {
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			out = append(out, append([]byte(nil), v...))
		}
		return nil
	})
	return out, err
}

// reflogPrefix builds the key prefix under which every entry for
// (refname, remote) is stored, so ReflogWalk can Seek directly to it.
func reflogPrefix(refname, remote string) []byte {
	return []byte(refname + "\x00" + remote + "\x00")
}

func (b *Backend) ReflogPush(entry backend.Reflog) error {
	return b.update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketReflog)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		key := reflogPrefix(entry.RefName, entry.Remote)
		key = binary.BigEndian.AppendUint64(key, seq)
		return bucket.Put(key, entry.Key.Wire())
	})
}

func (b *Backend) ReflogGet(refname, remote string) (cas.Identifier, error) {
	history, err := b.ReflogWalk(refname, remote)
	if err != nil {
		return cas.Identifier{}, err
	}
	if len(history) == 0 {
		return cas.Identifier{}, backend.ErrNotFound
	}
	return history[0], nil
}

// ReflogWalk returns every identifier recorded for (refname, remote),
// newest first: the monotonic sequence number is the insertion key, so
// reading the cursor backward from the end of the prefix's range
// already yields most-recent-first order.
func (b *Backend) ReflogWalk(refname, remote string) ([]cas.Identifier, error) {
	prefix := reflogPrefix(refname, remote)
	upper := append(append([]byte(nil), prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
	var out []cas.Identifier
	err := b.view(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketReflog).Cursor()
		k, v := c.Seek(upper)
		if k == nil || !bytes.HasPrefix(k, prefix) {
			k, v = c.Prev()
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Prev() {
			id, err := cas.ParseWire(v)
			if err != nil {
				return fmt.Errorf("boltstore: corrupt reflog entry for %s: %w", refname, err)
			}
			out = append(out, id)
		}
		return nil
	})
	return out, err
}

// Begin starts a writable transaction that every subsequent call on
// this Backend reuses until Commit or Rollback. Backend is not safe
// for concurrent use while a transaction is open.
func (b *Backend) Begin() error {
	if b.tx != nil {
		return fmt.Errorf("boltstore: transaction already open")
	}
	tx, err := b.db.Begin(true)
	if err != nil {
		return err
	}
	b.tx = tx
	return nil
}

func (b *Backend) Commit() error {
	if b.tx == nil {
		return nil
	}
	tx := b.tx
	b.tx = nil
	return tx.Commit()
}

func (b *Backend) Rollback() error {
	if b.tx == nil {
		return nil
	}
	tx := b.tx
	b.tx = nil
	return tx.Rollback()
}

func (b *Backend) Close() error {
	if b.tx != nil {
		_ = b.tx.Rollback()
		b.tx = nil
	}
	return b.db.Close()
}
