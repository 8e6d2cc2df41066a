// Package wsindex caches the mapping from a workspace file's observed
// on-disk state to the identifier of its already-packed content, so a
// snapshot can skip rechunking and rehashing any file whose inode,
// modification time, and size have not changed since the last scan.
package wsindex

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/forgevault/forgevault/internal/cas"
)

// CacheKey is the on-disk fingerprint of one file, at the moment it
// was last packed. It deliberately excludes the path: an inode already
// identifies the file uniquely on its filesystem, and comparing by
// inode means a renamed-but-unmodified file still hits the cache.
type CacheKey struct {
	Inode uint64
	Mtime int64
	Size  uint64
}

func (k CacheKey) bytes() []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf[0:8], k.Inode)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(k.Mtime))
	binary.LittleEndian.PutUint64(buf[16:24], k.Size)
	return buf
}

// Cache maps CacheKeys to the identifier of a file's packed content
// (an FsItemFile root).
type Cache interface {
	Get(key CacheKey) (cas.Identifier, bool, error)
	// Put records id under key unless the key already has an entry:
	// the cache is a write-once memo, not a mutable map, since an
	// unchanged (inode, mtime, size) fingerprint can only ever have
	// produced one packing.
	Put(key CacheKey, id cas.Identifier) error
	Close() error
}

var bucketName = []byte("cache")

// BoltCache is a Cache backed by a bbolt file, independent of the
// object store's own backend so the cache can be dropped and rebuilt
// without touching any stored content.
type BoltCache struct {
	db *bolt.DB
}

// OpenBoltCache opens (creating if necessary) the cache file at path.
func OpenBoltCache(path string) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("wsindex: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltCache{db: db}, nil
}

func (c *BoltCache) Get(key CacheKey) (cas.Identifier, bool, error) {
	var id cas.Identifier
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key.bytes())
		if v == nil {
			return nil
		}
		parsed, err := cas.ParseWire(v)
		if err != nil {
			return err
		}
		id, found = parsed, true
		return nil
	})
	return id, found, err
}

func (c *BoltCache) Put(key CacheKey, id cas.Identifier) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		k := key.bytes()
		if bucket.Get(k) != nil {
			return nil
		}
		return bucket.Put(k, id.Wire())
	})
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}
