// Package filetree packs a byte stream into the store's FileBlob /
// FileBlobTree object graph and reads it back. Chunk boundaries come
// from internal/chunker; this package owns only the fan-out policy that
// groups chunks (and groups of groups) into a bounded-depth tree.
package filetree

import (
	"fmt"
	"io"

	"github.com/forgevault/forgevault/internal/cas"
	"github.com/forgevault/forgevault/internal/chunker"
	"github.com/forgevault/forgevault/internal/keyschedule"
	"github.com/forgevault/forgevault/internal/objects"
)

// Fan-out policy constants. A chunk is promoted into level L+1 once
// either its cut depth clears (L+1)*perLevelCount, or the current
// level's bucket has accumulated 1<<perLevelCountMax entries — whichever
// happens first bounds both tree depth and node fan-out.
const (
	perLevelCount    = 6
	perLevelCountMax = 9
	numLevels        = 5
)

// PutBlob persists a FileBlob object and returns its identifier.
type PutBlob func(buf []byte, codec objects.Codec) (cas.Identifier, error)

// PutKeys persists a FileBlobTree object over keys and returns its
// identifier. It is never called with a single key; Put hoists that
// case instead, matching the encoding's rejection of singleton trees.
type PutKeys func(keys []cas.Identifier) (cas.Identifier, error)

// Put chunks r and packs the chunks into a FileBlob/FileBlobTree graph,
// returning the root identifier and the total number of bytes read.
func Put(r io.Reader, table *keyschedule.GearTable, codec objects.Codec, putBlob PutBlob, putKeys PutKeys) (cas.Identifier, uint64, error) {
	c := chunker.New(r, table)

	var keyBufs [numLevels][]cas.Identifier
	var size uint64

	for {
		chunk, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return cas.Identifier{}, 0, err
		}
		size += uint64(len(chunk.Data))

		key, err := putBlob(chunk.Data, codec)
		if err != nil {
			return cas.Identifier{}, 0, err
		}
		keyBufs[0] = append(keyBufs[0], key)

		for level := 0; level < numLevels-1; level++ {
			n := len(keyBufs[level])
			if chunk.Depth() > uint32(level+1)*perLevelCount || n >= 1<<perLevelCountMax {
				promoted := keyBufs[level][0]
				if n != 1 {
					promoted, err = putKeys(keyBufs[level])
					if err != nil {
						return cas.Identifier{}, 0, err
					}
				}
				keyBufs[level] = nil
				keyBufs[level+1] = append(keyBufs[level+1], promoted)
			} else {
				break
			}
		}
	}

	if size == 0 {
		root, err := putBlob(nil, codec)
		if err != nil {
			return cas.Identifier{}, 0, err
		}
		return root, 0, nil
	}

	for level := 0; level < numLevels-1; level++ {
		if allEmpty(keyBufs[level+1:]) {
			if len(keyBufs[level]) == 1 {
				return keyBufs[level][0], size, nil
			}
		}

		var promoted cas.Identifier
		if len(keyBufs[level]) == 1 {
			promoted = keyBufs[level][0]
		} else {
			p, err := putKeys(keyBufs[level])
			if err != nil {
				return cas.Identifier{}, 0, err
			}
			promoted = p
		}
		keyBufs[level] = nil
		keyBufs[level+1] = append(keyBufs[level+1], promoted)
	}

	root, err := putKeys(keyBufs[numLevels-1])
	if err != nil {
		return cas.Identifier{}, 0, err
	}
	return root, size, nil
}

func allEmpty(bufs [][]cas.Identifier) bool {
	for _, b := range bufs {
		if len(b) != 0 {
			return false
		}
	}
	return true
}

// GetObject fetches a decoded object by identifier.
type GetObject func(id cas.Identifier) (objects.Object, error)

// ReadInto writes the full content reachable from key to w, descending
// through FileBlobTree nodes in order and through an FsItemFile's
// blob_tree field.
func ReadInto(get GetObject, key cas.Identifier, w io.Writer) error {
	obj, err := get(key)
	if err != nil {
		return err
	}

	switch obj.Kind {
	case objects.KindFileBlobTree:
		for _, child := range obj.Keys {
			if err := ReadInto(get, child, w); err != nil {
				return err
			}
		}
		return nil

	case objects.KindFileBlob:
		_, err := w.Write(obj.Buf)
		return err

	case objects.KindFsItemFile:
		return ReadInto(get, obj.BlobTree, w)

	default:
		return &UnexpectedKindError{Key: key, Kind: obj.Kind}
	}
}

// UnexpectedKindError reports that ReadInto reached an object that
// cannot appear inside a file's content graph.
type UnexpectedKindError struct {
	Key  cas.Identifier
	Kind objects.Kind
}

func (e *UnexpectedKindError) Error() string {
	return fmt.Sprintf("filetree: unexpected object kind %d reading %s", e.Kind, e.Key.String())
}
