// Package treewalk walks the object graph rooted at a directory or
// commit, producing a flat path -> (identifier, kind) map. It performs
// no filesystem I/O of its own; every object it visits comes from a
// caller-supplied lookup function.
package treewalk

import (
	"fmt"
	"path"

	"github.com/forgevault/forgevault/internal/cas"
	"github.com/forgevault/forgevault/internal/objects"
)

// GetObject fetches a decoded object by identifier.
type GetObject func(id cas.Identifier) (objects.Object, error)

// Entry is one walked path's resolved target.
type Entry struct {
	ID   cas.Identifier
	Kind objects.EntryKind
}

// Walk resolves root (an FsItemDir, FsItemFile, or Commit identifier)
// into a map from slash-separated path to the (identifier, kind) of
// whatever lives there. The root directory itself is not recorded
// under any path; callers compare the returned maps as sets of real
// entries.
//
// A Commit is transparently unwrapped to its tree before walking; a
// submodule boundary entry is recorded but not descended into, since
// its contents live in a different store.
func Walk(get GetObject, root cas.Identifier) (map[string]Entry, error) {
	obj, err := get(root)
	if err != nil {
		return nil, err
	}
	if obj.Kind == objects.KindCommit {
		root = obj.Tree
		obj, err = get(root)
		if err != nil {
			return nil, err
		}
	}
	if obj.Kind == objects.KindFsItemFile {
		return map[string]Entry{}, nil
	}
	if obj.Kind != objects.KindFsItemDir {
		return nil, &UnexpectedKindError{At: "", ID: root, Kind: obj.Kind}
	}

	results := make(map[string]Entry)
	if err := walkDir(get, obj, "", results); err != nil {
		return nil, err
	}
	return results, nil
}

func walkDir(get GetObject, obj objects.Object, at string, results map[string]Entry) error {
	for _, child := range obj.Children {
		childPath := path.Join(at, child.Name)
		if child.Kind == objects.EntrySubmodule {
			results[childPath] = Entry{ID: child.ID, Kind: objects.EntrySubmodule}
			continue
		}
		childObj, err := get(child.ID)
		if err != nil {
			return err
		}
		switch childObj.Kind {
		case objects.KindFsItemDir:
			results[childPath] = Entry{ID: child.ID, Kind: objects.EntryDir}
			if err := walkDir(get, childObj, childPath, results); err != nil {
				return err
			}
		case objects.KindFsItemFile:
			results[childPath] = Entry{ID: child.ID, Kind: objects.EntryFile}
		default:
			return &UnexpectedKindError{At: childPath, ID: child.ID, Kind: childObj.Kind}
		}
	}
	return nil
}

// UnexpectedKindError reports that the walker reached an object that
// cannot appear inside a directory tree.
type UnexpectedKindError struct {
	At   string
	ID   cas.Identifier
	Kind objects.Kind
}

func (e *UnexpectedKindError) Error() string {
	return fmt.Sprintf("treewalk: unexpected object kind %d at %q (%s)", e.Kind, e.At, e.ID)
}
