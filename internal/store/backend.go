// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

// tree names one of the two logical key/value trees.
type tree string

const (
	// filesTree maps raw path bytes to an encoded tag list.
	filesTree tree = "files"
	// tagsTree maps a UTF-8 tag to an encoded list of path strings.
	tagsTree tree = "tags"
)

// backend is the storage engine under Store. Every Store operation runs in
// one txn so that the forward and reverse trees change together.
type backend interface {
	begin(writable bool) (txn, error)
	flush() error
	close() error
}

// txn is a view of both trees. Writes become visible to other txns only on
// commit. rollback after commit is a no-op.
type txn interface {
	get(t tree, key []byte) ([]byte, bool, error)
	put(t tree, key, value []byte) error
	delete(t tree, key []byte) (bool, error)
	// scan calls fn for each key with the given prefix in ascending key
	// order. An empty prefix scans the whole tree.
	scan(t tree, prefix []byte, fn func(key, value []byte) error) error
	count(t tree) (int, error)
	clear(t tree) error
	commit() error
	rollback() error
}
