// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import "errors"

var (
	// ErrFileNotFound is returned when inserting tags for a path that does
	// not exist on disk.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPath is returned for paths that are not valid UTF-8.
	ErrInvalidPath = errors.New("path is not valid UTF-8")

	// ErrInvalidTag is returned for tags that are not valid UTF-8.
	ErrInvalidTag = errors.New("tag is not valid UTF-8")

	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("corrupt index entry")

	// ErrEncode is returned when a tag or file list cannot be encoded for
	// storage.
	ErrEncode = errors.New("encoding index entry")

	// ErrNotIndexed is returned when an operation needs a file that has no
	// entry in the index.
	ErrNotIndexed = errors.New("file not in index")

	// ErrInvalidRetag is returned for renames and merges whose source and
	// target tags overlap or are missing.
	ErrInvalidRetag = errors.New("invalid tag rewrite")
)
