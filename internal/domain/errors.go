package domain

import "errors"

var (
	// ErrConfig marks an unusable configuration. Fatal at startup.
	ErrConfig = errors.New("config error")
	// ErrParse marks a source file that is unreadable or not a record list.
	ErrParse = errors.New("parse error")
	// ErrRecord marks a single record rejected by mapping or by the store.
	ErrRecord = errors.New("record error")
	// ErrCommit marks a batch transaction that could not be committed.
	ErrCommit = errors.New("commit error")
	// ErrArchive marks a processed file that could not be moved.
	ErrArchive = errors.New("archive error")
	// ErrSavepoint marks a savepoint that could not be created, released
	// or rolled back; the enclosing transaction is no longer usable.
	ErrSavepoint = errors.New("savepoint failed")
)
