package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrStoreClosed = errors.New("db: store closed")
	ErrLocked      = errors.New("db: data directory locked by another process")
)

// Op names used for error context.
const (
	OpLoad    = "LOAD"
	OpReplace = "REPLACE"
	OpPut     = "PUT"
	OpPing    = "PING"
	OpDel     = "DEL"
	OpHGetAll = "HGETALL"
	OpHSet    = "HSET"
	OpRename  = "RENAME"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
