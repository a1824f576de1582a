package errors

import stdErrors "errors"

// Sentinel errors for the store's on-disk invariant violations.
// internal/storage and internal/database return them, often wrapped with
// fmt.Errorf's %w, and callers test for them with errors.Is. The pstore
// facade passes them to its callers unchanged; it does not wrap them in a
// DatabaseError.
var (
	ErrStoreClosed    = stdErrors.New("pstore: operation attempted on a closed database")
	ErrFooterCorrupt  = stdErrors.New("pstore: footer pointer invalid or trailer corrupt")
	ErrUnknownRevision = stdErrors.New("pstore: sync requested an unknown revision")
	ErrBadAddress     = stdErrors.New("pstore: read beyond current logical size")
	ErrReadOnlyAddress = stdErrors.New("pstore: write requested at or below committed footer")
)

// DatabaseError is a specialized error type for database/transaction
// operations: header and trailer validation, revision sync, and the commit
// protocol. It embeds baseError to inherit error chaining and structured
// details, then adds the location context needed to diagnose a corrupt or
// misused store.
type DatabaseError struct {
	*baseError
	path     string
	revision uint32
	offset   uint64
}

// NewDatabaseError creates a new database-specific error.
func NewDatabaseError(err error, code ErrorCode, msg string) *DatabaseError {
	return &DatabaseError{baseError: NewBaseError(err, code, msg)}
}

// WithPath records which store file was being accessed.
func (de *DatabaseError) WithPath(path string) *DatabaseError {
	de.path = path
	return de
}

// WithRevision records which revision/generation was involved.
func (de *DatabaseError) WithRevision(revision uint32) *DatabaseError {
	de.revision = revision
	return de
}

// WithOffset records the byte offset within the store where the error
// occurred (e.g. a corrupt trailer's address).
func (de *DatabaseError) WithOffset(offset uint64) *DatabaseError {
	de.offset = offset
	return de
}

// WithDetail adds contextual information while maintaining the
// DatabaseError type.
func (de *DatabaseError) WithDetail(key string, value any) *DatabaseError {
	de.baseError.WithDetail(key, value)
	return de
}

// Path returns the store file path associated with the error.
func (de *DatabaseError) Path() string {
	return de.path
}

// Revision returns the revision/generation associated with the error.
func (de *DatabaseError) Revision() uint32 {
	return de.revision
}

// Offset returns the byte offset associated with the error.
func (de *DatabaseError) Offset() uint64 {
	return de.offset
}

// IsDatabaseError identifies errors raised by the database/transaction
// layer.
func IsDatabaseError(err error) bool {
	var de *DatabaseError
	return stdErrors.As(err, &de)
}

// AsDatabaseError extracts DatabaseError context from an error chain.
func AsDatabaseError(err error) (*DatabaseError, bool) {
	var de *DatabaseError
	if stdErrors.As(err, &de) {
		return de, true
	}
	return nil, false
}
