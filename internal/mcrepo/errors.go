package mcrepo

import "errors"

// Sentinel errors returned by fragment/compilation allocation and loading.
// The pstore facade returns them to its callers unchanged; they are compared
// with errors.Is.
var (
	ErrBadFragmentRecord            = errors.New("mcrepo: bad fragment record")
	ErrBadCompilationRecord         = errors.New("mcrepo: bad compilation record")
	ErrTooManyMembersInCompilation  = errors.New("mcrepo: too many members in compilation")
	ErrBSSSectionTooLarge           = errors.New("mcrepo: bss section too large")
	ErrBadFragmentType              = errors.New("mcrepo: operation not defined for this section kind")
)
