// Package addr defines the address and extent types used throughout the
// store: a store address is nothing more than a 64-bit offset into the
// store's logical byte space, and an extent locates a value of known size at
// an address.
package addr

import "fmt"

// Address is a 64-bit absolute byte offset into the store's logical address
// space. The zero value, Null, never refers to a real object.
type Address uint64

// Null is the address that never refers to a real object.
const Null Address = 0

// IsNull reports whether a is the null address.
func (a Address) IsNull() bool {
	return a == Null
}

// String renders a as a hexadecimal offset.
func (a Address) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

// Extent locates a value of size Size bytes at address Addr. T only
// documents what is stored there; Go has no way to attach a phantom type
// parameter without a value, so Extent stays a plain struct rather than a
// generic one — callers that need the type information carry it themselves.
type Extent struct {
	Addr Address
	Size uint64
}

// End returns the address immediately following the extent.
func (e Extent) End() Address {
	return e.Addr + Address(e.Size)
}

// IsNull reports whether e refers to nothing (a null address and zero size).
func (e Extent) IsNull() bool {
	return e.Addr.IsNull() && e.Size == 0
}
