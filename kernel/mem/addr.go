package mem

import "github.com/kvota/armpaging/kernel"

// KERNBASE is the high-half virtual base at which all physical RAM is
// aliased once the kernel address space is installed.
const KERNBASE = uintptr(0xF0000000)

// Linear addresses decompose into a directory index, a table index and
// a page offset: [dir:12 | tab:8 | off:12].
const (
	dirIndexBits = 12
	tabIndexBits = 8

	tabIndexShift = PageShift
	dirIndexShift = tabIndexShift + tabIndexBits

	tabIndexMask = uintptr(1<<tabIndexBits) - 1
	offsetMask   = uintptr(PageSize) - 1
)

// DirEntries is the number of entries in a first-level directory.
const DirEntries = 1 << dirIndexBits

// TableEntries is the number of entries in a second-level table.
const TableEntries = 1 << tabIndexBits

// DirEntrySpan is the number of bytes mapped by a single directory entry
// (one second-level table, or one 1 MiB section).
const DirEntrySpan = Size(TableEntries) * PageSize

// PDX returns the first-level directory index encoded in va.
func PDX(va uintptr) uintptr {
	return va >> dirIndexShift
}

// PTX returns the second-level table index encoded in va.
func PTX(va uintptr) uintptr {
	return (va >> tabIndexShift) & tabIndexMask
}

// PGOFF returns the page offset encoded in va.
func PGOFF(va uintptr) uintptr {
	return va & offsetMask
}

// PGADDR reassembles a virtual address from a directory index, table
// index and page offset; it is the inverse of PDX/PTX/PGOFF.
func PGADDR(dirIdx, tabIdx, off uintptr) uintptr {
	return dirIdx<<dirIndexShift | tabIdx<<tabIndexShift | off
}

// ErrBadAddress is returned by PADDR when asked to translate a virtual
// address that does not lie in the kernel's high-half alias.
var ErrBadAddress = &kernel.Error{Module: "mem", Message: "address below KERNBASE has no physical alias"}

// KADDR returns the kernel-virtual alias of a physical address.
func KADDR(pa uintptr) uintptr {
	return pa + KERNBASE
}

// PADDR returns the physical address aliased by kernel-virtual address
// va. va must be at or above KERNBASE; PADDR returns ErrBadAddress
// otherwise instead of silently wrapping the subtraction.
func PADDR(va uintptr) (uintptr, error) {
	if va < KERNBASE {
		return 0, ErrBadAddress
	}
	return va - KERNBASE, nil
}
