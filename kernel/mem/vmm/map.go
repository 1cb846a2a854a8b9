package vmm

import (
	"github.com/kvota/armpaging/kernel"
	"github.com/kvota/armpaging/kernel/mem"
	"github.com/kvota/armpaging/kernel/mem/pmm"
)

// Insert installs a mapping from va to frame f with the given
// permission, allocating a second-level table via cursor if needed. If
// va was already mapped to a different frame, that mapping is removed
// (decrefing its frame) first. If va was already mapped to f, the
// permission bits are updated in place and f's refcount does not change
// net of the call — only the permission bits and the TLB entry change.
// Otherwise f's refcount is bumped by exactly one.
func Insert(dir *Directory, cursor *TableCursor, alloc *pmm.Allocator, f pmm.Frame, va uintptr, perm Perm) error {
	pte, err := Walk(dir, cursor, va, true)
	if err != nil {
		return err
	}

	if pte.Present() {
		if pte.Frame() == f {
			alloc.DecrefRaw(f)
			tlbInvalidate(dir, va)
		} else {
			Remove(dir, cursor, alloc, va)
		}
	}

	pte.SetSmall(f, perm)
	alloc.Incref(f)

	return nil
}

// Lookup returns the frame mapped at va and a handle to its PTE slot. ok
// is false if va has no mapping.
func Lookup(dir *Directory, cursor *TableCursor, va uintptr) (f pmm.Frame, slot *pageTableEntry, ok bool) {
	pte, err := Walk(dir, cursor, va, false)
	if err != nil || pte == nil || !pte.Present() {
		return pmm.InvalidFrame, nil, false
	}
	return pte.Frame(), pte, true
}

// Remove unmaps va, if it is currently mapped: the backing frame is
// decrefed, the PTE is cleared, and the TLB entry for va is invalidated.
// It is a no-op if va has no mapping.
func Remove(dir *Directory, cursor *TableCursor, alloc *pmm.Allocator, va uintptr) {
	f, pte, ok := Lookup(dir, cursor, va)
	if !ok {
		return
	}

	alloc.Decref(f)
	pte.Clear()
	tlbInvalidate(dir, va)
}

// errBootMapOutOfMemory is fatal: bootstrap cannot proceed without the
// second-level tables it needs to build the kernel's initial mappings.
var errBootMapOutOfMemory = &kernel.Error{Module: "vmm", Message: "boot_map_region out of memory"}

// panicFn lets tests exercise BootMapRegion's fatal path without halting.
var panicFn = kernel.Panic

// BootMapRegion maps size bytes of physical memory starting at pa into
// the virtual range starting at va, using kernel-only small-page
// mappings. va and pa must be page-aligned and size a multiple of
// mem.PageSize. Unlike Insert, boot mappings carry no refcount
// accounting: they are considered permanent for the lifetime of the
// kernel directory. A walker failure here is fatal — bootstrap cannot
// recover from it.
func BootMapRegion(dir *Directory, cursor *TableCursor, va, pa uintptr, size mem.Size) {
	for i := uint32(0); i < size.Pages(); i++ {
		off := uintptr(i) * uintptr(mem.PageSize)
		pte, err := Walk(dir, cursor, va+off, true)
		if err != nil || pte == nil {
			panicFn(errBootMapOutOfMemory)
			return
		}
		pte.SetSmall(pmm.FrameFromAddress(pa+off), PermNoneUser)
	}
}
