package vmm

import (
	"unsafe"

	"github.com/kvota/armpaging/kernel"
	"github.com/kvota/armpaging/kernel/mem"
	"github.com/kvota/armpaging/kernel/mem/pmm"
)

// ErrNoMemory is returned when Walk cannot acquire a second-level table
// to satisfy a create=true request.
var ErrNoMemory = &kernel.Error{Module: "vmm", Message: "could not allocate a second-level table"}

var (
	// tablePtrFn casts a second-level table's kernel-virtual base address
	// to a *Table. It is overridden by tests so Walk can be exercised
	// against plain Go-allocated backing storage instead of real
	// physical memory.
	tablePtrFn = func(addr uintptr) *Table {
		return (*Table)(unsafe.Pointer(addr))
	}

	// dirPtrFn is the directory equivalent of tablePtrFn.
	dirPtrFn = func(addr uintptr) *Directory {
		return (*Directory)(unsafe.Pointer(addr))
	}
)

// TableCursor is the walker's private second-level-table sub-allocator.
// A second-level table is 1024 bytes, one quarter of a physical frame;
// the cursor packs four tables into each frame it requests from the
// allocator, exactly tracking how much of the current frame has been
// handed out.
type TableCursor struct {
	allocFn   pmm.FrameAllocatorFn
	increfFn  func(pmm.Frame)
	frame     pmm.Frame
	offset    uintptr
}

// NewTableCursor creates a cursor that pulls fresh frames from allocFn,
// pinning each with a call to increfFn the moment it is claimed.
func NewTableCursor(allocFn pmm.FrameAllocatorFn, increfFn func(pmm.Frame)) *TableCursor {
	return &TableCursor{
		allocFn:  allocFn,
		increfFn: increfFn,
		frame:    pmm.InvalidFrame,
		offset:   0,
	}
}

// allocTable hands out the next 1024-byte table-sized slot, requesting
// and pinning a fresh zeroed frame from the allocator whenever the
// current one is exhausted.
func (c *TableCursor) allocTable() (*Table, error) {
	if c.frame == pmm.InvalidFrame || c.offset >= uintptr(mem.PageSize) {
		f, err := c.allocFn(true)
		if err != nil {
			return nil, err
		}
		c.increfFn(f)
		c.frame = f
		c.offset = 0
	}

	addr := mem.KADDR(c.frame.Address()) + c.offset
	c.offset += tableSize
	return tablePtrFn(addr), nil
}

// Walk inspects dir[PDX(va)]. If that slot is not a coarse pointer and
// create is false, it returns (nil, nil) — no mapping exists. If create
// is true, it allocates a second-level table via cursor, installs a
// coarse PDE for it, and continues. Either way it returns a pointer to
// table[PTX(va)].
func Walk(dir *Directory, cursor *TableCursor, va uintptr, create bool) (*pageTableEntry, error) {
	pde := &dir[mem.PDX(va)]

	if !pde.IsCoarse() {
		if !create {
			return nil, nil
		}

		table, err := cursor.allocTable()
		if err != nil {
			return nil, ErrNoMemory
		}

		tableAddr, err := mem.PADDR(uintptr(unsafe.Pointer(table)))
		if err != nil {
			return nil, err
		}
		pde.SetCoarse(tableAddr)
	}

	table := tablePtrFn(mem.KADDR(pde.CoarseAddr()))
	return &table[mem.PTX(va)], nil
}
