package vmm

import (
	"unsafe"

	"github.com/kvota/armpaging/kernel/cpu"
	"github.com/kvota/armpaging/kernel/kfmt/early"
	"github.com/kvota/armpaging/kernel/mem"
	"github.com/kvota/armpaging/kernel/mem/pmm"
)

// writeTTBR0Fn and setDomainAccessFn are overridden by tests so Install
// can be exercised without issuing privileged coprocessor writes.
var (
	writeTTBR0Fn      = cpu.WriteTTBR0
	setDomainAccessFn = cpu.SetDomainAccess
)

// KSTACKTOP is the virtual address one past the top of the boot stack.
// It coincides with KERNBASE, the same way the boot stack sits directly
// below the physical-memory alias in JOS's memory layout: the section
// directly below the alias window is free for the stack's own mapping,
// and the section below that is left unmapped as a guard against
// overflow.
const KSTACKTOP = mem.KERNBASE

// KSTKSIZE is the size of the boot-stack mapping. The ARM first-level
// directory only maps at section (1 MiB) granularity, so the mapping
// covers a full section even though the stack itself is smaller.
const KSTKSIZE = uintptr(mem.DirEntrySpan)

// AddressSpace owns a kernel translation directory together with the
// cursor used to sub-allocate its second-level tables. It assumes
// exclusive single-threaded access and is not internally synchronized,
// exactly like the allocator it wraps.
type AddressSpace struct {
	dir    Directory
	cursor *TableCursor
	alloc  *pmm.Allocator
}

// NewKernelAddressSpace builds the kernel's working translation
// directory: physical memory aliased at KERNBASE in 1 MiB sections,
// clearing the identity alias each section would otherwise leave behind
// at its own physical address, a section PDE for the boot stack at
// [KSTACKTOP-KSTKSIZE, KSTACKTOP) mapped to bootstackPA, and the GPIO
// peripheral window. It does not touch any coprocessor register; call
// Install to make it the active translation table.
//
// bootstackPA is the physical address of the statically allocated boot
// stack; a platform bring-up package supplies it (the linker-provided
// symbol a real port would read it from is out of scope here).
//
// The loop below is bounded by pmm.TotalPhysMem rather than by
// wraparound past the top of the address space: on the 32-bit target
// those coincide, but tests run on a host architecture where uintptr is
// wider, where a wraparound-based loop condition would never terminate.
func NewKernelAddressSpace(alloc *pmm.Allocator, bootstackPA uintptr) *AddressSpace {
	as := &AddressSpace{alloc: alloc}
	as.cursor = NewTableCursor(alloc.Alloc, alloc.Incref)

	for pa := uintptr(0); pa < uintptr(pmm.TotalPhysMem); pa += uintptr(mem.DirEntrySpan) {
		as.dir[mem.PDX(mem.KERNBASE+pa)].SetSection(pa, PermNoneUser)
		as.dir[mem.PDX(pa)].Clear()
	}

	as.dir[mem.PDX(KSTACKTOP-KSTKSIZE)].SetSection(bootstackPA, PermNoneUser)
	as.dir[mem.PDX(gpioBase)].SetSection(gpioBase, PermNoneUser)

	early.Printf("vmm: kernel directory built, %d frames free\n", alloc.FreeFrameCount())

	return as
}

// Install activates this address space: it writes the directory's
// physical address into TTBR0, grants the kernel client access to
// domain 0, and flips the flag that lets tlbInvalidate start issuing
// real coprocessor writes. Must run with the entry directory (or an
// equivalent identity/KERNBASE mapping) still active, since Install's
// own instructions must remain reachable across the switch.
func (as *AddressSpace) Install() error {
	dirPA, err := mem.PADDR(uintptr(unsafe.Pointer(&as.dir)))
	if err != nil {
		return err
	}
	writeTTBR0Fn(dirPA)
	setDomainAccessFn(0, cpu.DomainClient)
	mmuEnabled = true
	return nil
}

// Insert, Lookup and Remove delegate to the package-level functions of
// the same name, bound to this address space's directory, cursor and
// allocator.
func (as *AddressSpace) Insert(f pmm.Frame, va uintptr, perm Perm) error {
	return Insert(&as.dir, as.cursor, as.alloc, f, va, perm)
}

func (as *AddressSpace) Lookup(va uintptr) (pmm.Frame, *pageTableEntry, bool) {
	return Lookup(&as.dir, as.cursor, va)
}

func (as *AddressSpace) Remove(va uintptr) {
	Remove(&as.dir, as.cursor, as.alloc, va)
}
