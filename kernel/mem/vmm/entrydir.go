package vmm

import "github.com/kvota/armpaging/kernel/mem"

// gpioBase is the BCM2835 GPIO peripheral window, mapped uncached so
// the earliest boot code can toggle pins before a real device driver
// exists.
const gpioBase = uintptr(0x3F200000)

// entryDirSpanMB is the number of 1 MiB sections identity-mapped (and
// aliased at KERNBASE) by EntryDirectory -- enough to cover the
// bootstrap code, stack and entry directory itself before the kernel's
// real directory takes over.
const entryDirSpanMB = 16

// EntryDirectory is the first-level translation table the bootstrap
// loader activates before a single frame has been allocated: it
// identity-maps the first entryDirSpanMB megabytes of physical memory,
// repeats that mapping at the KERNBASE alias, and maps the GPIO
// peripheral window, all as 1 MiB sections. It needs no second-level
// tables and no allocator, which is why it exists: code executes at its
// physical load address until this directory (or its successor) is
// installed and the KERNBASE alias becomes reachable.
//
// Its entries are set by this package's init function rather than by a
// static literal, so the table is all zeroes until package
// initialization has run. Never mutated after init.
// NewKernelAddressSpace constructs the real working directory
// separately, and EntryDirectory is simply never referenced again once
// it completes.
var EntryDirectory Directory

func init() {
	kernbaseDirIdx := mem.PDX(mem.KERNBASE)
	for i := uintptr(0); i < entryDirSpanMB; i++ {
		base := i * uintptr(mem.DirEntrySpan)
		EntryDirectory[i].SetSection(base, PermNoneAll)
		EntryDirectory[kernbaseDirIdx+i].SetSection(base, PermNoneAll)
	}
	EntryDirectory[mem.PDX(gpioBase)].SetSection(gpioBase, PermNoneAll)
}
