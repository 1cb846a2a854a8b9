package vmm

import "github.com/kvota/armpaging/kernel/cpu"

var (
	// flushTLBEntryFn is used by tests to override the real coprocessor
	// write, which would fault outside a privileged ARM context.
	flushTLBEntryFn = cpu.FlushTLBEntry

	// mmuEnabled gates tlbInvalidate: before the kernel directory is
	// installed there is nothing for the TLB to cache, and issuing the
	// coprocessor write against a not-yet-active translation scheme is
	// pointless. Install sets this once the new directory is live.
	mmuEnabled = false
)

// tlbInvalidate issues the single-entry TLB invalidation for va. dir is
// accepted to keep the call site symmetric with a future multi-directory
// or SMP extension; this single-core implementation ignores it.
func tlbInvalidate(dir *Directory, va uintptr) {
	if !mmuEnabled {
		return
	}
	flushTLBEntryFn(va)
}
