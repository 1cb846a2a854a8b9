package kernel

import (
	"github.com/kvota/armpaging/kernel/hal"
	"github.com/kvota/armpaging/kernel/kfmt/early"
	"github.com/kvota/armpaging/kernel/mem/pmm"
	"github.com/kvota/armpaging/kernel/mem/vmm"
)

// kernelAllocator backs the kernel's frame allocator for the lifetime of
// the running image. It is a package-level var rather than something
// Kmain constructs and discards locally because every later subsystem
// that maps memory needs a handle to the same allocator.
var kernelAllocator pmm.Allocator

// bootstackPA is the physical address of the statically allocated boot
// stack. A platform bring-up package overwrites this before Kmain runs,
// the same way SetKernelImageEnd supplies the kernel image's bound; zero
// here since this entrypoint runs without a real linked ARM image behind
// it.
var bootstackPA uintptr

// errInstallFailed is the fatal error raised when the kernel address
// space cannot be installed.
var errInstallFailed = &Error{Module: "kernel", Message: "failed to install kernel address space"}

// Kmain is the only Go symbol visible (exported) from the rt0
// initialization code. It is invoked by the ARM startup assembly after
// the entry directory (vmm.EntryDirectory) has been activated and a
// minimal Go stack is usable.
//
// Kmain is not expected to return. If it does, the rt0 code halts the
// CPU.
//
//go:noinline
func Kmain() {
	hal.InitConsole()
	early.Printf("Starting armpaging\n")

	kernelAllocator.Init()
	early.Printf("pmm: %d frames free\n", kernelAllocator.FreeFrameCount())

	kernelSpace := vmm.NewKernelAddressSpace(&kernelAllocator, bootstackPA)
	if err := kernelSpace.Install(); err != nil {
		Panic(errInstallFailed)
	}
	early.Printf("vmm: kernel address space installed\n")

	// Prevent Kmain from returning; the out-of-scope console/monitor
	// subsystem normally takes over from here.
	for {
	}
}
