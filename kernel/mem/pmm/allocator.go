package pmm

import (
	"github.com/kvota/armpaging/kernel"
	"github.com/kvota/armpaging/kernel/mem"
)

// TotalPhysMem is the size of the physical RAM window this allocator
// tracks.
const TotalPhysMem = 256 * mem.Mb

// TotalFrames is the number of frames in TotalPhysMem.
const TotalFrames = uint32(TotalPhysMem / mem.PageSize)

// kernelImageStart and kernelImageEnd bound the statically loaded kernel
// image. Frame 0 and every frame in [kernelImageStart, kernelImageEnd)
// are reserved and never enter the free list; a platform bring-up
// package overwrites kernelImageEnd before calling Init with the actual
// end of the loaded image (the linker-provided "end" symbol).
var (
	kernelImageStart = uintptr(0x100000)
	kernelImageEnd   = uintptr(0x100000)
)

// ErrDoubleFree is the fatal error raised when Free is called on a
// descriptor whose refcount has not dropped to zero; it signals a
// programming error rather than a recoverable condition.
var ErrDoubleFree = &kernel.Error{Module: "pmm", Message: "free called on a frame with a non-zero refcount"}

// FrameAllocatorFn matches the signature used by collaborators (notably
// the translation-table walker) that need to request a fresh, zeroed
// frame without depending on the concrete Allocator type.
type FrameAllocatorFn func(zero bool) (Frame, error)

// ErrOutOfMemory is returned by Alloc when the free list is empty.
var ErrOutOfMemory = &kernel.Error{Module: "pmm", Message: "no free frames remaining"}

// ErrRefcountUnderflow is the fatal error raised when Decref is called on
// a frame whose refcount is already zero.
var ErrRefcountUnderflow = &kernel.Error{Module: "pmm", Message: "decref called on a frame with a zero refcount"}

// Allocator tracks one descriptor per physical frame and hands out
// frames from a singly-linked free list threaded through the descriptor
// table via frame indices. It assumes exclusive single-threaded access
// and is not internally synchronized.
type Allocator struct {
	descriptors [TotalFrames]descriptor
	freeHead    Frame
}

// memsetFn is overridden by tests so Alloc's zeroing path can be
// exercised without touching real memory.
var memsetFn = mem.Memset

// Init seeds the free list by walking every frame in TotalPhysMem. Frame
// 0 and the range [kernelImageStart, kernelImageEnd) are reserved and never freed; every
// other frame is pushed onto the free list. Frames are walked from the
// top of RAM down so that pushing onto the (LIFO) free list yields
// ascending allocation order, matching the traversal the self-checks
// expect.
func (a *Allocator) Init() {
	a.freeHead = InvalidFrame

	for i := int64(TotalFrames) - 1; i >= 0; i-- {
		frame := Frame(i)
		addr := frame.Address()
		if addr == 0 || (addr >= kernelImageStart && addr < kernelImageEnd) {
			a.descriptors[frame] = descriptor{refcount: 0, link: InvalidFrame}
			continue
		}

		a.descriptors[frame] = descriptor{refcount: 0, link: a.freeHead}
		a.freeHead = frame
	}
}

// SetKernelImageEnd records the end of the loaded kernel image so that
// Init can exclude [kernelImageStart, end) from the free list. It must
// be called before Init.
func SetKernelImageEnd(end uintptr) {
	kernelImageEnd = end
}

// Alloc detaches the head of the free list and returns it. If zero is
// true the frame's kernel-virtual alias is cleared to all zeroes before
// it is returned. The returned descriptor always has refcount == 0.
func (a *Allocator) Alloc(zero bool) (Frame, error) {
	if a.freeHead == InvalidFrame {
		return InvalidFrame, ErrOutOfMemory
	}

	f := a.freeHead
	desc := &a.descriptors[f]
	a.freeHead = desc.link
	desc.link = InvalidFrame

	if zero {
		memsetFn(mem.KADDR(f.Address()), 0, mem.PageSize)
	}

	return f, nil
}

// Free returns a frame to the free list. It is fatal to free a frame
// whose refcount has not dropped to zero: that is a programming error,
// not a runtime condition callers are expected to recover from.
func (a *Allocator) Free(f Frame) {
	desc := &a.descriptors[f]
	if desc.refcount != 0 {
		panicFn(ErrDoubleFree)
		return
	}

	desc.link = a.freeHead
	a.freeHead = f
}

// Decref decrements f's refcount and frees the frame once it reaches
// zero. Calling it on a frame whose refcount is already zero is fatal.
func (a *Allocator) Decref(f Frame) {
	desc := &a.descriptors[f]
	if desc.refcount == 0 {
		panicFn(ErrRefcountUnderflow)
		return
	}
	desc.refcount--
	if desc.refcount == 0 {
		a.Free(f)
	}
}

// DecrefRaw decrements f's refcount without ever freeing the frame, even
// if the count reaches zero. Used when a mapping is replaced with itself
// (the caller is about to re-increment the same count); routing that
// through Decref would risk freeing a frame that is, for an instant,
// still mapped.
func (a *Allocator) DecrefRaw(f Frame) {
	a.descriptors[f].refcount--
}

// Incref bumps f's refcount.
func (a *Allocator) Incref(f Frame) {
	a.descriptors[f].refcount++
}

// Refcount returns the current reference count of frame f. Exposed for
// tests and for mapping operations that need to branch on "is this the
// last reference".
func (a *Allocator) Refcount(f Frame) uint16 {
	return a.descriptors[f].refcount
}

// FreeFrameCount walks the free list and returns its length. Used for
// bootstrap logging; not on any allocation hot path.
func (a *Allocator) FreeFrameCount() uint32 {
	var count uint32
	for f := a.freeHead; f != InvalidFrame; f = a.descriptors[f].link {
		count++
	}
	return count
}

// panicFn is overridden by tests so the double-free path can be
// exercised without actually halting.
var panicFn = kernel.Panic
