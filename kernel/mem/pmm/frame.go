// Package pmm tracks the physical frames backing a fixed 256 MiB RAM
// window and hands them out through a singly-linked free list.
package pmm

import (
	"math"

	"github.com/kvota/armpaging/kernel/mem"
)

// Frame describes a physical memory frame index. Frame i corresponds to
// physical address i*mem.PageSize.
type Frame uint32

// InvalidFrame is returned by the allocator when it fails to reserve a
// frame.
const InvalidFrame = Frame(math.MaxUint32)

// Valid returns true if this is not the InvalidFrame sentinel.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical address backing this frame.
func (f Frame) Address() uintptr {
	return uintptr(f) << mem.PageShift
}

// FrameFromAddress returns the frame containing physical address pa.
func FrameFromAddress(pa uintptr) Frame {
	return Frame(pa >> mem.PageShift)
}

// descriptor is the per-frame bookkeeping record: a reference count and,
// only while the frame sits on the free list, the index of the next free
// frame. link is InvalidFrame when the descriptor is not on the free
// list.
type descriptor struct {
	refcount uint16
	link     Frame
}
