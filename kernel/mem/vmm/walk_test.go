package vmm

import (
	"testing"
	"unsafe"

	"github.com/kvota/armpaging/kernel/mem"
	"github.com/kvota/armpaging/kernel/mem/pmm"
)

// Walk and TableCursor only ever take the *address* of a slot inside a
// synthetic table/frame in these tests; they never read or write through
// it, so a made-up physical address (rather than a real backing buffer)
// is sufficient and keeps the tests architecture-independent.

func TestTableCursorPacksFourPerFrame(t *testing.T) {
	const fakeFramePA = uintptr(0x10000000)

	allocCount := 0
	increfCount := 0
	allocFn := func(zero bool) (pmm.Frame, error) {
		allocCount++
		if allocCount > 1 {
			t.Fatalf("expected only one frame allocation for four table slots; got call %d", allocCount)
		}
		return pmm.FrameFromAddress(fakeFramePA), nil
	}
	increfFn := func(pmm.Frame) { increfCount++ }

	cursor := NewTableCursor(allocFn, increfFn)

	var addrs []uintptr
	for i := 0; i < 4; i++ {
		tbl, err := cursor.allocTable()
		if err != nil {
			t.Fatalf("unexpected error on allocTable %d: %v", i, err)
		}
		addrs = append(addrs, uintptr(unsafe.Pointer(tbl)))
	}

	if allocCount != 1 {
		t.Errorf("expected exactly 1 frame allocation for 4 table slots; got %d", allocCount)
	}
	if increfCount != 1 {
		t.Errorf("expected exactly 1 Incref call (once per frame, not per slot); got %d", increfCount)
	}

	for i := 1; i < len(addrs); i++ {
		if got, exp := addrs[i]-addrs[i-1], tableSize; got != exp {
			t.Errorf("expected consecutive table slots to be %d bytes apart; got %d", exp, got)
		}
	}

	// A fifth call must trigger a second frame allocation.
	if _, err := cursor.allocTable(); err != nil {
		t.Fatalf("unexpected error on fifth allocTable: %v", err)
	}
	if allocCount != 2 {
		t.Errorf("expected a 5th table slot to trigger a second frame allocation; got %d allocations", allocCount)
	}
}

func TestWalkCreatesCoarseTableOnDemand(t *testing.T) {
	const fakeFramePA = uintptr(0x20000000)

	allocFn := func(zero bool) (pmm.Frame, error) {
		return pmm.FrameFromAddress(fakeFramePA), nil
	}
	cursor := NewTableCursor(allocFn, func(pmm.Frame) {})

	var dir Directory
	va := uintptr(0x00001800) // dir index 0, table index 1

	pte, err := Walk(&dir, cursor, va, false)
	if err != nil {
		t.Fatalf("unexpected error on non-creating walk: %v", err)
	}
	if pte != nil {
		t.Fatal("expected a non-creating walk over an empty directory to return nil")
	}

	pte, err = Walk(&dir, cursor, va, true)
	if err != nil {
		t.Fatalf("unexpected error on creating walk: %v", err)
	}
	if pte == nil {
		t.Fatal("expected a creating walk to return a non-nil PTE slot")
	}
	if !dir[mem.PDX(va)].IsCoarse() {
		t.Fatal("expected Walk to install a coarse PDE")
	}

	pte2, err := Walk(&dir, cursor, va, false)
	if err != nil {
		t.Fatalf("unexpected error re-walking an existing mapping: %v", err)
	}
	if pte2 != pte {
		t.Fatal("expected walk determinism: re-walking an existing mapping must return the same slot")
	}
}

func TestWalkReturnsErrNoMemoryOnAllocFailure(t *testing.T) {
	allocFn := func(zero bool) (pmm.Frame, error) {
		return pmm.InvalidFrame, pmm.ErrOutOfMemory
	}
	cursor := NewTableCursor(allocFn, func(pmm.Frame) {})

	var dir Directory
	pte, err := Walk(&dir, cursor, 0x1000, true)
	if err == nil {
		t.Fatal("expected Walk to propagate the allocator's failure")
	}
	if pte != nil {
		t.Fatal("expected Walk to return a nil slot on failure")
	}
}
