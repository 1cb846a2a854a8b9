package vmm

import "testing"

func TestTLBInvalidateNoopBeforeMMUEnabled(t *testing.T) {
	origFn, origEnabled := flushTLBEntryFn, mmuEnabled
	defer func() { flushTLBEntryFn, mmuEnabled = origFn, origEnabled }()

	mmuEnabled = false
	called := false
	flushTLBEntryFn = func(uintptr) { called = true }

	tlbInvalidate(&Directory{}, 0x1000)

	if called {
		t.Fatal("expected tlbInvalidate to be a no-op before the MMU is enabled")
	}
}

func TestTLBInvalidateFlushesOnceEnabled(t *testing.T) {
	origFn, origEnabled := flushTLBEntryFn, mmuEnabled
	defer func() { flushTLBEntryFn, mmuEnabled = origFn, origEnabled }()

	mmuEnabled = true
	var gotVA uintptr
	flushTLBEntryFn = func(va uintptr) { gotVA = va }

	tlbInvalidate(&Directory{}, 0xcafe000)

	if gotVA != 0xcafe000 {
		t.Fatalf("expected flushTLBEntryFn to be called with 0xcafe000; got %#x", gotVA)
	}
}
