package vmm

import (
	"testing"

	"github.com/kvota/armpaging/kernel/mem"
)

func TestEntryDirectoryIdentityMapsLowMemory(t *testing.T) {
	for i := uintptr(0); i < entryDirSpanMB; i++ {
		pde := EntryDirectory[i]
		if !pde.IsSection() {
			t.Fatalf("expected dir entry %d to be a section entry", i)
		}
		want := i * uintptr(mem.DirEntrySpan)
		if got := uintptr(pde) &^ 0xFFF; got != want {
			t.Fatalf("expected dir entry %d to map base %#x; got %#x", i, want, got)
		}
	}
}

func TestEntryDirectoryAliasesLowMemoryAtKernbase(t *testing.T) {
	kernbaseDirIdx := mem.PDX(mem.KERNBASE)
	for i := uintptr(0); i < entryDirSpanMB; i++ {
		low := EntryDirectory[i]
		aliased := EntryDirectory[kernbaseDirIdx+i]
		if uint32(low) != uint32(aliased) {
			t.Fatalf("expected KERNBASE alias entry %d to match its identity-mapped counterpart", i)
		}
	}
}

func TestEntryDirectoryMapsGPIO(t *testing.T) {
	pde := EntryDirectory[mem.PDX(gpioBase)]
	if !pde.IsSection() {
		t.Fatal("expected the GPIO directory entry to be a section entry")
	}
	if got := uintptr(pde) &^ 0xFFF; got != gpioBase {
		t.Fatalf("expected GPIO entry to map base %#x; got %#x", gpioBase, got)
	}
}
