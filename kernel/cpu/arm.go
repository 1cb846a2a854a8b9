// Package cpu exposes the handful of privileged ARM instructions the
// memory core needs: halting the core, flushing single TLB entries,
// pointing the MMU at a translation table and granting client access to
// a domain. Each function is declared without a body; the actual
// instructions live in arm_stub.s and talk to coprocessor 15 directly.
package cpu

// Halt stops instruction execution on the current core.
func Halt()

// FlushTLBEntry invalidates the TLB entry that translates virtAddr.
func FlushTLBEntry(virtAddr uintptr)

// WriteTTBR0 points translation table base register 0 at the physical
// address of a translation table, making it the table the MMU walks for
// every subsequent translation.
func WriteTTBR0(tableAddr uintptr)

// SetDomainAccess sets the two access-control bits for domain d in the
// domain access control register, leaving every other domain's bits
// untouched.
func SetDomainAccess(d uint32, access DomainAccess)

// DomainAccess is one of the four 2-bit domain access control register
// encodings (§6 of the access-control register; see ARM ARM B4.9.4).
type DomainAccess uint32

const (
	// DomainNoAccess traps any access to memory tagged with the domain.
	DomainNoAccess DomainAccess = 0
	// DomainClient checks every access against the page/section
	// permission bits.
	DomainClient DomainAccess = 1
	// DomainManager bypasses permission checks for the domain entirely.
	DomainManager DomainAccess = 3
)
