package kernel

import (
	"testing"

	"github.com/kvota/armpaging/kernel/cpu"
	"github.com/kvota/armpaging/kernel/hal"
)

type bufConsole struct {
	buf []byte
}

func (c *bufConsole) WriteByte(b byte) { c.buf = append(c.buf, b) }
func (c *bufConsole) Write(p []byte)   { c.buf = append(c.buf, p...) }

func TestPanic(t *testing.T) {
	defer func() {
		cpuHaltFn = cpu.Halt
	}()

	var cpuHaltCalled bool
	cpuHaltFn = func() {
		cpuHaltCalled = true
	}

	origConsole := hal.ActiveConsole
	defer func() { hal.ActiveConsole = origConsole }()

	t.Run("with error", func(t *testing.T) {
		cpuHaltCalled = false
		fb := &bufConsole{}
		hal.ActiveConsole = fb
		err := &Error{Module: "test", Message: "panic test"}

		Panic(err)

		exp := "\n-----------------------------------\n[test] unrecoverable error: panic test\n*** kernel panic: system halted ***\n-----------------------------------\n"

		if got := string(fb.buf); got != exp {
			t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
		}

		if !cpuHaltCalled {
			t.Fatal("expected cpu.Halt() to be called by Panic")
		}
	})

	t.Run("without error", func(t *testing.T) {
		cpuHaltCalled = false
		fb := &bufConsole{}
		hal.ActiveConsole = fb

		Panic(nil)

		exp := "\n-----------------------------------\n*** kernel panic: system halted ***\n-----------------------------------\n"

		if got := string(fb.buf); got != exp {
			t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
		}

		if !cpuHaltCalled {
			t.Fatal("expected cpu.Halt() to be called by Panic")
		}
	})
}
