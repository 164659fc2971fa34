package runtime

import (
	_ "unsafe" // for go:linkname
)

// Procyield busy-spins for the given number of cycles without involving the
// scheduler. On x86 it lowers to the PAUSE instruction, which keeps the core
// warm while backing off a contended atomic. Callers should fall back to
// runtime.Gosched after a bounded number of iterations.
//
//go:linkname Procyield runtime.procyield
func Procyield(cycles uint32)
