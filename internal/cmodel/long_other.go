//go:build !windows

package cmodel

import "unsafe"

// Long is the width of C long: LP64 and ILP32 targets make it pointer sized.
const Long = int(unsafe.Sizeof(uintptr(0)))
