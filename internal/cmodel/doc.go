// Package cmodel records the widths of the C scalar types on the build
// target.
//
// The values are used to pick native integer and floating-point types by
// size, so they must agree with what a C compiler for the same target
// reports. cmd/libh5flat checks them against cgo's sizeof values at load.
package cmodel
