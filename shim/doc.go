// Package shim exposes a few hdf5 operations through scalar-only
// signatures, for callers that cannot pass structs or Go errors across a
// foreign function boundary.
//
// Identifiers are plain int64 values and failures are reported as Fail
// (-1). Nothing here logs, retries or keeps state: every function maps
// directly onto one library call.
package shim
