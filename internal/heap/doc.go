// Package heap implements the HDF5 local heap.
//
// The [LocalHeap] (signature "HEAP") stores the member names of groups that
// use the old-style symbol table format. Symbol table entries reference names
// by byte offset into the heap's data segment.
//
// Usage:
//
//	lh, err := heap.ReadLocalHeap(reader, heapAddress)
//	name, err := lh.Name(nameOffset)
//
// Dense link storage of newer files lives in fractal heaps, which are not
// decoded here; member counts for such groups come from the v2 B-tree header.
package heap
