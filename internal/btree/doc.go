// Package btree reads the B-tree structures that index HDF5 group members.
//
// Two B-tree versions appear in group storage:
//
//   - V1 B-trees (signature "TREE") index the symbol table of groups in the
//     version 0 and 1 file format. Leaves point to symbol table nodes (SNOD) whose
//     entries carry member names as offsets into a [heap.LocalHeap].
//     [ReadGroupEntries] resolves every entry; [CountGroupEntries] only
//     sums the per-node symbol counts. Trees deeper than 64 levels fail
//     with [ErrTooDeep].
//
//   - V2 B-trees (signature "BTHD") index dense link storage, where links
//     live in a fractal heap. The header alone records the total number of
//     records, which is the group's link count. See [ReadV2Header].
package btree
