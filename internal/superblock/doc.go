// Package superblock reads and writes the HDF5 superblock, the structure
// that identifies a file and locates its root group.
//
// [Read] looks for the signature at offsets 0, 512, 1024 and 2048 and
// decodes versions 0 through 3. Versions 0 and 1 describe the root group
// with a symbol table entry whose scratch pad may cache the root B-tree and
// local heap ([Superblock.HasRootScratchPad]). Versions 2 and 3 point at the
// root object header directly and carry a lookup3 checksum.
//
// New files get a version 3 superblock ([NewSuperblock], [Superblock.Write]).
// Its field widths come from the binary.Writer it is written with.
package superblock
