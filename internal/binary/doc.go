// Package binary reads and writes the fixed and variable width integer
// fields that make up HDF5 metadata.
//
// Addresses ("offsets") and lengths are stored with a width chosen per file
// in the superblock, so both the Reader and the Writer carry a Config. All
// positions are absolute file offsets and every read or write goes through
// io.ReaderAt or io.WriterAt, which lets many cursors share one file.
package binary
