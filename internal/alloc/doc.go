// Package alloc decides where new metadata goes in a file opened for
// writing.
//
// Groups rewrite their object header as links are added. When a header
// outgrows its space it moves, and the old span is freed for the next
// header that fits. Freed space at the end of file shrinks the file.
package alloc
