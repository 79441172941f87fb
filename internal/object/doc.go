// Package object reads and writes HDF5 object headers, the message lists
// that describe groups, datasets and named datatypes.
//
// [Read] accepts version 1 headers, with 8-byte aligned messages, and
// version 2 headers, which start with "OHDR" and checksum every chunk.
// Continuation chunks are followed for both. Only version 2 is written, by
// [Encode] and [Write]; [EncodeInPlace] rewrites a header without moving it.
//
// A message that fails to decode is kept as a [message.Unknown], so one
// unknown encoding neither hides the rest of the object nor is lost when the
// header is rewritten. Structural damage is reported as
// [ErrInvalidHeader] or [ErrChecksumMismatch].
package object
