// Package compression shrinks disk images for storage as test fixtures and
// archives.
//
// A D64 image is always 174,848 bytes, no matter how little is on it. Sectors
// that were never written are all zeros, and so are the ends of directory and
// BAM sectors, so most of a typical image is long runs of null bytes. Images are
// first run-length encoded, then the result is gzipped.
//
// The run-length encoding is RLE8, the one used by the BMP file format. A byte B
// that occurs N >= 2 times in a row is written twice, followed by a byte giving
// the number of additional repetitions, N - 2:
//
//	WXXXXXXXXXXXXXXXYZZ
//	W XX 13 Y ZZ 0
//
// One group covers at most 257 bytes; longer runs are split into several
// groups, so 300 "X" becomes `XX 255 XX 41`. A byte occurring exactly twice
// takes three bytes to store, which is the price for not needing an escape byte.
//
// An empty formatted image compresses from 174,848 bytes to a few hundred with
// RLE8 alone, and gzip takes that down further.
package compression
