// Package d64writer lays out program files into Commodore 1541 disk images.
//
// The format-specific work lives in [github.com/ernst-schwaiger/D64Writer/file_systems/d64];
// this package only holds the types shared between it, the command-line tool,
// and any other caller that feeds files in or takes images out.
package d64writer

import (
	"io"
)

// FileEntry is one file to store on an image: the name it should appear under
// in the directory, and its raw contents.
type FileEntry struct {
	Name string
	Data []byte
}

// FSStat is a summary of the space and directory usage of an image. The fields
// mirror the ones from statvfs(2) that make sense for a flat, fixed-size
// directory.
type FSStat struct {
	// BlockSize is the size of one sector on the image, in bytes.
	BlockSize uint64
	// TotalBlocks is the total number of sectors on the image, including the
	// reserved directory track.
	TotalBlocks uint64
	// BlocksFree is the number of unallocated sectors outside of the directory
	// track.
	BlocksFree uint64
	// BlocksAvailable is the number of sectors a new file can use. For a 1541
	// image this is always equal to BlocksFree.
	BlocksAvailable uint64
	// Files is the number of directory slots in use.
	Files uint64
	// FilesFree is the number of unused directory slots.
	FilesFree uint64
	// MaxNameLength is the longest name a file can have once normalized.
	MaxNameLength uint64
}

// ImageWriter is implemented by images that files can be appended to.
type ImageWriter interface {
	// WriteFile stores a file on the image. It either stores all of `data` or
	// leaves the image untouched.
	WriteFile(name string, data []byte) error
	// WriteTo serializes the whole image.
	io.WriterTo
}

// ImageReader is implemented by images that files can be read back from.
type ImageReader interface {
	ReadFile(name string) ([]byte, error)
	Stat() FSStat
}
