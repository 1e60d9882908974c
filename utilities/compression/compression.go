package compression

import (
	"bytes"
	"compress/gzip"
	"io"
)

// CompressImage compresses a disk image using RLE8 and gzip.
//
// The returned int64 gives the number of RLE8-encoded bytes passed to gzip, not
// the number of bytes written to `output`.
func CompressImage(input io.Reader, output io.Writer) (int64, error) {
	// Images are small enough that the highest level costs nothing noticeable.
	gzWriter, err := gzip.NewWriterLevel(output, gzip.BestCompression)
	if err != nil {
		return 0, err
	}

	n, err := CompressRLE8(input, gzWriter)
	if err != nil {
		gzWriter.Close()
		return n, err
	}
	return n, gzWriter.Close()
}

// DecompressImage takes a gzipped, RLE8-encoded disk image and decompresses it
// to the original raw bytes.
//
// The returned int64 gives the number of bytes written to the output (i.e. the
// decompressed size of the image). If an error occurred, the value is undefined
// and should not be used.
func DecompressImage(input io.Reader, output io.Writer) (int64, error) {
	gzReader, err := gzip.NewReader(input)
	if err != nil {
		return 0, err
	}
	defer gzReader.Close()
	return DecompressRLE8(gzReader, output)
}

// DecompressImageToBytes is like [DecompressImage] but returns the image in a
// new byte slice.
func DecompressImageToBytes(input io.Reader) ([]byte, error) {
	var buffer bytes.Buffer
	_, err := DecompressImage(input, &buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// CompressImageToBytes is like [CompressImage] but returns the compressed data
// in a new byte slice.
func CompressImageToBytes(input io.Reader) ([]byte, error) {
	var buffer bytes.Buffer
	_, err := CompressImage(input, &buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
