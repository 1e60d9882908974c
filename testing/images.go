package testing

import (
	"bytes"
	"io"
	"testing"

	"github.com/ernst-schwaiger/D64Writer/utilities/compression"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// D64 layout constants, duplicated here so that the helpers in this package
// check images independently of the code that produced them.
const (
	BytesPerSector   = 256
	TotalSectors     = 683
	ImageSize        = BytesPerSector * TotalSectors
	bamSectorIndex   = 357
	dirSectorIndex   = 358
	direntSize       = 32
	direntsPerSector = 8
)

// LoadDiskImage takes a compressed disk image and returns a stream to access the
// uncompressed data.
//
//   - Writes to the stream do not affect `compressedImageBytes`.
//   - While the stream can be written to, its size is fixed to [ImageSize].
//     Attempting to write past the end of this buffer will trigger an error.
func LoadDiskImage(t *testing.T, compressedImageBytes []byte) io.ReadWriteSeeker {
	compressedBuf := bytes.NewBuffer(compressedImageBytes)
	require.Greater(t, len(compressedImageBytes), 0, "compressed image is empty")

	imageBytes, err := compression.DecompressImageToBytes(compressedBuf)
	require.NoError(t, err)

	require.Equal(t, ImageSize, len(imageBytes), "uncompressed image is wrong size")
	return bytesextra.NewReadWriteSeeker(imageBytes)
}

// NewImageStream returns a fixed-size in-memory stream holding a copy of
// `image`.
func NewImageStream(t *testing.T, image []byte) io.ReadWriteSeeker {
	require.Equal(t, ImageSize, len(image), "image is wrong size")
	imageCopy := make([]byte, len(image))
	copy(imageCopy, image)
	return bytesextra.NewReadWriteSeeker(imageCopy)
}

// ReadAllFromStream rewinds `stream` and returns everything in it.
func ReadAllFromStream(t *testing.T, stream io.ReadSeeker) []byte {
	_, err := stream.Seek(0, io.SeekStart)
	require.NoError(t, err, "failed to rewind stream")

	data, err := io.ReadAll(stream)
	require.NoError(t, err, "failed to read stream")
	return data
}
