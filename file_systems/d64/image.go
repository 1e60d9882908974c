package d64

import (
	"fmt"
	"io"

	"github.com/boljen/go-bitmap"
	"github.com/ernst-schwaiger/D64Writer/errors"
)

// SectorData is a copy of the contents of one sector.
type SectorData [BytesPerSector]byte

// Image is the raw contents of a disk, one contiguous buffer of NumSectors
// sectors. It keeps track of which sectors were handed out for modification so
// that changes can be written back to an existing image without rewriting all
// of it.
//
// Sector indexes always come from the geometry functions, so an out-of-range
// index is a bug and causes a panic rather than an error.
type Image struct {
	data  []byte
	dirty bitmap.Bitmap
}

// NewImage creates a zero-filled image. Every sector of a new image is
// considered dirty, so the first flush writes out the whole thing.
func NewImage() *Image {
	img := &Image{
		data:  make([]byte, ImageSize),
		dirty: bitmap.New(NumSectors),
	}
	img.markAllDirty()
	return img
}

// ReadImage reads a complete image from a stream. The stream must contain
// exactly [ImageSize] bytes; images with appended error information or extra
// tracks aren't supported. All sectors of the returned image are clean.
func ReadImage(stream io.Reader) (*Image, error) {
	img := &Image{
		data:  make([]byte, ImageSize),
		dirty: bitmap.New(NumSectors),
	}

	nRead, err := io.ReadFull(stream, img.data)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, errors.ErrWrongMediumType.WithMessage(
				fmt.Sprintf("image is too small: expected %d bytes, got %d", ImageSize, nRead))
		}
		return nil, errors.ErrIOFailed.Wrap(err)
	}

	// Make sure there's nothing after the last sector.
	n, err := io.CopyN(io.Discard, stream, 1)
	if n > 0 {
		return nil, errors.ErrWrongMediumType.WithMessage(
			fmt.Sprintf("image is larger than %d bytes", ImageSize))
	} else if err != nil && err != io.EOF {
		return nil, errors.ErrIOFailed.Wrap(err)
	}
	return img, nil
}

func checkSectorIndex(index uint16) {
	if index >= NumSectors {
		panic(fmt.Sprintf("invalid sector index: %d not in range [0, %d)", index, NumSectors))
	}
}

// view returns the sector's bytes without marking it dirty. Callers must not
// modify the returned slice.
func (img *Image) view(index uint16) []byte {
	checkSectorIndex(index)
	start := int(index) * BytesPerSector
	return img.data[start : start+BytesPerSector]
}

// Sector returns a modifiable slice pointing to the image's storage for the
// sector at the given linear index, and marks the sector as dirty.
func (img *Image) Sector(index uint16) []byte {
	sector := img.view(index)
	img.dirty.Set(int(index), true)
	return sector
}

// ReadSector returns a copy of the sector at the given linear index.
func (img *Image) ReadSector(index uint16) SectorData {
	var data SectorData
	copy(data[:], img.view(index))
	return data
}

// Bytes returns a copy of the entire image.
func (img *Image) Bytes() []byte {
	out := make([]byte, len(img.data))
	copy(out, img.data)
	return out
}

// WriteTo writes the entire image to `w`. It implements [io.WriterTo].
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(img.data)
	return int64(n), err
}

// IsDirty returns true if the sector was modified since the image was created,
// read, or last flushed.
func (img *Image) IsDirty(index uint16) bool {
	checkSectorIndex(index)
	return img.dirty.Get(int(index))
}

// DirtySectors returns the linear indexes of all dirty sectors, in ascending
// order.
func (img *Image) DirtySectors() []uint16 {
	var indexes []uint16
	for i := 0; i < NumSectors; i++ {
		if img.dirty.Get(i) {
			indexes = append(indexes, uint16(i))
		}
	}
	return indexes
}

func (img *Image) markAllDirty() {
	for i := 0; i < NumSectors; i++ {
		img.dirty.Set(i, true)
	}
}

// FlushTo writes all dirty sectors (and only dirty sectors) to `stream`, which
// must hold a copy of this image as it was when last read or flushed. Sectors
// are marked clean as soon as they're written, so if an error occurs the
// remaining ones are still dirty and a later flush picks up where this one
// stopped.
func (img *Image) FlushTo(stream io.WriteSeeker) error {
	for _, index := range img.DirtySectors() {
		offset := int64(index) * BytesPerSector
		_, err := stream.Seek(offset, io.SeekStart)
		if err != nil {
			return errors.ErrIOFailed.Wrap(err)
		}

		_, err = stream.Write(img.view(index))
		if err != nil {
			return errors.ErrIOFailed.WithMessage(
				fmt.Sprintf("failed to flush sector %d to storage: %s", index, err.Error()))
		}
		img.dirty.Set(int(index), false)
	}
	return nil
}
