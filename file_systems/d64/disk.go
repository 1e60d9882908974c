package d64

import (
	"fmt"
	"io"

	d64writer "github.com/ernst-schwaiger/D64Writer"
	"github.com/ernst-schwaiger/D64Writer/errors"
)

// DiskIDLength is the number of characters in a disk ID.
const DiskIDLength = 2

// Options controls how a new image is formatted and how batches of files are
// written to it.
type Options struct {
	// DiskName is shown at the top of a directory listing. It's normalized the
	// same way file names are.
	DiskName string
	// DiskID is the two-character ID printed next to the disk name. It must
	// already be normalized, i.e. only contain digits, uppercase letters,
	// underscores, and periods.
	DiskID string
	// ContinueOnError makes [Build] skip files that can't be written instead of
	// stopping at the first one.
	ContinueOnError bool
}

// DefaultOptions returns the options used when the caller has no preference.
func DefaultOptions() Options {
	return Options{
		DiskName: "DISK",
		DiskID:   "VT",
	}
}

func (opts Options) validate() error {
	if NormalizeName(opts.DiskName) == "" {
		return errors.ErrInvalidArgument.WithMessage("disk name can't be empty")
	}
	if len(opts.DiskID) != DiskIDLength || !isNormalizedName(opts.DiskID) {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"disk ID must be %d characters from [0-9A-Z_.], got %q",
				DiskIDLength,
				opts.DiskID,
			),
		)
	}
	return nil
}

// Disk is an image that program files are written to one after another. Each
// file either gets written completely, or the image is left exactly as it was
// before the attempt.
//
// A Disk is not safe for concurrent use.
type Disk struct {
	image *Image
	bam   BAM
}

var (
	_ d64writer.ImageWriter = (*Disk)(nil)
	_ d64writer.ImageReader = (*Disk)(nil)
)

// NewDisk creates a freshly formatted, empty image.
func NewDisk(opts Options) (*Disk, error) {
	err := opts.validate()
	if err != nil {
		return nil, err
	}

	image := NewImage()
	disk := &Disk{
		image: image,
		bam:   newBAM(image),
	}

	var diskID [DiskIDLength]byte
	copy(diskID[:], opts.DiskID)
	disk.bam.format(NameToBytes(opts.DiskName), diskID)
	formatDirectory(image, disk.bam)
	return disk, nil
}

// LoadDisk reads an existing image so that more files can be added to it. The
// image must have been formatted as a 1541 disk and pass [Disk.Check].
func LoadDisk(stream io.Reader) (*Disk, error) {
	image, err := ReadImage(stream)
	if err != nil {
		return nil, err
	}

	header := image.view(BAMSectorIndex)
	directory := TrackSectorOf(DirectorySectorIndex)
	if header[0] != directory.Track+1 || header[1] != directory.Sector || header[2] != FormatTag {
		return nil, errors.ErrWrongMediumType.WithMessage(
			fmt.Sprintf(
				"BAM header is %02x %02x %02x, expected %02x %02x %02x",
				header[0],
				header[1],
				header[2],
				directory.Track+1,
				directory.Sector,
				FormatTag,
			),
		)
	}

	disk := &Disk{
		image: image,
		bam:   newBAM(image),
	}
	err = disk.Check()
	if err != nil {
		return nil, err
	}
	return disk, nil
}

// BAM gives access to the image's block availability map.
func (disk *Disk) BAM() BAM {
	return disk.bam
}

// Image returns the underlying image buffer.
func (disk *Disk) Image() *Image {
	return disk.image
}

// WriteFile stores `data` as a PRG file named `name`. The name is normalized
// with [NormalizeName] first. Names aren't required to be unique, and an empty
// name is stored as an all-padding name field. A name lookup finds the first
// matching slot, the same way the drive does.
//
// Everything that could make the write fail is checked before the image is
// touched, in this order:
//
//   - [errors.ErrEmptyFile] if `data` is empty
//   - [errors.ErrDirectoryFull] if all directory slots are in use
//   - [errors.ErrNoSpaceOnDevice] if there aren't enough free sectors
func (disk *Disk) WriteFile(name string, data []byte) error {
	if len(data) == 0 {
		return errors.ErrEmptyFile.WithMessage(fmt.Sprintf("can't write %q", name))
	}

	normalizedName := NormalizeName(name)
	slot := findFreeSlot(disk.image)
	if slot < 0 {
		return errors.ErrDirectoryFull.WithMessage(
			fmt.Sprintf("can't add %q, all %d slots are in use", normalizedName, DirentsPerSector))
	}

	available := disk.bam.TotalFreeSectors() * DataBytesPerSector
	if uint(len(data)) > available {
		return errors.ErrNoSpaceOnDevice.WithMessage(
			fmt.Sprintf(
				"%q needs %d bytes, only %d are free",
				normalizedName,
				len(data),
				available,
			),
		)
	}

	start := writeChain(disk.bam, disk.image, disk.bam.FirstFree(), data)
	writeDirent(disk.image, slot, normalizedName, start, len(data))
	return nil
}

// ReadFile returns the contents of a file. The name is normalized before it's
// looked up, and if several files share it the one in the lowest slot wins.
func (disk *Disk) ReadFile(name string) ([]byte, error) {
	normalizedName := NormalizeName(name)
	entry, found := findDirent(disk.image, normalizedName)
	if !found {
		return nil, errors.ErrNotFound.WithMessage(normalizedName)
	}
	return readChain(disk.image, entry.Start)
}

// Files returns the directory entries of all files on the disk, in the order
// they appear in the directory.
func (disk *Disk) Files() []DirectoryEntry {
	return readDirents(disk.image)
}

// Name returns the disk name stored in the BAM.
func (disk *Disk) Name() string {
	return disk.bam.DiskName()
}

// ID returns the disk ID stored in the BAM.
func (disk *Disk) ID() string {
	return disk.bam.DiskID()
}

// Stat returns a summary of the disk's space and directory usage.
func (disk *Disk) Stat() d64writer.FSStat {
	free := uint64(disk.bam.TotalFreeSectors())
	numFiles := uint64(len(readDirents(disk.image)))
	return d64writer.FSStat{
		BlockSize:       BytesPerSector,
		TotalBlocks:     NumSectors,
		BlocksFree:      free,
		BlocksAvailable: free,
		Files:           numFiles,
		FilesFree:       DirentsPerSector - numFiles,
		MaxNameLength:   MaxNameLength,
	}
}

// WriteTo writes the entire image to `w`.
func (disk *Disk) WriteTo(w io.Writer) (int64, error) {
	return disk.image.WriteTo(w)
}

// Bytes returns a copy of the entire image.
func (disk *Disk) Bytes() []byte {
	return disk.image.Bytes()
}

// FlushTo writes the sectors changed since the disk was created, loaded, or
// last flushed to `stream`. See [Image.FlushTo].
func (disk *Disk) FlushTo(stream io.WriteSeeker) error {
	return disk.image.FlushTo(stream)
}
