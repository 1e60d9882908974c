package d64

import (
	"bytes"
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

const (
	// DirentSize is the size of one directory entry.
	DirentSize = 32
	// DirentsPerSector is how many directory entries fit in one sector. Only one
	// directory sector is supported, so this is also the maximum number of files
	// on an image.
	DirentsPerSector = BytesPerSector / DirentSize

	// FileTypeFree marks an unused directory slot.
	FileTypeFree = 0x00
	// FileTypePRG is a properly closed program file.
	FileTypePRG = 0x82

	direntTypeOffset = 2
	// The link at the start of slot 0 would point to the next directory sector.
	// There is never one, so it always holds this marker.
	noNextDirectoryTrack  = 0x00
	noNextDirectorySector = 0xff
)

// rawDirent is a directory entry as it's stored on disk. For all slots except
// the first one, the link fields are unused and stay zero.
type rawDirent struct {
	NextTrack   uint8
	NextSector  uint8
	FileType    uint8
	StartTrack  uint8
	StartSector uint8
	Name        RawName
	// Used for REL files and by GEOS. Always zero here.
	Unused [9]byte
	Blocks uint16
}

// DirectoryEntry is a decoded, in-use directory slot.
type DirectoryEntry struct {
	Name     string
	FileType uint8
	// Start is the first sector of the file's chain.
	Start  TrackSector
	Blocks uint16
	// Slot is the index of the entry in the directory sector, 0-7.
	Slot int
}

func direntSlice(sector []byte, slot int) []byte {
	return sector[slot*DirentSize : (slot+1)*DirentSize]
}

// formatDirectory sets up the empty directory sector and claims it.
func formatDirectory(image *Image, bam BAM) {
	sector := image.Sector(DirectorySectorIndex)
	for i := range sector {
		sector[i] = 0
	}
	sector[0] = noNextDirectoryTrack
	sector[1] = noNextDirectorySector
	bam.ClaimSector(DirectorySectorIndex)
}

// findFreeSlot returns the index of the first directory slot whose type is
// [FileTypeFree], or -1 if the directory is full.
func findFreeSlot(image *Image) int {
	sector := image.view(DirectorySectorIndex)
	for slot := 0; slot < DirentsPerSector; slot++ {
		if direntSlice(sector, slot)[direntTypeOffset] == FileTypeFree {
			return slot
		}
	}
	return -1
}

// writeDirent fills in a directory slot for a PRG file. The link bytes of the
// slot are left as they are.
func writeDirent(image *Image, slot int, name string, start TrackSector, size int) {
	dirent := direntSlice(image.Sector(DirectorySectorIndex), slot)
	raw := rawDirent{
		NextTrack:   dirent[0],
		NextSector:  dirent[1],
		FileType:    FileTypePRG,
		StartTrack:  start.Track + 1,
		StartSector: start.Sector,
		Name:        NameToBytes(name),
		Blocks:      blocksForSize(size),
	}
	binary.Write(bytewriter.New(dirent), binary.LittleEndian, &raw)
}

// blocksForSize returns the number of sectors needed to store `size` bytes.
func blocksForSize(size int) uint16 {
	return uint16((size + DataBytesPerSector - 1) / DataBytesPerSector)
}

// readDirents decodes all in-use slots of the directory sector, in slot order.
// The start track of each entry is converted to zero-based, so a corrupted
// entry pointing at track 0 comes back as [InvalidTrackSector].
func readDirents(image *Image) []DirectoryEntry {
	sector := image.view(DirectorySectorIndex)
	entries := make([]DirectoryEntry, 0, DirentsPerSector)

	for slot := 0; slot < DirentsPerSector; slot++ {
		dirent := direntSlice(sector, slot)
		if dirent[direntTypeOffset] == FileTypeFree {
			continue
		}

		var raw rawDirent
		// Can't fail, the slice is exactly the size of the struct.
		_ = binary.Read(bytes.NewReader(dirent), binary.LittleEndian, &raw)

		start := InvalidTrackSector
		if raw.StartTrack != 0 {
			start = TrackSector{Track: raw.StartTrack - 1, Sector: raw.StartSector}
		}
		entries = append(
			entries,
			DirectoryEntry{
				Name:     BytesToName(raw.Name[:]),
				FileType: raw.FileType,
				Start:    start,
				Blocks:   raw.Blocks,
				Slot:     slot,
			},
		)
	}
	return entries
}

// findDirent returns the first in-use entry with the given normalized name.
func findDirent(image *Image, normalizedName string) (DirectoryEntry, bool) {
	for _, entry := range readDirents(image) {
		if entry.Name == normalizedName {
			return entry, true
		}
	}
	return DirectoryEntry{}, false
}
