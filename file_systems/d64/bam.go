package d64

import (
	"encoding/binary"
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/noxer/bytewriter"
)

const (
	// FormatTag identifies the disk as formatted by a 1541 ("A").
	FormatTag = 0x41

	bamTrackEntriesOffset = 0x04
	bamTrackEntrySize     = 4
	bamLabelOffset        = 0x90
	// Only the lower 21 bits are ever used, since no track has more than 21
	// sectors.
	bamBitmapBits = 24
)

// DOSType is the two-character DOS version shown next to the disk ID in a
// directory listing.
var DOSType = [2]byte{'*', '*'}

// rawBAMHeader is the first four bytes of the BAM sector.
type rawBAMHeader struct {
	// DirectoryTrack and DirectorySector point to the first directory sector.
	// The track is 1-based.
	DirectoryTrack  uint8
	DirectorySector uint8
	FormatTag       uint8
	Reserved        uint8
}

// rawBAMLabel is the disk name, ID, and DOS type at offset 0x90 of the BAM
// sector. Everything between the fields is shifted spaces.
type rawBAMLabel struct {
	DiskName RawName
	Filler1  [2]byte
	DiskID   [2]byte
	Filler2  uint8
	DOSType  [2]byte
	Filler3  [4]byte
}

// BAM is the Block Availability Map, which lives in the first sector of the
// directory track. For every track it stores the number of free sectors on the
// track followed by a 24-bit little-endian bitmap with one bit per sector; a
// set bit means the sector is free.
//
// The BAM has no state of its own, it reads and writes the image directly. The
// free count and the bitmap of a track are only ever changed together.
type BAM struct {
	image *Image
}

func newBAM(image *Image) BAM {
	return BAM{image: image}
}

// format initializes the BAM of a blank image: every sector on every track is
// marked free, and then the BAM's own sector is claimed.
func (bam BAM) format(diskName RawName, diskID [2]byte) {
	sector := bam.image.Sector(BAMSectorIndex)
	directory := TrackSectorOf(DirectorySectorIndex)

	writer := bytewriter.New(sector)
	binary.Write(
		writer,
		binary.LittleEndian,
		rawBAMHeader{
			DirectoryTrack:  directory.Track + 1,
			DirectorySector: directory.Sector,
			FormatTag:       FormatTag,
		},
	)

	for track := uint8(0); track < NumTracks; track++ {
		entry := bam.trackEntry(sector, track)
		numSectors := SectorsOnTrack(track)
		entry[0] = numSectors

		freeMap := bitmap.Bitmap(entry[1:])
		for i := 0; i < bamBitmapBits; i++ {
			freeMap.Set(i, i < int(numSectors))
		}
	}

	label := rawBAMLabel{
		DiskName: diskName,
		Filler1:  [2]byte{NamePadding, NamePadding},
		DiskID:   diskID,
		Filler2:  NamePadding,
		DOSType:  DOSType,
		Filler3:  [4]byte{NamePadding, NamePadding, NamePadding, NamePadding},
	}
	binary.Write(bytewriter.New(sector[bamLabelOffset:]), binary.LittleEndian, &label)

	bam.ClaimSector(BAMSectorIndex)
}

// trackEntry returns the four bytes of the BAM entry for a track.
func (bam BAM) trackEntry(sector []byte, track uint8) []byte {
	if track >= NumTracks {
		panic(fmt.Sprintf("invalid track: %d not in range [0, %d)", track, NumTracks))
	}
	start := bamTrackEntriesOffset + int(track)*bamTrackEntrySize
	return sector[start : start+bamTrackEntrySize]
}

// freeMap returns a read-only view of the free-sector bitmap of a track.
func (bam BAM) freeMap(track uint8) bitmap.Bitmap {
	return bitmap.Bitmap(bam.trackEntry(bam.image.view(BAMSectorIndex), track)[1:])
}

// IsSectorAvailable returns true if the BAM shows the sector as free. It panics
// if `ts` is not a valid track and sector.
func (bam BAM) IsSectorAvailable(ts TrackSector) bool {
	if !ts.IsValid() {
		panic(fmt.Sprintf("invalid track/sector: %s", ts))
	}
	return bam.freeMap(ts.Track).Get(int(ts.Sector))
}

// ClaimSector marks a sector as in use. Claiming a sector that's already in use
// means the caller lost track of the disk's state, so this panics instead of
// returning an error.
func (bam BAM) ClaimSector(index uint16) {
	ts := TrackSectorOf(index)
	if !bam.IsSectorAvailable(ts) {
		panic(fmt.Sprintf("sector %d (%s) claimed twice", index, ts))
	}

	entry := bam.trackEntry(bam.image.Sector(BAMSectorIndex), ts.Track)
	if entry[0] == 0 {
		panic(fmt.Sprintf(
			"BAM free count for track %d is 0 but sector %d is marked free",
			int(ts.Track)+1,
			ts.Sector,
		))
	}
	bitmap.Bitmap(entry[1:]).Set(int(ts.Sector), false)
	entry[0]--
}

// FreeSectorsOnTrack returns the free count stored in the BAM for a track.
func (bam BAM) FreeSectorsOnTrack(track uint8) uint8 {
	return bam.trackEntry(bam.image.view(BAMSectorIndex), track)[0]
}

// TotalFreeSectors returns the number of sectors available for file data. The
// directory track is never used for files, so its sectors are not counted even
// if some are free.
func (bam BAM) TotalFreeSectors() uint {
	total := uint(0)
	for track := uint8(0); track < NumTracks; track++ {
		if track != DirectoryTrack {
			total += uint(bam.FreeSectorsOnTrack(track))
		}
	}
	return total
}

// countFreeBits counts the bits set in a track's bitmap, including any past the
// end of the track.
func (bam BAM) countFreeBits(track uint8) uint8 {
	freeMap := bam.freeMap(track)
	count := uint8(0)
	for i := 0; i < bamBitmapBits; i++ {
		if freeMap.Get(i) {
			count++
		}
	}
	return count
}

// verify checks that each track's free count matches its bitmap and that no
// bits are set for sectors that don't exist. It returns one error per problem.
func (bam BAM) verify() []error {
	var problems []error
	for track := uint8(0); track < NumTracks; track++ {
		freeCount := bam.FreeSectorsOnTrack(track)
		bitCount := bam.countFreeBits(track)
		if freeCount != bitCount {
			problems = append(
				problems,
				fmt.Errorf(
					"track %d: free count is %d but %d sectors are marked free",
					int(track)+1,
					freeCount,
					bitCount,
				),
			)
		}

		freeMap := bam.freeMap(track)
		for i := int(SectorsOnTrack(track)); i < bamBitmapBits; i++ {
			if freeMap.Get(i) {
				problems = append(
					problems,
					fmt.Errorf(
						"track %d: nonexistent sector %d is marked free",
						int(track)+1,
						i,
					),
				)
			}
		}
	}
	return problems
}

// DiskName returns the name of the disk as stored in the BAM.
func (bam BAM) DiskName() string {
	sector := bam.image.view(BAMSectorIndex)
	return BytesToName(sector[bamLabelOffset : bamLabelOffset+MaxNameLength])
}

// DiskID returns the two-character disk ID.
func (bam BAM) DiskID() string {
	sector := bam.image.view(BAMSectorIndex)
	offset := bamLabelOffset + MaxNameLength + 2
	return string(sector[offset : offset+2])
}
