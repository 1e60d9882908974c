package d64

import (
	"fmt"
)

const (
	// NumTracks is the number of tracks on a standard 1541 disk.
	NumTracks = 35
	// NumSectors is the total number of sectors across all tracks.
	NumSectors = 683
	// BytesPerSector is the size of a single sector.
	BytesPerSector = 256
	// DataBytesPerSector is how much file data fits into one sector after the
	// two-byte link to the next sector. This is also the size of a "block" as
	// reported in the directory.
	DataBytesPerSector = BytesPerSector - 2
	// ImageSize is the size of a D64 image without error information.
	ImageSize = NumSectors * BytesPerSector

	// DirectoryTrack is the zero-based track holding the BAM and directory. No
	// file data is ever stored on it.
	DirectoryTrack = 17
	// BAMSectorIndex is the linear index of track 18 sector 0.
	BAMSectorIndex = 357
	// DirectorySectorIndex is the linear index of track 18 sector 1.
	DirectorySectorIndex = 358
)

// zone describes a run of consecutive tracks that all have the same number of
// sectors.
type zone struct {
	firstTrack      uint8
	sectorsPerTrack uint8
	interleave      uint8
	// firstSector is the linear index of sector 0 of `firstTrack`.
	firstSector uint16
}

// zones is ordered from the outermost to the innermost track. Each zone ends
// where the next one begins; the last one ends at NumTracks.
var zones = [...]zone{
	{firstTrack: 0, sectorsPerTrack: 21, interleave: 10, firstSector: 0},
	{firstTrack: 17, sectorsPerTrack: 19, interleave: 10, firstSector: 357},
	{firstTrack: 24, sectorsPerTrack: 18, interleave: 7, firstSector: 490},
	{firstTrack: 30, sectorsPerTrack: 17, interleave: 9, firstSector: 598},
}

func zoneOfTrack(track uint8) zone {
	if track >= NumTracks {
		panic(fmt.Sprintf("invalid track: %d not in range [0, %d)", track, NumTracks))
	}
	for i := len(zones) - 1; i > 0; i-- {
		if track >= zones[i].firstTrack {
			return zones[i]
		}
	}
	return zones[0]
}

func zoneOfIndex(index uint16) zone {
	if index >= NumSectors {
		panic(fmt.Sprintf("invalid sector index: %d not in range [0, %d)", index, NumSectors))
	}
	for i := len(zones) - 1; i > 0; i-- {
		if index >= zones[i].firstSector {
			return zones[i]
		}
	}
	return zones[0]
}

// SectorsOnTrack returns the number of sectors on a zero-based track.
func SectorsOnTrack(track uint8) uint8 {
	return zoneOfTrack(track).sectorsPerTrack
}

// InterleaveOnTrack returns how many sectors to skip between consecutive
// sectors of a file on the given track. The 1541 couldn't process a sector
// fast enough to read the physically adjacent one on the same revolution, so
// DOS spread files out. Each step is relatively prime to the number of sectors
// on the track, so stepping repeatedly visits every sector exactly once.
func InterleaveOnTrack(track uint8) uint8 {
	return zoneOfTrack(track).interleave
}

// TrackSector is a zero-based track and sector pair.
type TrackSector struct {
	Track  uint8
	Sector uint8
}

// InvalidTrackSector is returned wherever there is no sector to give.
var InvalidTrackSector = TrackSector{Track: 0xff, Sector: 0xff}

// IsValid returns true if the track and sector exist on a 35-track disk.
func (ts TrackSector) IsValid() bool {
	return ts.Track < NumTracks && ts.Sector < SectorsOnTrack(ts.Track)
}

// LinearIndex converts a track and sector into the index of the sector in the
// image. It panics if `ts` is invalid.
func (ts TrackSector) LinearIndex() uint16 {
	if !ts.IsValid() {
		panic(fmt.Sprintf("invalid track/sector: %s", ts))
	}
	z := zoneOfTrack(ts.Track)
	return z.firstSector +
		uint16(ts.Track-z.firstTrack)*uint16(z.sectorsPerTrack) +
		uint16(ts.Sector)
}

// String formats the track and sector the way DOS does, with 1-based tracks.
func (ts TrackSector) String() string {
	if ts == InvalidTrackSector {
		return "T--/S--"
	}
	return fmt.Sprintf("T%02d/S%02d", int(ts.Track)+1, ts.Sector)
}

// TrackSectorOf is the inverse of [TrackSector.LinearIndex]. It panics if the
// index is not in [0, NumSectors).
func TrackSectorOf(index uint16) TrackSector {
	z := zoneOfIndex(index)
	offset := index - z.firstSector
	return TrackSector{
		Track:  z.firstTrack + uint8(offset/uint16(z.sectorsPerTrack)),
		Sector: uint8(offset % uint16(z.sectorsPerTrack)),
	}
}
