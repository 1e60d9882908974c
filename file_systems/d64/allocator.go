package d64

// FirstFree returns the first sector a new file should start in: track 0
// sector 0 if it's free, otherwise whatever [BAM.NextFree] picks after it.
// Returns [InvalidTrackSector] if the disk is full.
func (bam BAM) FirstFree() TrackSector {
	first := TrackSector{Track: 0, Sector: 0}
	if bam.IsSectorAvailable(first) {
		return first
	}
	return bam.NextFree(first)
}

// NextFree finds the free sector that should follow `prev` in a file's chain.
//
// The search starts on the track of `prev` and moves inward, skipping the
// directory track. On each track sectors are tried in interleave order: on the
// track of `prev` the walk starts at `prev`'s sector, on every other track at
// sector 0. The first free sector found is returned without being claimed. If
// there are no free sectors on `prev`'s track or any track after it, this
// returns [InvalidTrackSector]. Tracks before `prev`'s are never searched, even
// if they have free space.
func (bam BAM) NextFree(prev TrackSector) TrackSector {
	if !prev.IsValid() {
		return InvalidTrackSector
	}

	startSector := prev.Sector
	for track := prev.Track; track < NumTracks; track++ {
		if track == DirectoryTrack {
			startSector = 0
			continue
		}

		numSectors := uint(SectorsOnTrack(track))
		interleave := uint(InterleaveOnTrack(track))
		for i := uint(0); i < numSectors; i++ {
			candidate := TrackSector{
				Track:  track,
				Sector: uint8((uint(startSector) + i*interleave) % numSectors),
			}
			if bam.IsSectorAvailable(candidate) {
				return candidate
			}
		}
		startSector = 0
	}
	return InvalidTrackSector
}
