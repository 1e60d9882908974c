package d64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// claimAll follows the allocator from the first free sector, claiming each
// sector returned, until the disk is full.
func claimAll(bam BAM) []TrackSector {
	var order []TrackSector
	current := bam.FirstFree()
	for current != InvalidTrackSector {
		bam.ClaimSector(current.LinearIndex())
		order = append(order, current)
		current = bam.NextFree(current)
	}
	return order
}

func TestFirstFree(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	assert.Equal(t, TrackSector{0, 0}, bam.FirstFree())

	bam.ClaimSector(0)
	assert.Equal(t, TrackSector{0, 10}, bam.FirstFree())
}

func TestInterleaveOrderOnFirstTrack(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	order := claimAll(bam)

	expectedSectors := []uint8{
		0, 10, 20, 9, 19, 8, 18, 7, 17, 6, 16, 5, 15, 4, 14, 3, 13, 2, 12, 1, 11,
	}
	for i, sector := range expectedSectors {
		assert.Equalf(t, TrackSector{0, sector}, order[i], "allocation %d is wrong", i)
	}
	// Next track restarts at sector 0.
	assert.Equal(t, TrackSector{1, 0}, order[21])
	assert.Equal(t, TrackSector{1, 10}, order[22])
}

func TestAllocatorVisitsEveryDataSectorOnce(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	order := claimAll(bam)

	require.Len(t, order, NumSectors-19)
	seen := map[TrackSector]bool{}
	for _, ts := range order {
		assert.NotEqual(t, uint8(DirectoryTrack), ts.Track, "allocated on directory track")
		assert.Falsef(t, seen[ts], "%s allocated twice", ts)
		seen[ts] = true
	}

	assert.EqualValues(t, 0, bam.TotalFreeSectors())
	assert.Equal(t, InvalidTrackSector, bam.FirstFree())
	requireBAMConsistent(t, bam)
}

func TestNextFreeSkipsDirectoryTrack(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	for sector := uint8(0); sector < SectorsOnTrack(16); sector++ {
		bam.ClaimSector(TrackSector{16, sector}.LinearIndex())
	}

	next := bam.NextFree(TrackSector{16, 20})
	assert.Equal(t, TrackSector{18, 0}, next)
}

func TestNextFreeUsesInterleaveOfEachZone(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	bam.ClaimSector(TrackSector{24, 0}.LinearIndex())
	assert.Equal(t, TrackSector{24, 7}, bam.NextFree(TrackSector{24, 0}))

	bam.ClaimSector(TrackSector{30, 3}.LinearIndex())
	assert.Equal(t, TrackSector{30, 12}, bam.NextFree(TrackSector{30, 3}))

	// Wraps around within the track.
	bam.ClaimSector(TrackSector{30, 12}.LinearIndex())
	assert.Equal(t, TrackSector{30, 4}, bam.NextFree(TrackSector{30, 12}))
}

func TestNextFreeNeverGoesBackwards(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	for track := uint8(30); track < NumTracks; track++ {
		for sector := uint8(0); sector < SectorsOnTrack(track); sector++ {
			bam.ClaimSector(TrackSector{track, sector}.LinearIndex())
		}
	}

	// Lots of space on earlier tracks but none from track 31 onward.
	assert.Equal(t, InvalidTrackSector, bam.NextFree(TrackSector{30, 0}))
	assert.Equal(t, InvalidTrackSector, bam.NextFree(InvalidTrackSector))
}
