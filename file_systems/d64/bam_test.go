package d64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormattedBAM(t *testing.T) (BAM, *Image) {
	image := NewImage()
	bam := newBAM(image)
	bam.format(NameToBytes("test disk"), [2]byte{'V', 'T'})
	return bam, image
}

// requireBAMConsistent checks that every track's free count matches the number
// of bits set in its bitmap.
func requireBAMConsistent(t *testing.T, bam BAM) {
	require.Empty(t, bam.verify())
}

func TestFormatBAMLayout(t *testing.T) {
	_, image := newFormattedBAM(t)
	sector := image.ReadSector(BAMSectorIndex)

	assert.Equal(t, []byte{18, 1, 0x41, 0}, sector[:4], "header is wrong")

	tests := []struct {
		Track    uint8
		Expected []byte
	}{
		{0, []byte{21, 0xff, 0xff, 0x1f}},
		{16, []byte{21, 0xff, 0xff, 0x1f}},
		// BAM sector claimed, directory sector is claimed separately
		{17, []byte{18, 0xfe, 0xff, 0x07}},
		{23, []byte{19, 0xff, 0xff, 0x07}},
		{24, []byte{18, 0xff, 0xff, 0x03}},
		{29, []byte{18, 0xff, 0xff, 0x03}},
		{30, []byte{17, 0xff, 0xff, 0x01}},
		{34, []byte{17, 0xff, 0xff, 0x01}},
	}
	for _, test := range tests {
		offset := 4 + 4*int(test.Track)
		assert.Equalf(
			t,
			test.Expected,
			sector[offset:offset+4],
			"BAM entry for track %d is wrong",
			test.Track+1,
		)
	}

	assert.Equal(t, []byte("TEST_DISK"), sector[0x90:0x99])
	for i := 0x99; i < 0xa0; i++ {
		assert.EqualValuesf(t, NamePadding, sector[i], "disk name byte %#x isn't padding", i)
	}
	assert.Equal(
		t,
		[]byte{0xa0, 0xa0, 'V', 'T', 0xa0, '*', '*', 0xa0, 0xa0, 0xa0, 0xa0},
		sector[0xa0:0xab],
	)
	assert.Equal(t, make([]byte, BytesPerSector-0xab), sector[0xab:], "tail isn't zeroed")
}

func TestBAMLabel(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	assert.Equal(t, "TEST_DISK", bam.DiskName())
	assert.Equal(t, "VT", bam.DiskID())
}

func TestFreshBAMTotals(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	requireBAMConsistent(t, bam)

	// The directory track doesn't count even though most of it is free.
	assert.EqualValues(t, NumSectors-19, bam.TotalFreeSectors())
	assert.EqualValues(t, 18, bam.FreeSectorsOnTrack(DirectoryTrack))
	assert.False(t, bam.IsSectorAvailable(TrackSectorOf(BAMSectorIndex)))
	assert.True(t, bam.IsSectorAvailable(TrackSector{0, 0}))
}

func TestClaimSector(t *testing.T) {
	bam, _ := newFormattedBAM(t)

	claims := []TrackSector{{0, 0}, {0, 20}, {16, 5}, {24, 17}, {34, 16}}
	for i, ts := range claims {
		before := bam.FreeSectorsOnTrack(ts.Track)
		bam.ClaimSector(ts.LinearIndex())

		assert.False(t, bam.IsSectorAvailable(ts))
		assert.Equal(t, before-1, bam.FreeSectorsOnTrack(ts.Track))
		assert.EqualValues(t, NumSectors-19-i-1, bam.TotalFreeSectors())
		requireBAMConsistent(t, bam)
	}
}

func TestClaimSectorTwicePanics(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	bam.ClaimSector(42)
	assert.Panics(t, func() { bam.ClaimSector(42) })
	assert.Panics(t, func() { bam.ClaimSector(BAMSectorIndex) })
	assert.Panics(t, func() { bam.IsSectorAvailable(InvalidTrackSector) })
}

func TestClaimingWholeTrack(t *testing.T) {
	bam, _ := newFormattedBAM(t)
	for sector := uint8(0); sector < SectorsOnTrack(30); sector++ {
		bam.ClaimSector(TrackSector{30, sector}.LinearIndex())
	}
	assert.EqualValues(t, 0, bam.FreeSectorsOnTrack(30))
	requireBAMConsistent(t, bam)
}

func TestVerifyFindsProblems(t *testing.T) {
	bam, image := newFormattedBAM(t)

	sector := image.Sector(BAMSectorIndex)
	// Track 1: count says 20 but all 21 bits are set.
	sector[4] = 20
	// Track 31: bit for nonexistent sector 17 set, count adjusted to match.
	sector[4+4*30+3] |= 0x02
	sector[4+4*30] = 18

	problems := bam.verify()
	assert.Len(t, problems, 2)
}
