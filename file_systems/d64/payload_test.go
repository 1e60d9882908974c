package d64

import (
	"testing"

	"github.com/boljen/go-bitmap"
	"github.com/ernst-schwaiger/D64Writer/errors"
	d64testing "github.com/ernst-schwaiger/D64Writer/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteChainRoundTrip(t *testing.T) {
	sizes := []int{1, 13, 253, 254, 255, 508, 509, 5000}
	for _, size := range sizes {
		image, bam := newFormattedDirectory(t)
		data := d64testing.CreateRandomProgram(t, size)

		start := writeChain(bam, image, bam.FirstFree(), data)
		require.Equal(t, TrackSector{0, 0}, start)

		readBack, err := readChain(image, start)
		require.NoErrorf(t, err, "size %d", size)
		assert.Equalf(t, data, readBack, "size %d", size)

		blocks := int(blocksForSize(size))
		assert.EqualValues(t, NumSectors-19-blocks, bam.TotalFreeSectors())
		requireBAMConsistent(t, bam)
	}
}

func TestWriteChainTerminator(t *testing.T) {
	image, bam := newFormattedDirectory(t)
	writeChain(bam, image, bam.FirstFree(), make([]byte, 254+100))

	first := image.ReadSector(TrackSector{0, 0}.LinearIndex())
	assert.EqualValues(t, 1, first[0], "link track must be 1-based")
	assert.EqualValues(t, 10, first[1])

	last := image.ReadSector(TrackSector{0, 10}.LinearIndex())
	assert.EqualValues(t, 0, last[0])
	assert.EqualValues(t, 100, last[1])
}

func TestWriteChainNothingToDo(t *testing.T) {
	image, bam := newFormattedDirectory(t)
	assert.Equal(t, InvalidTrackSector, writeChain(bam, image, bam.FirstFree(), nil))
	assert.Equal(t, InvalidTrackSector, writeChain(bam, image, InvalidTrackSector, []byte{1}))
	assert.EqualValues(t, NumSectors-19, bam.TotalFreeSectors())
}

func TestWriteChainRunsOutOfSpace(t *testing.T) {
	image, bam := newFormattedDirectory(t)
	for track := uint8(1); track < NumTracks; track++ {
		if track == DirectoryTrack {
			continue
		}
		for sector := uint8(0); sector < SectorsOnTrack(track); sector++ {
			bam.ClaimSector(TrackSector{track, sector}.LinearIndex())
		}
	}

	assert.Panics(t, func() { writeChain(bam, image, bam.FirstFree(), make([]byte, 22*254)) })
}

func TestReadChainCorruption(t *testing.T) {
	tests := []struct {
		Name    string
		Corrupt func(image *Image)
	}{
		{
			"terminator uses 0 bytes",
			func(image *Image) { image.Sector(TrackSector{0, 10}.LinearIndex())[1] = 0 },
		},
		{
			"terminator uses 255 bytes",
			func(image *Image) { image.Sector(TrackSector{0, 10}.LinearIndex())[1] = 255 },
		},
		{
			"link to nonexistent track",
			func(image *Image) { image.Sector(0)[0] = 36 },
		},
		{
			"link to nonexistent sector",
			func(image *Image) { image.Sector(0)[1] = 21 },
		},
		{
			"loop",
			func(image *Image) {
				last := image.Sector(TrackSector{0, 10}.LinearIndex())
				last[0] = 1
				last[1] = 0
			},
		},
	}

	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				image, bam := newFormattedDirectory(t)
				start := writeChain(bam, image, bam.FirstFree(), make([]byte, 300))
				test.Corrupt(image)

				_, err := readChain(image, start)
				assert.ErrorIs(t, err, errors.ErrFileSystemCorrupted)
			},
		)
	}
}

func TestWalkChainSharedVisitedSet(t *testing.T) {
	image, bam := newFormattedDirectory(t)
	start := writeChain(bam, image, bam.FirstFree(), make([]byte, 600))

	seen := bitmap.New(NumSectors)
	var visited []uint16
	err := walkChain(image, start, seen, func(index uint16, _ []byte) {
		visited = append(visited, index)
	})
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 10, 20}, visited)

	err = walkChain(image, start, seen, func(uint16, []byte) {})
	assert.ErrorIs(t, err, errors.ErrFileSystemCorrupted, "second walk should see overlap")
}
