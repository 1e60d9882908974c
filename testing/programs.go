package testing

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateRandomProgram returns `size` random bytes. It is guaranteed to either
// return a valid slice or fail the test and abort.
func CreateRandomProgram(t *testing.T, size int) []byte {
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoErrorf(t, err, "failed to initialize %d random bytes", size)
	return data
}

func sectorsOnTrack(track int) int {
	switch {
	case track < 17:
		return 21
	case track < 24:
		return 19
	case track < 30:
		return 18
	default:
		return 17
	}
}

func sectorIndex(t *testing.T, track, sector int) int {
	require.Less(t, track, 35, "illegal track %d", track+1)
	require.Less(t, sector, sectorsOnTrack(track), "illegal sector %d on track %d", sector, track+1)

	index := 0
	for i := 0; i < track; i++ {
		index += sectorsOnTrack(i)
	}
	return index + sector
}

func getSector(image []byte, index int) []byte {
	return image[index*BytesPerSector : (index+1)*BytesPerSector]
}

// IsSectorMarkedFree reads the BAM bit for a zero-based track and sector.
func IsSectorMarkedFree(t *testing.T, image []byte, track, sector int) bool {
	sectorIndex(t, track, sector)
	entry := getSector(image, bamSectorIndex)[4+track*4:]
	bits := uint32(entry[1]) | uint32(entry[2])<<8 | uint32(entry[3])<<16
	return bits&(1<<sector) != 0
}

// findDirent returns the raw directory entry with the given name, failing the
// test if there is none.
func findDirent(t *testing.T, image []byte, name string) []byte {
	directory := getSector(image, dirSectorIndex)
	for i := 0; i < direntsPerSector; i++ {
		dirent := directory[i*direntSize : (i+1)*direntSize]
		if dirent[2] == 0 {
			continue
		}

		rawName := dirent[5:21]
		nameLength := 0
		for nameLength < len(rawName) && rawName[nameLength] != 0xa0 && rawName[nameLength] != 0 {
			nameLength++
		}
		if string(rawName[:nameLength]) == name {
			return dirent
		}
	}
	require.FailNowf(t, "file not found", "no directory entry named %q", name)
	return nil
}

// RequireProgramOnImage finds the directory entry named `name` in a serialized
// image, follows its sector chain, and fails the test unless:
//
//   - every link points to an existing sector
//   - every sector of the chain is marked in use in the BAM
//   - the last sector uses 1-254 bytes
//   - the chain has exactly as many sectors as the entry's block count
//   - the payload is identical to `expected`
//
// It returns the zero-based (track, sector) pairs of the chain in order.
func RequireProgramOnImage(t *testing.T, image []byte, name string, expected []byte) [][2]int {
	require.Equal(t, ImageSize, len(image), "image is wrong size")

	dirent := findDirent(t, image, name)
	require.GreaterOrEqual(t, int(dirent[3]), 1, "%s: start track is 0", name)

	declaredBlocks := int(dirent[30]) | int(dirent[31])<<8
	track := int(dirent[3]) - 1
	sector := int(dirent[4])

	var payload []byte
	var chain [][2]int
	for {
		require.Lessf(
			t,
			len(chain),
			declaredBlocks,
			"%s: chain is longer than the %d blocks in the directory",
			name,
			declaredBlocks,
		)

		data := getSector(image, sectorIndex(t, track, sector))
		chain = append(chain, [2]int{track, sector})
		assert.False(
			t,
			IsSectorMarkedFree(t, image, track, sector),
			fmt.Sprintf("%s: track %d sector %d holds data but is marked free", name, track+1, sector),
		)

		if data[0] == 0 {
			used := int(data[1])
			require.Truef(t, used >= 1 && used <= 254, "%s: illegal terminator byte count %d", name, used)
			payload = append(payload, data[2:2+used]...)
			break
		}
		payload = append(payload, data[2:]...)
		track = int(data[0]) - 1
		sector = int(data[1])
	}

	require.Equalf(t, declaredBlocks, len(chain), "%s: wrong number of sectors in chain", name)
	require.Equalf(t, expected, payload, "%s: payload on image differs from what was written", name)
	return chain
}
