package d64

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/ernst-schwaiger/D64Writer/errors"
	"github.com/hashicorp/go-multierror"
)

// Check verifies that the BAM, directory, and file chains are consistent with
// each other:
//
//   - every track's free count matches its bitmap, and no nonexistent sectors
//     are marked free
//   - the BAM and directory sectors are in use
//   - every file's chain is well-formed and has as many sectors as its
//     directory entry says
//   - no two chains share a sector
//   - outside of the directory track, exactly the sectors belonging to a chain
//     are marked as in use
//
// All problems found are returned together, wrapped in
// [errors.ErrFileSystemCorrupted]. Check returns nil if there are none.
func (disk *Disk) Check() error {
	var result *multierror.Error

	for _, problem := range disk.bam.verify() {
		result = multierror.Append(result, problem)
	}

	for _, index := range []uint16{BAMSectorIndex, DirectorySectorIndex} {
		ts := TrackSectorOf(index)
		if disk.bam.IsSectorAvailable(ts) {
			result = multierror.Append(result, fmt.Errorf("%s is marked free", ts))
		}
	}

	inUse := bitmap.New(NumSectors)
	for _, entry := range disk.Files() {
		numSectors := 0
		err := walkChain(
			disk.image,
			entry.Start,
			inUse,
			func(uint16, []byte) { numSectors++ },
		)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("file %q: %w", entry.Name, err))
			continue
		}
		if numSectors != int(entry.Blocks) {
			result = multierror.Append(
				result,
				fmt.Errorf(
					"file %q: directory says %d blocks but the chain has %d",
					entry.Name,
					entry.Blocks,
					numSectors,
				),
			)
		}
	}

	for index := uint16(0); index < NumSectors; index++ {
		ts := TrackSectorOf(index)
		used := inUse.Get(int(index))
		if ts.Track == DirectoryTrack {
			if used {
				result = multierror.Append(
					result, fmt.Errorf("%s is on the directory track but belongs to a file", ts))
			}
			continue
		}

		free := disk.bam.IsSectorAvailable(ts)
		if free && used {
			result = multierror.Append(
				result, fmt.Errorf("%s belongs to a file but is marked free", ts))
		} else if !free && !used {
			result = multierror.Append(
				result, fmt.Errorf("%s is marked in use but isn't part of any file", ts))
		}
	}

	if result == nil {
		return nil
	}
	return errors.ErrFileSystemCorrupted.Wrap(result)
}
