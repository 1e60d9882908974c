package d64

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/ernst-schwaiger/D64Writer/errors"
)

// writeChain stores `data` in a chain of sectors beginning at `start`, claiming
// each sector as it's used, and returns `start`.
//
// The caller must have checked beforehand that the disk has enough free
// sectors for all of `data`. Running out of sectors partway through would leave
// a half-written chain on the image, so it panics. If `data` is empty or
// `start` isn't valid, nothing is written and [InvalidTrackSector] is
// returned.
func writeChain(bam BAM, image *Image, start TrackSector, data []byte) TrackSector {
	if len(data) == 0 || !start.IsValid() {
		return InvalidTrackSector
	}

	current := start
	for remaining := data; ; {
		index := current.LinearIndex()
		bam.ClaimSector(index)

		sector := image.Sector(index)
		chunkSize := copy(sector[2:], remaining)
		remaining = remaining[chunkSize:]

		if len(remaining) == 0 {
			sector[0] = 0
			sector[1] = uint8(chunkSize)
			// Don't leave garbage after the end of the file.
			for i := 2 + chunkSize; i < BytesPerSector; i++ {
				sector[i] = 0
			}
			return start
		}

		next := bam.NextFree(current)
		if next == InvalidTrackSector {
			panic(fmt.Sprintf(
				"ran out of free sectors after %s with %d bytes left to write",
				current,
				len(remaining),
			))
		}
		sector[0] = next.Track + 1
		sector[1] = next.Sector
		current = next
	}
}

// linkTarget decodes the link at the start of a non-terminal sector.
func linkTarget(sector []byte) TrackSector {
	return TrackSector{Track: sector[0] - 1, Sector: sector[1]}
}

// walkChain follows a chain from `start`, calling `visit` with each sector's
// linear index and the payload bytes it holds. `seen` tracks sectors already
// visited and may be shared between calls to detect chains that overlap. A
// chain with a link to a nonexistent sector, a loop, or a terminal sector with
// a byte count outside 1-254 is reported as [errors.ErrFileSystemCorrupted].
func walkChain(
	image *Image,
	start TrackSector,
	seen bitmap.Bitmap,
	visit func(index uint16, payload []byte),
) error {
	if !start.IsValid() {
		return errors.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf("chain starts at nonexistent sector %s", start))
	}

	current := start
	for {
		index := current.LinearIndex()
		if seen.Get(int(index)) {
			return errors.ErrFileSystemCorrupted.WithMessage(
				fmt.Sprintf("sector %s is linked to more than once", current))
		}
		seen.Set(int(index), true)

		sector := image.view(index)
		if sector[0] == 0 {
			used := int(sector[1])
			if used < 1 || used > DataBytesPerSector {
				return errors.ErrFileSystemCorrupted.WithMessage(
					fmt.Sprintf(
						"last sector %s of chain starting at %s uses %d bytes, expected 1-%d",
						current,
						start,
						used,
						DataBytesPerSector,
					),
				)
			}
			visit(index, sector[2:2+used])
			return nil
		}

		visit(index, sector[2:])
		next := linkTarget(sector)
		if !next.IsValid() {
			return errors.ErrFileSystemCorrupted.WithMessage(
				fmt.Sprintf(
					"sector %s links to nonexistent track %d sector %d",
					current,
					sector[0],
					sector[1],
				),
			)
		}
		current = next
	}
}

// readChain returns the payload of the chain starting at `start`.
func readChain(image *Image, start TrackSector) ([]byte, error) {
	var data []byte
	err := walkChain(
		image,
		start,
		bitmap.New(NumSectors),
		func(_ uint16, payload []byte) {
			data = append(data, payload...)
		},
	)
	if err != nil {
		return nil, err
	}
	return data, nil
}
