package compression

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// maxRunPerGroup is the longest run a single RLE8 group can encode: two copies
// of the byte plus up to 255 repetitions.
const maxRunPerGroup = 257

// nextRun reads the next run of identical bytes from `source`. It returns the
// byte, the number of times it occurred, and io.EOF if the stream was empty.
func nextRun(source *bufio.Reader) (byte, int, error) {
	value, err := source.ReadByte()
	if err != nil {
		return 0, 0, err
	}

	length := 1
	for {
		next, err := source.ReadByte()
		if errors.Is(err, io.EOF) {
			return value, length, nil
		} else if err != nil {
			return 0, 0, err
		}

		if next != value {
			source.UnreadByte()
			return value, length, nil
		}
		length++
	}
}

// CompressRLE8 reads bytes from the input and writes compressed data to the
// output until the input is exhausted. The return value is the number of bytes
// written, only valid if no error occurred.
func CompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	totalBytesWritten := int64(0)

	// Worst case is one byte per run, so a group is at most three bytes.
	group := make([]byte, 0, 3)
	for {
		value, length, err := nextRun(source)
		if errors.Is(err, io.EOF) {
			return totalBytesWritten, nil
		} else if err != nil {
			return totalBytesWritten, err
		}

		for length > 0 {
			group = group[:0]
			if length == 1 {
				group = append(group, value)
				length = 0
			} else {
				groupLength := length
				if groupLength > maxRunPerGroup {
					groupLength = maxRunPerGroup
				}
				group = append(group, value, value, byte(groupLength-2))
				length -= groupLength
			}

			n, err := output.Write(group)
			totalBytesWritten += int64(n)
			if err != nil {
				return totalBytesWritten, err
			}
		}
	}
}

// DecompressRLE8 is the inverse of [CompressRLE8]. The return value is the
// number of bytes written to `output`.
func DecompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	totalBytesWritten := int64(0)
	// -1 when the previous byte ended a group, so that the byte after a repeat
	// count never pairs up with the byte before it.
	previous := -1

	for {
		current, err := source.ReadByte()
		if errors.Is(err, io.EOF) {
			return totalBytesWritten, nil
		} else if err != nil {
			return totalBytesWritten, fmt.Errorf("error reading input: %w", err)
		}

		var chunk []byte
		if int(current) == previous {
			repeatCount, err := source.ReadByte()
			if errors.Is(err, io.EOF) {
				return totalBytesWritten, fmt.Errorf(
					"%w: missing repeat count after two %02x bytes",
					io.ErrUnexpectedEOF,
					current,
				)
			} else if err != nil {
				return totalBytesWritten, fmt.Errorf("error reading input: %w", err)
			}

			// The first copy of the byte went out on the previous iteration.
			chunk = bytes.Repeat([]byte{current}, int(repeatCount)+1)
			previous = -1
		} else {
			chunk = []byte{current}
			previous = int(current)
		}

		n, err := output.Write(chunk)
		totalBytesWritten += int64(n)
		if err != nil {
			return totalBytesWritten, fmt.Errorf("failed to write to output: %w", err)
		}
	}
}
