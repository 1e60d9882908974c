// Command unzipimage expands a D64 image compressed with `d64writer build
// --compress` and makes sure the result is a usable image.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ernst-schwaiger/D64Writer/file_systems/d64"
	"github.com/ernst-schwaiger/D64Writer/utilities/compression"
)

func fail(exitCode int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(exitCode)
}

func main() {
	if len(os.Args) != 3 {
		fail(1, "Expand a D64 image compressed with RLE8 and gzip.\nUsage: %s input-file output-file", os.Args[0])
	}
	inputPath := os.Args[1]
	outputPath := os.Args[2]

	compressed, err := os.ReadFile(inputPath)
	if err != nil {
		fail(1, "Failed to read `%s`: %s", inputPath, err)
	}

	image, err := compression.DecompressImageToBytes(bytes.NewReader(compressed))
	if err != nil {
		fail(2, "Error expanding `%s`: %s", inputPath, err)
	}

	// Write the image out even if it's damaged so it can be inspected.
	err = os.WriteFile(outputPath, image, 0o644)
	if err != nil {
		fail(1, "Failed to write `%s`: %s", outputPath, err)
	}

	disk, err := d64.LoadDisk(bytes.NewReader(image))
	if err != nil {
		fail(3, "Expanded %d bytes to `%s`, but it isn't a valid image: %s", len(image), outputPath, err)
	}

	stat := disk.Stat()
	fmt.Printf(
		"Expanded `%s` to %d bytes: %d files, %d blocks free.\n",
		inputPath,
		len(image),
		stat.Files,
		stat.BlocksFree,
	)
}
