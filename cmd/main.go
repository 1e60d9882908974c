package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ernst-schwaiger/D64Writer/file_systems/d64"
	"github.com/ernst-schwaiger/D64Writer/utilities/compression"
	"github.com/gocarina/gocsv"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
)

// gzipMagic is how compressed images are told apart from raw ones.
var gzipMagic = []byte{0x1f, 0x8b}

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "d64writer",
		Usage: "Build Commodore 1541 disk images from C64 program files",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log every file that's added or skipped",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Create an image from all .prg files in a directory",
				Action:    buildImage,
				ArgsUsage: "SRC_DIR IMAGE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "disk name (default: name of SRC_DIR)",
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "two-character disk ID",
						Value: d64.DefaultOptions().DiskID,
					},
					&cli.BoolFlag{
						Name:  "keep-going",
						Usage: "skip files that don't fit instead of failing",
					},
					&cli.BoolFlag{
						Name:  "compress",
						Usage: "compress the image with RLE8 and gzip",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite IMAGE if it exists",
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Append program files to an existing image",
				Action:    addFiles,
				ArgsUsage: "IMAGE FILE...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "keep-going",
						Usage: "skip files that can't be added instead of failing",
					},
				},
			},
			{
				Name:      "list",
				Usage:     "Show the directory of an image",
				Action:    listImage,
				ArgsUsage: "IMAGE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "print the directory as CSV",
					},
				},
			},
			{
				Name:      "extract",
				Usage:     "Copy a file out of an image",
				Action:    extractFile,
				ArgsUsage: "IMAGE NAME OUTPUT",
			},
			{
				Name:      "expand",
				Usage:     "Decompress an image made with build --compress",
				Action:    expandImage,
				ArgsUsage: "INPUT OUTPUT",
			},
		},
	}
}

func verbosef(context *cli.Context, format string, args ...any) {
	if context.Bool("verbose") {
		log.Printf(format, args...)
	}
}

func requireArgs(context *cli.Context, atLeast, atMost int) error {
	n := context.NArg()
	if n < atLeast || (atMost >= 0 && n > atMost) {
		return fmt.Errorf(
			"wrong number of arguments for %s: %d given, usage: %s",
			context.Command.Name,
			n,
			context.Command.ArgsUsage,
		)
	}
	return nil
}

// loadImageFile reads an image from disk, decompressing it first if needed.
func loadImageFile(path string) (*d64.Disk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if bytes.HasPrefix(data, gzipMagic) {
		data, err = compression.DecompressImageToBytes(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
	}
	return d64.LoadDisk(bytes.NewReader(data))
}

func buildImage(context *cli.Context) error {
	err := requireArgs(context, 2, 2)
	if err != nil {
		return err
	}
	srcDir := context.Args().Get(0)
	imagePath := context.Args().Get(1)

	opts := d64.DefaultOptions()
	opts.DiskName = diskNameForDir(srcDir)
	if context.IsSet("name") {
		opts.DiskName = context.String("name")
	}
	opts.DiskID = context.String("id")
	opts.ContinueOnError = context.Bool("keep-going")

	programs, err := collectPrograms(
		srcDir,
		func(path string, reason error) {
			verbosef(context, "skipping %s", reason)
		},
	)
	if err != nil {
		return err
	}

	disk, err := d64.Build(programs, opts)
	if err != nil {
		if disk == nil {
			return err
		}
		log.Printf("some files were not written: %s", err)
	}
	for _, file := range disk.Files() {
		verbosef(context, "added %s (%d blocks)", file.Name, file.Blocks)
	}

	err = writeImageFile(
		imagePath,
		context.Bool("force"),
		func(output io.Writer) error {
			if context.Bool("compress") {
				_, err := compression.CompressImage(bytes.NewReader(disk.Bytes()), output)
				return err
			}
			_, err := disk.WriteTo(output)
			return err
		},
	)
	if err != nil {
		return err
	}

	verbosef(
		context,
		"wrote %d files to %s, %d blocks free",
		len(disk.Files()),
		imagePath,
		disk.Stat().BlocksFree,
	)
	return nil
}

// writeImageFile has `write` fill a temporary file next to `path` and only
// moves it into place once everything was written, so a failure never leaves a
// partial image behind. Unless `overwrite` is set, it's an error if `path`
// already exists.
func writeImageFile(path string, overwrite bool, write func(io.Writer) error) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tempPath := tempFile.Name()
	// After a rename there's nothing left to remove.
	defer os.Remove(tempPath)

	err = write(tempFile)
	if err == nil {
		err = tempFile.Chmod(0o644)
	}
	closeErr := tempFile.Close()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write %s: %w", path, closeErr)
	}

	if overwrite {
		return os.Rename(tempPath, path)
	}
	// Unlike a rename, a link fails if `path` exists.
	return os.Link(tempPath, path)
}

func addFiles(context *cli.Context) error {
	err := requireArgs(context, 2, -1)
	if err != nil {
		return err
	}
	imagePath := context.Args().First()
	paths := context.Args().Slice()[1:]
	keepGoing := context.Bool("keep-going")

	imageFile, err := os.OpenFile(imagePath, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer imageFile.Close()

	magic := make([]byte, len(gzipMagic))
	_, err = io.ReadFull(imageFile, magic)
	if err == nil && bytes.Equal(magic, gzipMagic) {
		return fmt.Errorf(
			"can't add files to %s: it's compressed, run `expand` on it first",
			imagePath,
		)
	}
	_, err = imageFile.Seek(0, io.SeekStart)
	if err != nil {
		return err
	}

	disk, err := d64.LoadDisk(imageFile)
	if err != nil {
		return fmt.Errorf("can't add files to %s: %w", imagePath, err)
	}

	var skipped *multierror.Error
	for _, path := range paths {
		name := filepath.Base(path)
		data, err := os.ReadFile(path)
		if err == nil {
			err = checkProgram(name, data)
		}
		if err == nil {
			err = disk.WriteFile(name, data)
		}

		if err != nil {
			err = fmt.Errorf("%s: %w", path, err)
			if !keepGoing {
				// Nothing has been written to the image file yet.
				return err
			}
			skipped = multierror.Append(skipped, err)
			continue
		}
		verbosef(context, "added %s as %s", path, d64.NormalizeName(name))
	}

	if skipped != nil {
		log.Printf("some files were not added: %s", skipped)
	}
	err = disk.FlushTo(imageFile)
	if err != nil {
		return err
	}
	return imageFile.Close()
}

// catalogRow is one line of `list --csv` output.
type catalogRow struct {
	Slot   int    `csv:"slot"`
	Name   string `csv:"name"`
	Type   string `csv:"type"`
	Track  int    `csv:"track"`
	Sector int    `csv:"sector"`
	Blocks int    `csv:"blocks"`
}

var fileTypeNames = map[uint8]string{
	0x00: "DEL",
	0x01: "SEQ",
	0x02: "PRG",
	0x03: "USR",
	0x04: "REL",
}

// fileTypeName formats a directory entry's file type the way a C64 lists it.
// Files that weren't closed properly get a leading asterisk.
func fileTypeName(fileType uint8) string {
	name, ok := fileTypeNames[fileType&0x0f]
	if !ok {
		name = fmt.Sprintf("$%02X", fileType)
	}
	if fileType&0x80 == 0 {
		return "*" + name
	}
	return name
}

func listImage(context *cli.Context) error {
	err := requireArgs(context, 1, 1)
	if err != nil {
		return err
	}
	disk, err := loadImageFile(context.Args().First())
	if err != nil {
		return err
	}

	files := disk.Files()
	if context.Bool("csv") {
		rows := make([]catalogRow, 0, len(files))
		for _, file := range files {
			rows = append(
				rows,
				catalogRow{
					Slot:   file.Slot,
					Name:   file.Name,
					Type:   fileTypeName(file.FileType),
					Track:  int(file.Start.Track) + 1,
					Sector: int(file.Start.Sector),
					Blocks: int(file.Blocks),
				},
			)
		}
		return gocsv.Marshal(rows, context.App.Writer)
	}

	out := context.App.Writer
	fmt.Fprintf(out, "0 %-18s %s\n", `"`+disk.Name()+`"`, disk.ID())
	for _, file := range files {
		fmt.Fprintf(out, "%-5d%-19s%s\n", file.Blocks, `"`+file.Name+`"`, fileTypeName(file.FileType))
	}
	fmt.Fprintf(out, "%d BLOCKS FREE.\n", disk.Stat().BlocksFree)
	return nil
}

func extractFile(context *cli.Context) error {
	err := requireArgs(context, 3, 3)
	if err != nil {
		return err
	}
	disk, err := loadImageFile(context.Args().Get(0))
	if err != nil {
		return err
	}

	data, err := disk.ReadFile(context.Args().Get(1))
	if err != nil {
		return err
	}
	return os.WriteFile(context.Args().Get(2), data, 0o644)
}

func expandImage(context *cli.Context) error {
	err := requireArgs(context, 2, 2)
	if err != nil {
		return err
	}

	input, err := os.Open(context.Args().Get(0))
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.Create(context.Args().Get(1))
	if err != nil {
		return err
	}
	defer output.Close()

	n, err := compression.DecompressImage(input, output)
	if err != nil {
		return fmt.Errorf("error expanding image: %w", err)
	}
	verbosef(context, "expanded image to %d bytes", n)
	return output.Close()
}
