package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	d64writer "github.com/ernst-schwaiger/D64Writer"
	"github.com/ernst-schwaiger/D64Writer/errors"
)

const (
	// maxProgramSize is the largest file that fits in a C64's address space.
	maxProgramSize = 0xffff
	// loadAddressSize is the size of the little-endian load address at the
	// start of every PRG file.
	loadAddressSize = 2
)

func hasProgramSuffix(name string) bool {
	return strings.HasSuffix(name, ".prg") || strings.HasSuffix(name, ".PRG")
}

// checkProgram returns an error describing why `data` can't be a C64 program
// file named `name`, or nil if it can.
func checkProgram(name string, data []byte) error {
	if !hasProgramSuffix(name) {
		return errors.ErrInvalidArgument.WithMessage(name + ": not a .prg file")
	}
	if len(data) < loadAddressSize {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("%s: too short to have a load address (%d bytes)", name, len(data)))
	}
	if len(data) > maxProgramSize {
		return errors.ErrFileTooLarge.WithMessage(
			fmt.Sprintf("%s: %d bytes is larger than %d", name, len(data), maxProgramSize))
	}

	loadAddress := int(data[0]) | int(data[1])<<8
	if loadAddress+len(data)-1 > maxProgramSize {
		return errors.ErrFileTooLarge.WithMessage(fmt.Sprintf(
			"%s: %d bytes loaded at $%04X run past the end of memory",
			name,
			len(data),
			loadAddress,
		))
	}
	return nil
}

// collectPrograms reads every regular file in `dir` that passes
// [checkProgram], in lexical order. Files that don't pass are passed to `skip`
// along with the reason.
func collectPrograms(dir string, skip func(path string, reason error)) ([]d64writer.FileEntry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var programs []d64writer.FileEntry
	for _, dirent := range dirents {
		path := filepath.Join(dir, dirent.Name())
		if !dirent.Type().IsRegular() {
			skip(path, errors.ErrInvalidArgument.WithMessage(dirent.Name()+": not a regular file"))
			continue
		}

		if !hasProgramSuffix(dirent.Name()) {
			skip(path, errors.ErrInvalidArgument.WithMessage(dirent.Name()+": not a .prg file"))
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := checkProgram(dirent.Name(), data); err != nil {
			skip(path, err)
			continue
		}
		programs = append(programs, d64writer.FileEntry{Name: dirent.Name(), Data: data})
	}
	return programs, nil
}

// diskNameForDir returns the name of the bottommost directory in `dir`.
func diskNameForDir(dir string) string {
	absolute, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(absolute)
}
