// A small subset of POSIX errno codes, enough to classify every failure the
// image writer and reader can report. The syscall package doesn't define all
// of these on every platform (EUCLEAN in particular), so we keep our own.

package errors

import (
	"fmt"
)

type Errno int

const (
	EOK Errno = iota
	ENOENT
	EIO
	EEXIST
	EINVAL
	EFBIG
	ENOSPC
	ENODATA
	EUCLEAN
	EMEDIUMTYPE
)

var errorMessagesByCode = map[Errno]string{
	ENOENT:      "No such file or directory",
	EIO:         "Input/output error",
	EEXIST:      "File exists",
	EINVAL:      "Invalid argument",
	EFBIG:       "File too large",
	ENOSPC:      "No space left on device",
	ENODATA:     "No data available",
	EUCLEAN:     "Structure needs cleaning",
	EMEDIUMTYPE: "Wrong medium type",
}

var ErrNotFound = New(ENOENT)
var ErrIOFailed = New(EIO)
var ErrExists = New(EEXIST)
var ErrInvalidArgument = New(EINVAL)
var ErrFileTooLarge = New(EFBIG)
var ErrNoSpaceOnDevice = New(ENOSPC)
var ErrFileSystemCorrupted = New(EUCLEAN)
var ErrWrongMediumType = New(EMEDIUMTYPE)

// ErrDirectoryFull shares ENOSPC with ErrNoSpaceOnDevice, but the two are
// distinct under errors.Is.
var ErrDirectoryFull = NewWithMessage(ENOSPC, "directory full")

// ErrEmptyFile is returned when asked to store a zero-length file.
var ErrEmptyFile = NewWithMessage(ENODATA, "file is empty")

func StrError(code Errno) string {
	message, ok := errorMessagesByCode[code]
	if ok {
		return message
	}
	return fmt.Sprintf("error %d not recognized.", int(code))
}
