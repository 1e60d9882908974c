package d64

import (
	"fmt"

	d64writer "github.com/ernst-schwaiger/D64Writer"
	"github.com/hashicorp/go-multierror"
)

// Build creates a new disk and writes `entries` to it in order.
//
// By default Build stops at the first file that can't be written and returns
// only that error, prefixed with the file's name. If `opts.ContinueOnError` is
// set, files that can't be written are skipped instead. The disk is returned
// along with a [multierror.Error] holding one error per skipped file, so the
// caller can decide whether a partial disk is good enough.
func Build(entries []d64writer.FileEntry, opts Options) (*Disk, error) {
	disk, err := NewDisk(opts)
	if err != nil {
		return nil, err
	}

	var failures *multierror.Error
	for _, entry := range entries {
		err = disk.WriteFile(entry.Name, entry.Data)
		if err == nil {
			continue
		}

		err = fmt.Errorf("%s: %w", entry.Name, err)
		if !opts.ContinueOnError {
			return nil, err
		}
		failures = multierror.Append(failures, err)
	}
	return disk, failures.ErrorOrNil()
}
