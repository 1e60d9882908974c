package errors_test

import (
	goerrors "errors"
	"testing"

	"github.com/ernst-schwaiger/D64Writer/errors"
	"github.com/stretchr/testify/assert"
)

func TestDriverErrorWithMessage(t *testing.T) {
	newErr := errors.ErrNoSpaceOnDevice.WithMessage("asdfqwerty")
	assert.Equal(
		t, "No space left on device: asdfqwerty", newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, errors.ErrNoSpaceOnDevice)
	assert.Equal(t, errors.ENOSPC, newErr.Errno())
}

func TestDriverErrorWrap(t *testing.T) {
	originalErr := goerrors.New("original error")
	newErr := errors.ErrExists.Wrap(originalErr)
	expectedMessage := "File exists: original error"

	assert.EqualValues(t, expectedMessage, newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, originalErr, "original error not set as parent")
	assert.ErrorIs(t, newErr, errors.ErrExists, "driver error not set as parent")
}

func TestDirectoryFullIsNotCapacity(t *testing.T) {
	err := errors.ErrDirectoryFull.WithMessage("slot 9")
	assert.ErrorIs(t, err, errors.ErrDirectoryFull)
	assert.NotErrorIs(t, err, errors.ErrNoSpaceOnDevice)
	assert.Equal(t, errors.ENOSPC, errors.ErrnoOf(err))
	assert.Equal(t, "No space left on device: directory full: slot 9", err.Error())
}

func TestErrnoOf(t *testing.T) {
	assert.Equal(t, errors.EOK, errors.ErrnoOf(goerrors.New("plain")))
	assert.Equal(t, errors.ENODATA, errors.ErrnoOf(errors.ErrEmptyFile))
	assert.Equal(t, errors.EUCLEAN, errors.ErrnoOf(errors.NewFromError(
		errors.EUCLEAN, goerrors.New("bad link"))))
}

func TestStrErrorUnknown(t *testing.T) {
	assert.Equal(t, "error 999 not recognized.", errors.StrError(errors.Errno(999)))
}
