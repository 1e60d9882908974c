package compression_test

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	c "github.com/ernst-schwaiger/D64Writer/utilities/compression"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRLE8(t *testing.T) {
	tests := []struct {
		Name           string
		Input          []byte
		ExpectedOutput []byte
	}{
		{"empty", []byte{}, []byte{}},
		{"pair", []byte{4, 4}, []byte{4, 4, 0}},
		{"no runs", []byte{0, 1, 2, 3, 4}, []byte{0, 1, 2, 3, 4}},
		{"pair at end", []byte{6, 1, 3, 0, 0}, []byte{6, 1, 3, 0, 0, 0}},
		{"short run", []byte{9, 5, 5, 5, 5, 5, 3, 7}, []byte{9, 5, 5, 3, 3, 7}},
		{
			"adjacent runs",
			[]byte{9, 5, 5, 5, 5, 5, 5, 3, 3, 3, 3, 7, 2, 6},
			[]byte{9, 5, 5, 4, 3, 3, 2, 7, 2, 6},
		},
		{"257", bytes.Repeat([]byte{8}, 257), []byte{8, 8, 255}},
		{"258", bytes.Repeat([]byte{8}, 258), []byte{8, 8, 255, 8}},
		{"259", bytes.Repeat([]byte{8}, 259), []byte{8, 8, 255, 8, 8, 0}},
		{
			"empty sector",
			make([]byte, 256),
			[]byte{0, 0, 254},
		},
		{
			"chain terminator then padding",
			append([]byte{0, 13}, make([]byte, 254)...),
			[]byte{0, 13, 0, 0, 252},
		},
	}

	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				outputBuffer := make([]byte, len(test.ExpectedOutput)*2)
				n, err := c.CompressRLE8(bytes.NewReader(test.Input), bytewriter.New(outputBuffer))
				require.NoError(t, err)
				assert.EqualValues(t, len(test.ExpectedOutput), n, "wrong number of bytes written")
				assert.Equal(t, test.ExpectedOutput, outputBuffer[:n])
			},
		)
	}
}

func TestRLE8RoundTrip(t *testing.T) {
	randomData := make([]byte, 1852)
	rand.Read(randomData)

	tests := []struct {
		Name string
		Data []byte
	}{
		{"random", randomData},
		{"nulls", make([]byte, 571)},
		{"long run", bytes.Repeat([]byte{0xa0}, 934)},
		{"empty", []byte{}},
	}

	for _, test := range tests {
		t.Run(
			test.Name,
			func(t *testing.T) {
				// Random data can come out larger than it went in.
				compressedBuffer := make([]byte, len(test.Data)*2)
				n, err := c.CompressRLE8(bytes.NewReader(test.Data), bytewriter.New(compressedBuffer))
				require.NoError(t, err, "unexpected error while compressing")
				t.Logf("compressed %d to %d", len(test.Data), n)

				outputBuffer := make([]byte, len(test.Data))
				n, err = c.DecompressRLE8(
					bytes.NewReader(compressedBuffer[:n]), bytewriter.New(outputBuffer))
				require.NoError(t, err, "unexpected error while decompressing")
				assert.EqualValues(t, len(test.Data), n, "decompressed size is wrong")
				assert.Equal(t, test.Data, outputBuffer)
			},
		)
	}
}

func TestDecompressRLE8MissingRepeatCount(t *testing.T) {
	decompressed := make([]byte, 16)
	_, err := c.DecompressRLE8(bytes.NewReader([]byte{9, 1, 4, 4}), bytewriter.New(decompressed))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
