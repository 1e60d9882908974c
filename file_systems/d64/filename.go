package d64

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxNameLength is the number of bytes in a file or disk name field.
	MaxNameLength = 16
	// NamePadding fills the unused bytes of a name field. It's a shifted space
	// in PETSCII, which never appears in a normalized name, so the end of a name
	// is always unambiguous.
	NamePadding = 0xa0
)

// RawName is the on-disk form of a file or disk name.
type RawName [MaxNameLength]byte

// NormalizeName converts an arbitrary string into a name that can be stored on
// the disk. Only the first 16 characters are kept. Digits, uppercase letters,
// underscores, and periods are kept as-is, lowercase letters are converted to
// uppercase, and anything else becomes an underscore.
func NormalizeName(name string) string {
	var builder strings.Builder
	count := 0

	for _, char := range name {
		if count == MaxNameLength {
			break
		}
		count++

		switch {
		case char >= '0' && char <= '9',
			char >= 'A' && char <= 'Z',
			char == '_',
			char == '.':
			builder.WriteRune(char)
		case char >= 'a' && char <= 'z':
			builder.WriteRune(char - 'a' + 'A')
		default:
			// Also covers utf8.RuneError, so invalid UTF-8 sequences turn into
			// underscores too.
			builder.WriteByte('_')
		}
	}
	return builder.String()
}

// NameToBytes normalizes a name and pads it to the width of a name field.
func NameToBytes(name string) RawName {
	var raw RawName
	for i := range raw {
		raw[i] = NamePadding
	}
	copy(raw[:], NormalizeName(name))
	return raw
}

// BytesToName converts a name field back into a string, stopping at the first
// padding or null byte.
func BytesToName(raw []byte) string {
	for i, b := range raw {
		if b == NamePadding || b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

// isNormalizedName returns true if `name` is unchanged by [NormalizeName].
func isNormalizedName(name string) bool {
	return utf8.ValidString(name) && NormalizeName(name) == name
}
