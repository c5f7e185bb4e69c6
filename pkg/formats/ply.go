package formats

import "io"

const formatPLY = "ply"

// PLY is recognized by extension but not implemented. Every call fails with
// an UnsupportedFormatError.
type PLY struct{}

// Name returns "ply".
func (PLY) Name() string { return formatPLY }

// Decode always fails.
func (PLY) Decode(io.Reader, bool) (*Raw, error) {
	return nil, &UnsupportedFormatError{Format: formatPLY}
}

// Encode always fails.
func (PLY) Encode(io.Writer, *Raw) error {
	return &UnsupportedFormatError{Format: formatPLY}
}
