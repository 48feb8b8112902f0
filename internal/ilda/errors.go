package ilda

import (
	"errors"
	"fmt"

	"github.com/skypro1111/idn-stream-player/internal/palette"
)

// Decode error kinds. A *DecodeError wraps exactly one of them, so callers
// match with errors.Is.
var (
	ErrNotThisFormat        = errors.New("ilda: not an ILDA file")
	ErrBadSectionSignature  = errors.New("ilda: bad section signature")
	ErrUnexpectedEOF        = errors.New("ilda: unexpected end of file")
	ErrTooFewPoints         = errors.New("ilda: frames must contain at least 2 points")
	ErrRecordCountMismatch  = errors.New("ilda: last point flag set before last record")
	ErrPaletteTooLarge      = errors.New("ilda: palettes must not contain more than 256 colors")
	ErrUnsupportedFormat    = errors.New("ilda: unsupported format code")
	ErrInvalidPaletteOption = palette.ErrInvalidOption
)

// DecodeError reports where in the input a decode error was detected.
type DecodeError struct {
	Kind   error
	Offset int64 // Byte offset of the section or record being read
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (file pos 0x%08X)", e.Kind, e.Offset)
	}
	return fmt.Sprintf("%v: %s (file pos 0x%08X)", e.Kind, e.Detail, e.Offset)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

func newDecodeError(kind error, offset int64, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

var kindNames = map[error]string{
	ErrNotThisFormat:        "not_ilda",
	ErrBadSectionSignature:  "bad_signature",
	ErrUnexpectedEOF:        "unexpected_eof",
	ErrTooFewPoints:         "too_few_points",
	ErrRecordCountMismatch:  "record_count_mismatch",
	ErrPaletteTooLarge:      "palette_too_large",
	ErrUnsupportedFormat:    "unsupported_format",
	ErrInvalidPaletteOption: "invalid_palette_option",
}

// KindName returns a metric label for the kind of err, or "" if err is not a
// *DecodeError and not one of the kinds.
func KindName(err error) string {
	var de *DecodeError
	if errors.As(err, &de) {
		err = de.Kind
	}
	for kind, name := range kindNames {
		if errors.Is(err, kind) {
			return name
		}
	}
	return ""
}
