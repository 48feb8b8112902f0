package palette

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the number of entries of every palette table.
const Size = 256

// Color is a 24-bit RGB palette entry.
type Color struct {
	R, G, B uint8
}

// Table maps an 8-bit color index to a color.
type Table [Size]Color

// Lookup returns the color stored at index i.
func (t *Table) Lookup(i uint8) Color {
	return t[i]
}

// Option selects the built-in table that is active when decoding starts.
type Option uint8

const (
	OptionNone         Option = 0 // Same as OptionIDTFDefault
	OptionIDTFDefault  Option = 1
	OptionILDAStandard Option = 2
)

// ErrInvalidOption is returned for option values other than the ones above.
var ErrInvalidOption = errors.New("palette: invalid palette option")

// String returns the configuration name of the option.
func (o Option) String() string {
	switch o {
	case OptionNone, OptionIDTFDefault:
		return "default"
	case OptionILDAStandard:
		return "standard"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(o))
	}
}

// Select returns the built-in table for opt. The returned table is shared and
// must not be modified.
func Select(opt Option) (*Table, error) {
	switch opt {
	case OptionNone, OptionIDTFDefault:
		return &IDTFDefault, nil
	case OptionILDAStandard:
		return &ILDAStandard, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidOption, uint8(opt))
	}
}

// ParseOption maps a configuration name onto an Option.
func ParseOption(name string) (Option, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default", "idtf":
		return OptionIDTFDefault, nil
	case "standard", "ilda":
		return OptionILDAStandard, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOption, name)
	}
}
