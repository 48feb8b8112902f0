package ilda

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/chewxy/math32"

	"github.com/skypro1111/idn-stream-player/internal/palette"
)

// Section layout constants
const (
	Signature         = "ILDA"
	SignatureSize     = 4
	SectionHeaderSize = 32 // Signature included
	MaxPaletteEntries = palette.Size

	statusBlanked   = 0x40
	statusLastPoint = 0x80
)

// Format codes
const (
	Format3DIndexed   = 0
	Format2DIndexed   = 1
	FormatPalette     = 2
	Format3DTrueColor = 4
	Format2DTrueColor = 5
)

// FrameConsumer receives the decoded frames. Every point section produces one
// OpenFrame, one PutSample per record and one PushFrame. A non-nil error from
// any method aborts decoding and is returned (wrapped) from Decode.
type FrameConsumer interface {
	OpenFrame() error
	PutSample(x, y int16, r, g, b uint8) error
	PushFrame() error
}

// Options controls coordinate transformation and the initial palette.
type Options struct {
	XScale  float32 // Negative to mirror the x axis
	YScale  float32 // Negative to mirror the y axis
	Palette palette.Option
	Logger  *slog.Logger
}

// DefaultOptions returns unit scale on both axes and the IDTF default palette.
func DefaultOptions() Options {
	return Options{XScale: 1, YScale: 1, Palette: palette.OptionIDTFDefault}
}

// AxisScale returns the scale factor for one axis, negated when mirrored.
func AxisScale(scale float32, mirror bool) float32 {
	if mirror {
		return -scale
	}
	return scale
}

// Stats counts what a decoder run has seen.
type Stats struct {
	Sections int `json:"sections"`
	Frames   int `json:"frames"`
	Points   int `json:"points"`
	Palettes int `json:"palettes"`
	Warnings int `json:"warnings"`
}

// SectionHeader is the fixed part of every section.
type SectionHeader struct {
	FormatCode    uint8
	DataSetName   [8]byte
	CompanyName   [8]byte
	RecordCount   uint16
	DataSetNumber uint16
	DataSetCount  uint16
	HeadNumber    uint8
}

// Decoder decodes one input stream. It is not safe for concurrent use.
type Decoder struct {
	opts   Options
	logger *slog.Logger

	active *palette.Table
	custom palette.Table

	stats Stats
}

// NewDecoder creates a decoder. The palette option is validated by Decode so
// that an invalid option is reported before any input is read.
func NewDecoder(opts Options) *Decoder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{opts: opts, logger: logger}
}

// Decode is a shorthand for NewDecoder(opts).Decode(r, c).
func Decode(r io.Reader, opts Options, c FrameConsumer) error {
	return NewDecoder(opts).Decode(r, c)
}

// Stats returns the counters of the last Decode call.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Decode reads sections from r until a terminator and reports every frame to c.
func (d *Decoder) Decode(r io.Reader, c FrameConsumer) error {
	d.stats = Stats{}

	table, err := palette.Select(d.opts.Palette)
	if err != nil {
		return err
	}
	d.active = table

	in := &offsetReader{r: bufio.NewReader(r)}

	// The first section must carry the signature, anything else is not ours.
	var sig [SignatureSize]byte
	if _, err := io.ReadFull(in, sig[:]); err != nil || string(sig[:]) != Signature {
		return &DecodeError{Kind: ErrNotThisFormat, Offset: 0}
	}

	for first := true; ; first = false {
		sectionPos := in.offset - SignatureSize
		if !first {
			sectionPos = in.offset
			n, err := io.ReadFull(in, sig[:])
			if err != nil {
				if n > 0 {
					d.logger.Warn("Ignoring truncated section signature at end of file",
						slog.Int64("file_pos", sectionPos),
						slog.Int("bytes", n),
					)
				}
				return nil
			}

			// Some producers append non-ILDA data after four zero bytes.
			if sig == [SignatureSize]byte{} {
				return nil
			}
			if string(sig[:]) != Signature {
				return newDecodeError(ErrBadSectionSignature, sectionPos, "got %q", sig[:])
			}
		}

		header, err := readSectionHeader(in)
		if err != nil {
			return newDecodeError(ErrUnexpectedEOF, sectionPos, "section header")
		}

		// An empty section is the regular end.
		if header.RecordCount == 0 {
			return nil
		}
		d.stats.Sections++

		switch header.FormatCode {
		case Format3DIndexed, Format2DIndexed, Format3DTrueColor, Format2DTrueColor:
			if err := d.decodeFrame(in, sectionPos, header, c); err != nil {
				return err
			}
		case FormatPalette:
			if err := d.decodePalette(in, sectionPos, header); err != nil {
				return err
			}
		default:
			return newDecodeError(ErrUnsupportedFormat, sectionPos, "format code %d", header.FormatCode)
		}
	}
}

// readSectionHeader reads the 28 bytes following the signature.
func readSectionHeader(r io.Reader) (*SectionHeader, error) {
	var buf [SectionHeaderSize - SignatureSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}

	h := &SectionHeader{
		FormatCode:    buf[3],
		RecordCount:   be16(buf[20:22]),
		DataSetNumber: be16(buf[22:24]),
		DataSetCount:  be16(buf[24:26]),
		HeadNumber:    buf[26],
	}
	copy(h.DataSetName[:], buf[4:12])
	copy(h.CompanyName[:], buf[12:20])
	return h, nil
}

func (d *Decoder) decodeFrame(in *offsetReader, sectionPos int64, h *SectionHeader, c FrameConsumer) error {
	count := int(h.RecordCount)
	if count <= 1 {
		return newDecodeError(ErrTooFewPoints, sectionPos, "record count %d", count)
	}

	hasZ := h.FormatCode == Format3DIndexed || h.FormatCode == Format3DTrueColor
	hasIndex := h.FormatCode == Format3DIndexed || h.FormatCode == Format2DIndexed

	recordSize := 4 + 1
	if hasZ {
		recordSize += 2
	}
	if hasIndex {
		recordSize++
	} else {
		recordSize += 3
	}

	if err := c.OpenFrame(); err != nil {
		return fmt.Errorf("open frame at file pos 0x%08X: %w", sectionPos, err)
	}

	rec := make([]byte, recordSize)
	for i := 0; i < count; i++ {
		recordPos := in.offset
		if _, err := io.ReadFull(in, rec); err != nil {
			return newDecodeError(ErrUnexpectedEOF, recordPos, "record %d of %d", i, count)
		}

		x := scaleCoord(int16(be16(rec[0:2])), d.opts.XScale)
		y := scaleCoord(int16(be16(rec[2:4])), d.opts.YScale)
		p := 4
		if hasZ {
			p += 2 // Output is two-dimensional
		}
		status := rec[p]
		p++

		var col palette.Color
		if hasIndex {
			col = d.active.Lookup(rec[p])
		} else {
			// True color records are stored blue first.
			col = palette.Color{R: rec[p+2], G: rec[p+1], B: rec[p]}
		}
		if status&statusBlanked != 0 {
			col = palette.Color{}
		}

		if err := c.PutSample(x, y, col.R, col.G, col.B); err != nil {
			return fmt.Errorf("put sample at file pos 0x%08X: %w", recordPos, err)
		}
		d.stats.Points++

		lastPoint := status&statusLastPoint != 0
		lastRecord := i+1 == count
		if lastPoint && !lastRecord {
			return newDecodeError(ErrRecordCountMismatch, recordPos, "record %d of %d", i, count)
		}
		if !lastPoint && lastRecord {
			// Known to be omitted by some generators.
			d.stats.Warnings++
			d.logger.Warn("Last point flag not set on last record",
				slog.Int64("file_pos", recordPos),
				slog.Int("record_count", count),
			)
		}
	}

	if err := c.PushFrame(); err != nil {
		return fmt.Errorf("push frame at file pos 0x%08X: %w", sectionPos, err)
	}
	d.stats.Frames++
	return nil
}

func (d *Decoder) decodePalette(in *offsetReader, sectionPos int64, h *SectionHeader) error {
	count := int(h.RecordCount)
	if count > MaxPaletteEntries {
		return newDecodeError(ErrPaletteTooLarge, sectionPos, "record count %d", count)
	}

	d.custom = palette.Table{}
	var rgb [3]byte
	for i := 0; i < count; i++ {
		recordPos := in.offset
		if _, err := io.ReadFull(in, rgb[:]); err != nil {
			return newDecodeError(ErrUnexpectedEOF, recordPos, "palette record %d of %d", i, count)
		}
		d.custom[i] = palette.Color{R: rgb[0], G: rgb[1], B: rgb[2]}
	}

	// Not retroactive: only the following sections see the new table.
	d.active = &d.custom
	d.stats.Palettes++
	return nil
}

// scaleCoord multiplies v by f, truncates toward zero and wraps to 16 bits.
func scaleCoord(v int16, f float32) int16 {
	if f == 1 {
		return v
	}
	return int16(int64(math32.Trunc(float32(v) * f)))
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// offsetReader counts consumed bytes for diagnostics.
type offsetReader struct {
	r      io.Reader
	offset int64
}

func (o *offsetReader) Read(p []byte) (int, error) {
	n, err := o.r.Read(p)
	o.offset += int64(n)
	return n, err
}
