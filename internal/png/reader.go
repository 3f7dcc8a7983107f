package png

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/rm-hull/pixel-filters/internal/limits"
)

// Color type, as defined by the PNG format.
const (
	ctGrayscale      = 0
	ctTrueColor      = 2
	ctPaletted       = 3
	ctGrayscaleAlpha = 4
	ctTrueColorAlpha = 6
)

// Filter type, as defined by the PNG format.
const (
	ftNone    = 0
	ftSub     = 1
	ftUp      = 2
	ftAverage = 3
	ftPaeth   = 4
)

// Decoding stage.
// IHDR comes first, then PLTE (if present), then consecutive IDAT chunks and
// finally IEND. Ancillary chunks may appear in between and are skipped.
const (
	dsStart = iota
	dsSeenIHDR
	dsSeenPLTE
	dsSeenIDAT
	dsSeenIEND
)

const (
	maxChunkLength = 0x7fffffff
	maxDimension   = 0x7fffffff
)

// Header is the content of the IHDR chunk.
type Header struct {
	Width     uint32
	Height    uint32
	BitDepth  uint8
	ColorType uint8
	Interlace uint8
}

func (h Header) channels() int {
	switch h.ColorType {
	case ctTrueColor:
		return 3
	case ctGrayscaleAlpha:
		return 2
	case ctTrueColorAlpha:
		return 4
	default:
		return 1
	}
}

func (h Header) bitsPerPixel() int {
	return h.channels() * int(h.BitDepth)
}

// rowSize is the size of one filtered row, including the filter type byte.
func (h Header) rowSize() uint64 {
	return 1 + (uint64(h.bitsPerPixel())*uint64(h.Width)+7)/8
}

// A Reader decodes a PNG stream one row at a time. Every row is returned as
// 8-bit RGB triples whatever the colour type and bit depth of the source:
// palettes are looked up, low bit depths scaled up, 16-bit samples reduced to
// their high byte and alpha discarded.
type Reader struct {
	r        io.Reader
	crc      hash.Hash32
	tmp      [3 * 256]byte
	header   Header
	palette  []byte
	stage    int
	maxBytes uint64

	idatLength    uint32
	zlibR         io.ReadCloser
	bytesPerPixel int
	cr            []uint8
	pr            []uint8
	out           []uint8
	y             uint32
}

// NewReader reads the PNG signature and the IHDR chunk and nothing more, so
// the header can be checked before any pixel data is touched. maxBytes caps
// the row buffers the reader allocates; zero selects limits.DefaultMaxAlloc.
func NewReader(r io.Reader, maxBytes uint64) (*Reader, error) {
	if maxBytes == 0 {
		maxBytes = limits.DefaultMaxAlloc
	}
	d := &Reader{
		r:        r,
		crc:      crc32.NewIEEE(),
		maxBytes: maxBytes,
	}
	if err := d.checkSignature(); err != nil {
		return nil, noEOF(err)
	}

	length, chunk, err := d.readChunkHeader()
	if err != nil {
		return nil, noEOF(err)
	}
	if chunk != "IHDR" {
		return nil, errChunkOrder
	}
	if err := d.parseIHDR(length); err != nil {
		return nil, noEOF(err)
	}
	d.stage = dsSeenIHDR

	need := 2*d.header.rowSize() + 3*uint64(d.header.Width)
	if need > d.maxBytes {
		return nil, fmt.Errorf("%w: row buffers need %d bytes, reader ceiling is %d", limits.ErrExceeded, need, d.maxBytes)
	}
	return d, nil
}

func (d *Reader) Header() Header {
	return d.header
}

// NextRow decodes the next row in scan order and returns io.EOF once every
// row has been read. The returned slice is reused by the following call.
func (d *Reader) NextRow() ([]byte, error) {
	if d.y >= d.header.Height {
		return nil, io.EOF
	}
	if d.zlibR == nil {
		if err := d.startImageData(); err != nil {
			return nil, noEOF(err)
		}
	}

	if _, err := io.ReadFull(d.zlibR, d.cr); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, FormatError("not enough pixel data")
		}
		return nil, err
	}

	cdat := d.cr[1:]
	pdat := d.pr[1:]
	if err := unfilter(d.cr[0], cdat, pdat, d.bytesPerPixel); err != nil {
		return nil, err
	}
	if err := d.normalise(cdat); err != nil {
		return nil, err
	}

	d.pr, d.cr = d.cr, d.pr
	d.y++
	return d.out, nil
}

// Close checks the validity of the stream after the last row: the zlib
// checksum, the final IDAT checksum and the trailing chunks up to IEND.
func (d *Reader) Close() error {
	if d.stage == dsSeenIEND || d.zlibR == nil {
		return nil
	}
	if d.y < d.header.Height {
		return FormatError("not enough pixel data")
	}

	// Reading past the last row verifies the Adler-32 checksum.
	var one [1]byte
	n, err := 0, error(nil)
	for i := 0; n == 0 && err == nil; i++ {
		if i == 100 {
			return io.ErrNoProgress
		}
		n, err = d.zlibR.Read(one[:])
	}
	if err != nil && err != io.EOF {
		return err
	}
	if n != 0 || d.idatLength != 0 {
		return FormatError("too much pixel data")
	}
	if err := d.zlibR.Close(); err != nil {
		return err
	}
	if err := d.verifyChecksum(); err != nil {
		return noEOF(err)
	}

	for d.stage != dsSeenIEND {
		length, chunk, err := d.readChunkHeader()
		if err != nil {
			return noEOF(err)
		}
		switch chunk {
		case "IEND":
			if length != 0 {
				return FormatError("bad IEND length")
			}
			if err := d.verifyChecksum(); err != nil {
				return noEOF(err)
			}
			d.stage = dsSeenIEND
		case "IHDR", "PLTE":
			return errChunkOrder
		default:
			// Trailing IDAT chunks are garbage once the image is complete.
			if err := d.skipChunk(length); err != nil {
				return noEOF(err)
			}
		}
	}
	return nil
}

// startImageData walks the chunks between IHDR and the first IDAT and sets
// up the inflater and the row buffers.
func (d *Reader) startImageData() error {
	for d.stage != dsSeenIDAT {
		length, chunk, err := d.readChunkHeader()
		if err != nil {
			return err
		}
		switch chunk {
		case "IHDR":
			return errChunkOrder
		case "PLTE":
			if d.stage != dsSeenIHDR {
				return errChunkOrder
			}
			if err := d.parsePLTE(length); err != nil {
				return err
			}
			d.stage = dsSeenPLTE
		case "IDAT":
			if d.header.ColorType == ctPaletted && d.stage != dsSeenPLTE {
				return FormatError("missing palette")
			}
			d.idatLength = length
			d.stage = dsSeenIDAT
		case "IEND":
			return FormatError("missing image data")
		default:
			if err := d.skipChunk(length); err != nil {
				return err
			}
		}
	}

	zr, err := zlib.NewReader(d)
	if err != nil {
		return err
	}
	d.zlibR = zr

	d.bytesPerPixel = (d.header.bitsPerPixel() + 7) / 8
	rowSize := d.header.rowSize()
	// cr and pr are the bytes for the current and previous row; the filter
	// type sits at index 0.
	d.cr = make([]uint8, rowSize)
	d.pr = make([]uint8, rowSize)
	d.out = make([]uint8, 3*uint64(d.header.Width))
	return nil
}

func (d *Reader) parseIHDR(length uint32) error {
	if length != 13 {
		return FormatError("bad IHDR length")
	}
	if _, err := io.ReadFull(d.r, d.tmp[:13]); err != nil {
		return err
	}
	d.crc.Write(d.tmp[:13])

	// verifyChecksum reuses d.tmp, so the fields are taken out first.
	h := Header{
		Width:     binary.BigEndian.Uint32(d.tmp[0:4]),
		Height:    binary.BigEndian.Uint32(d.tmp[4:8]),
		BitDepth:  d.tmp[8],
		ColorType: d.tmp[9],
		Interlace: d.tmp[12],
	}
	compression, filter := d.tmp[10], d.tmp[11]
	if err := d.verifyChecksum(); err != nil {
		return err
	}

	if h.Width == 0 || h.Height == 0 {
		return FormatError("non-positive dimension")
	}
	if h.Width > maxDimension || h.Height > maxDimension {
		return FormatError("dimension overflow")
	}
	if !validDepth(h.ColorType, h.BitDepth) {
		return FormatError(fmt.Sprintf("bad bit depth %d for color type %d", h.BitDepth, h.ColorType))
	}
	if compression != 0 {
		return FormatError("bad compression method")
	}
	if filter != 0 {
		return FormatError("bad filter method")
	}
	switch h.Interlace {
	case 0:
	case 1:
		return UnsupportedError("interlaced image")
	default:
		return FormatError("bad interlace method")
	}

	d.header = h
	return nil
}

func validDepth(colorType, depth uint8) bool {
	switch colorType {
	case ctGrayscale:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case ctPaletted:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8
	case ctTrueColor, ctGrayscaleAlpha, ctTrueColorAlpha:
		return depth == 8 || depth == 16
	}
	return false
}

func (d *Reader) parsePLTE(length uint32) error {
	if length == 0 || length%3 != 0 || length > 3*256 {
		return FormatError("bad PLTE length")
	}
	if _, err := io.ReadFull(d.r, d.tmp[:length]); err != nil {
		return err
	}
	d.crc.Write(d.tmp[:length])

	switch d.header.ColorType {
	case ctPaletted:
		d.palette = append([]byte(nil), d.tmp[:length]...)
	case ctTrueColor, ctTrueColorAlpha:
		// A suggested palette for truecolor images is ignored.
	default:
		return FormatError("PLTE, color type mismatch")
	}
	return d.verifyChecksum()
}

// normalise expands one unfiltered row into d.out as RGB triples.
func (d *Reader) normalise(cdat []byte) error {
	width := int(d.header.Width)
	depth := int(d.header.BitDepth)
	out := d.out

	switch {
	case d.header.ColorType == ctPaletted:
		entries := len(d.palette) / 3
		for x := 0; x < width; x++ {
			idx := int(sample(cdat, x, depth))
			if idx >= entries {
				return FormatError("palette index out of range")
			}
			copy(out[3*x:3*x+3], d.palette[3*idx:3*idx+3])
		}
	case d.header.ColorType == ctGrayscale && depth <= 8:
		scale := byte(255 / (1<<depth - 1))
		for x := 0; x < width; x++ {
			v := sample(cdat, x, depth) * scale
			out[3*x], out[3*x+1], out[3*x+2] = v, v, v
		}
	default:
		// 8 or 16 bits per sample; a 16-bit sample keeps its high byte.
		sampleBytes := depth / 8
		stride := d.header.channels() * sampleBytes
		gray := d.header.ColorType == ctGrayscale || d.header.ColorType == ctGrayscaleAlpha
		for x := 0; x < width; x++ {
			px := cdat[x*stride:]
			if gray {
				out[3*x], out[3*x+1], out[3*x+2] = px[0], px[0], px[0]
			} else {
				out[3*x], out[3*x+1], out[3*x+2] = px[0], px[sampleBytes], px[2*sampleBytes]
			}
		}
	}
	return nil
}

// sample extracts the x'th depth-bit sample of a packed row, most
// significant bits first.
func sample(cdat []byte, x, depth int) byte {
	bit := x * depth
	shift := uint(8 - depth - bit%8)
	return (cdat[bit/8] >> shift) & byte(1<<depth-1)
}

func unfilter(filter byte, cdat, pdat []byte, bpp int) error {
	switch filter {
	case ftNone:
		// No-op.
	case ftSub:
		for i := bpp; i < len(cdat); i++ {
			cdat[i] += cdat[i-bpp]
		}
	case ftUp:
		for i, p := range pdat {
			cdat[i] += p
		}
	case ftAverage:
		for i := 0; i < bpp && i < len(cdat); i++ {
			cdat[i] += pdat[i] / 2
		}
		for i := bpp; i < len(cdat); i++ {
			cdat[i] += uint8((int(cdat[i-bpp]) + int(pdat[i])) / 2)
		}
	case ftPaeth:
		for i := 0; i < bpp && i < len(cdat); i++ {
			cdat[i] += pdat[i]
		}
		for i := bpp; i < len(cdat); i++ {
			cdat[i] += paeth(cdat[i-bpp], pdat[i], pdat[i-bpp])
		}
	default:
		return FormatError("bad filter type")
	}
	return nil
}

// paeth picks whichever of left (a), up (b) and upper-left (c) is closest to
// a + b - c, preferring them in that order.
func paeth(a, b, c uint8) uint8 {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Read presents one or more IDAT chunks as one continuous stream (minus the
// intermediate chunk headers and footers). If the PNG data looked like:
//
//	... len0 IDAT xxx crc0 len1 IDAT yy crc1 len2 IEND crc2
//
// then this reader presents xxxyy. After the last Read the underlying reader
// sits between yy and crc1.
func (d *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for d.idatLength == 0 {
		// We have exhausted an IDAT chunk. Verify the checksum of that chunk.
		if err := d.verifyChecksum(); err != nil {
			return 0, err
		}
		length, chunk, err := d.readChunkHeader()
		if err != nil {
			return 0, err
		}
		if chunk != "IDAT" {
			return 0, FormatError("not enough pixel data")
		}
		d.idatLength = length
	}
	n, err := d.r.Read(p[:min(len(p), int(d.idatLength))])
	d.crc.Write(p[:n])
	d.idatLength -= uint32(n)
	return n, err
}

// readChunkHeader reads a chunk's length and type and starts its checksum.
func (d *Reader) readChunkHeader() (uint32, string, error) {
	if _, err := io.ReadFull(d.r, d.tmp[:8]); err != nil {
		return 0, "", err
	}
	length := binary.BigEndian.Uint32(d.tmp[:4])
	if length > maxChunkLength {
		return 0, "", FormatError(fmt.Sprintf("bad chunk length: %d", length))
	}
	d.crc.Reset()
	d.crc.Write(d.tmp[4:8])
	return length, string(d.tmp[4:8]), nil
}

// skipChunk discards a chunk of known length, still checking its CRC.
func (d *Reader) skipChunk(length uint32) error {
	for length > 0 {
		n, err := io.ReadFull(d.r, d.tmp[:min(len(d.tmp), int(length))])
		if err != nil {
			return err
		}
		d.crc.Write(d.tmp[:n])
		length -= uint32(n)
	}
	return d.verifyChecksum()
}

func (d *Reader) verifyChecksum() error {
	if _, err := io.ReadFull(d.r, d.tmp[:4]); err != nil {
		return err
	}
	if binary.BigEndian.Uint32(d.tmp[:4]) != d.crc.Sum32() {
		return FormatError("invalid checksum")
	}
	return nil
}

func (d *Reader) checkSignature() error {
	if _, err := io.ReadFull(d.r, d.tmp[:len(pngSignature)]); err != nil {
		return err
	}
	if string(d.tmp[:len(pngSignature)]) != pngSignature {
		return FormatError("not a PNG file")
	}
	return nil
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
