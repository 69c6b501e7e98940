package imagefile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/marcinbor85/gohex"
	"github.com/sigurn/crc16"
)

// crcTable drives the CRC-16/XMODEM payload checksum.
var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// Source supplies sequential image bytes to a flash writer. It tracks a
// running CRC-16/XMODEM of every byte read, so the checksum reported at
// the end of a run covers exactly the payload that was consumed.
type Source struct {
	r    io.Reader
	c    io.Closer // underlying file, nil for wrapped readers
	name string
	size int64
	crc  uint16
}

// New wraps an arbitrary reader as an image source. size is the total
// number of payload bytes, or -1 when unknown.
func New(r io.Reader, size int64, name string) *Source {
	return &Source{r: r, size: size, name: name, crc: crc16.Init(crcTable)}
}

// Open opens an image file for writing to flash.
//
// The path selects the decoder:
//   - "-" reads from standard input; the size is unknown, so the
//     caller must supply an explicit length.
//   - *.hex is parsed as Intel HEX into a contiguous image starting at
//     the lowest address present, gaps filled with 0xFF.
//   - *.zst is decompressed from zstandard into memory.
//   - anything else is read as a plain binary file.
func Open(path string) (*Source, error) {
	if path == "-" {
		return New(os.Stdin, -1, "stdin"), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex":
		return openHex(path)
	case ".zst":
		return openZstd(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	s := New(f, st.Size(), path)
	s.c = f
	return s, nil
}

// openHex decodes an Intel HEX file into a contiguous in-memory image.
func openHex(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	segs := mem.GetDataSegments()
	if len(segs) == 0 {
		return nil, fmt.Errorf("%s contains no data", path)
	}

	lo := segs[0].Address
	hi := segs[0].Address + uint32(len(segs[0].Data))
	for _, seg := range segs[1:] {
		if seg.Address < lo {
			lo = seg.Address
		}
		if end := seg.Address + uint32(len(seg.Data)); end > hi {
			hi = end
		}
	}

	img := make([]byte, hi-lo)
	for i := range img {
		img[i] = 0xFF
	}
	for _, seg := range segs {
		copy(img[seg.Address-lo:], seg.Data)
	}
	return New(bytes.NewReader(img), int64(len(img)), path), nil
}

// openZstd decompresses a zstandard image into memory, so its size is
// known up front.
func openZstd(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer dec.Close()

	img, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return New(bytes.NewReader(img), int64(len(img)), path), nil
}

// Read implements io.Reader, folding every byte delivered into the
// running CRC.
func (s *Source) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		s.crc = crc16.Update(s.crc, p[:n], crcTable)
	}
	return n, err
}

// Size returns the total payload size in bytes, or -1 when unknown.
func (s *Source) Size() int64 {
	return s.size
}

// Name returns the display name of the source.
func (s *Source) Name() string {
	return s.name
}

// CRC16 returns the CRC-16/XMODEM of all bytes read so far.
func (s *Source) CRC16() uint16 {
	return crc16.Complete(s.crc, crcTable)
}

// Close closes the underlying file, if any.
func (s *Source) Close() error {
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
