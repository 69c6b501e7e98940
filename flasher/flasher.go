package flasher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jonpovey/flashtool/mtd"
	"github.com/jonpovey/flashtool/nandecc"
)

// Image supplies the payload bytes for write mode. Size returns the
// total number of bytes available, or -1 when unknown (streaming
// input); an explicit length is then required.
type Image interface {
	io.Reader
	Size() int64
}

// Flasher drives erase and write operations over a NAND partition,
// handling bad block skipping, software ECC layouts and range limits.
//
// A Flasher may be reused for sequential runs, but is not safe for
// concurrent use: Run resets its progress state on entry.
type Flasher struct {
	dev    mtd.Device
	config Config

	// resolved by setup for the duration of one run
	info       mtd.Info
	img        Image
	codec      *nandecc.Codec
	blockBuf   []byte
	length     int64
	maxOff     int64
	blockPages int

	// progress state
	bytesDone      int64
	blockBytesDone int64
	blockOff       int64
	startTime      time.Time
	stats          Stats
}

// Stats summarizes a completed run.
type Stats struct {
	// BytesDone is the number of payload bytes committed. Erase-only
	// runs account whole blocks, so it can exceed the requested length.
	BytesDone int64

	// BlocksSkippedBad counts blocks skipped because they were already
	// marked bad
	BlocksSkippedBad int

	// BlocksMarkedBad counts blocks this run marked bad after failures
	BlocksMarkedBad int

	// PagesSkippedFF counts trailing all-0xFF pages skipped in UBI mode
	PagesSkippedFF int
}

// New creates a Flasher for the given device with the given options.
// Panics if dev is nil.
//
// Example:
//
//	fl := flasher.New(dev,
//	    flasher.WithStart(0),
//	    flasher.WithErase(true),
//	    flasher.WithWrite(true),
//	    flasher.WithLayout(nandecc.LayoutLegacy),
//	)
func New(dev mtd.Device, opts ...Option) *Flasher {
	if dev == nil {
		panic("device cannot be nil")
	}

	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	return &Flasher{
		dev:    dev,
		config: config,
	}
}

// Stats returns the counters of the most recent run.
func (f *Flasher) Stats() Stats {
	return f.stats
}

// ecc reports whether software ECC generation is enabled.
func (f *Flasher) ecc() bool {
	return f.config.Layout != 0
}

// Run executes the configured operation against the device, reading
// payload bytes from img when writing. img may be nil for erase-only
// runs.
//
// Blocks found bad are skipped and the payload lands in the following
// good blocks; blocks that fail to erase or write are marked bad and,
// when writing, the same buffer is retried on the next good block. The
// context is checked between blocks, so a cancelled ctx stops the run
// at the next block boundary.
//
// The error identifies the outcome: nil on success, *BadBlockError for
// a strict-mode abort, *NoSpaceError when the run cannot fit, and
// *ConfigError or a generic error otherwise. ExitCode converts this to
// the conventional process exit status.
func (f *Flasher) Run(ctx context.Context, img Image) error {
	if err := f.setup(img); err != nil {
		return err
	}

	rewind := false
	for f.blockOff = f.config.Start &^ (f.info.EraseSize - 1); f.bytesDone < f.length; f.blockOff += f.info.EraseSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled at block 0x%X: %w", f.blockOff, err)
		}
		f.blockBytesDone = 0

		bad, err := f.dev.IsBad(f.blockOff)
		if err != nil {
			return fmt.Errorf("bad block check at 0x%X: %w", f.blockOff, err)
		}
		if bad {
			if f.config.FailBad {
				return &BadBlockError{Offset: f.blockOff}
			}
			f.logInfo("skipping bad block", "offset", hex(f.blockOff))
			f.stats.BlocksSkippedBad++
			continue
		}

		f.logDebug("processing block", "offset", hex(f.blockOff), "rewind", rewind)

		if f.config.Erase {
			if end := f.blockOff + f.info.EraseSize; end > f.maxOff {
				return &NoSpaceError{Op: "erasing next block", End: end, Limit: f.maxOff}
			}
			if err := f.dev.Erase(f.blockOff); err != nil {
				f.logError("erase failed", "offset", hex(f.blockOff), "error", err)
				if merr := f.dev.MarkBad(f.blockOff); merr != nil {
					return &MarkBadError{Offset: f.blockOff, Cause: err, Err: merr}
				}
				f.stats.BlocksMarkedBad++
				continue
			}
		}

		// Only the first block can begin mid-block; rewound and
		// skipped-over blocks always restart from their first page.
		startPage := 0
		if f.config.Start > f.blockOff {
			startPage = int((f.config.Start - f.blockOff) / f.info.WriteSize)
		}

		if !f.config.Write {
			// Erase works on whole blocks: account the block's span
			// from the start page onward and move on.
			f.bytesDone += f.info.EraseSize - int64(startPage)*f.info.WriteSize
			f.reportProgress(PhaseErasing)
			continue
		}

		// A rewound buffer still holds the bytes that belong in this
		// slot; refilling would lose them.
		if !rewind {
			if err := f.fillBlockBuf(); err != nil {
				return err
			}
		}

		writePages := f.blockPages
		if f.config.UBI {
			writePages = f.blockPages - f.countTrailingFFPages()
			if writePages != f.blockPages {
				f.logDebug("skipping trailing all-FF pages",
					"offset", hex(f.blockOff), "pages", f.blockPages-writePages)
			}
		}

		rewind = false
		skippedFF := 0
		for pageNum := startPage; pageNum < f.blockPages; pageNum++ {
			if end := f.blockOff + int64(pageNum+1)*f.info.WriteSize; end > f.maxOff {
				return &NoSpaceError{Op: "writing next page", End: end, Limit: f.maxOff}
			}

			var err error
			if pageNum >= writePages {
				skippedFF++
			} else {
				err = f.writePage(pageNum)
			}
			if err != nil {
				f.logError("page write failed",
					"offset", hex(f.blockOff+int64(pageNum)*f.info.WriteSize),
					"page", pageNum, "error", err)
				if f.config.FailBad {
					return &BadBlockError{Offset: f.blockOff, Err: err}
				}
				// Best effort: clear the partial block before marking
				// it. If even that fails the mark below decides.
				if eerr := f.dev.Erase(f.blockOff); eerr != nil {
					f.logError("erase of failed block failed", "offset", hex(f.blockOff), "error", eerr)
				}
				if merr := f.dev.MarkBad(f.blockOff); merr != nil {
					return &MarkBadError{Offset: f.blockOff, Cause: err, Err: merr}
				}
				f.logInfo("marked block bad, rewinding", "offset", hex(f.blockOff))
				f.stats.BlocksMarkedBad++
				rewind = true
				break
			}

			f.blockBytesDone += f.info.WriteSize
			if f.bytesDone+f.blockBytesDone >= f.length {
				break
			}
		}

		// Progress commits only when the block went through; a rewound
		// block contributes nothing and its bytes are retried.
		if !rewind {
			f.bytesDone += f.blockBytesDone
			f.stats.PagesSkippedFF += skippedFF
			f.reportProgress(PhaseWriting)
		}
	}

	f.stats.BytesDone = f.bytesDone
	f.reportProgress(PhaseComplete)
	f.logInfo("run complete",
		"bytes", f.bytesDone,
		"blocks_skipped_bad", f.stats.BlocksSkippedBad,
		"blocks_marked_bad", f.stats.BlocksMarkedBad,
		"pages_skipped_ff", f.stats.PagesSkippedFF,
	)
	return nil
}

// setup validates the configuration against the device geometry and
// prepares the run state. Nothing on the device is modified here; the
// only device interactions are the geometry query and, for ECC writes,
// switching to raw mode.
func (f *Flasher) setup(img Image) error {
	f.info = f.dev.Info()
	f.img = img
	f.bytesDone = 0
	f.blockBytesDone = 0
	f.stats = Stats{}
	f.startTime = time.Now()

	config := &f.config
	if !config.Write && !config.Erase {
		return &ConfigError{Reason: "nothing to do: enable write, erase or both"}
	}
	switch config.Layout {
	case 0, nandecc.LayoutLegacy, nandecc.LayoutDM365RBL:
	default:
		return &ConfigError{Reason: fmt.Sprintf("unknown layout %d", int(config.Layout))}
	}

	// The ECC formats and their geometry assumptions are fixed; rule
	// out devices they were never meant for.
	if f.info.OOBSize != nandecc.OOBSize {
		return &ConfigError{Reason: fmt.Sprintf("OOB size %d not supported, want %d", f.info.OOBSize, nandecc.OOBSize)}
	}
	if f.info.WriteSize != nandecc.PageSize {
		return &ConfigError{Reason: fmt.Sprintf("page size %d not supported, want %d", f.info.WriteSize, nandecc.PageSize)}
	}
	if f.info.EraseSize <= 0 || f.info.EraseSize&(f.info.EraseSize-1) != 0 {
		return &ConfigError{Reason: fmt.Sprintf("eraseblock size %d is not a power of two", f.info.EraseSize)}
	}

	if config.Start < 0 {
		return &ConfigError{Reason: "start offset is required"}
	}
	if config.Start&(f.info.WriteSize-1) != 0 {
		return &ConfigError{Reason: fmt.Sprintf("start offset 0x%X not aligned to page size 0x%X", config.Start, f.info.WriteSize)}
	}

	f.length = config.Length
	if config.Write {
		if img == nil {
			return &ConfigError{Reason: "write mode requires an image"}
		}
		if size := img.Size(); size >= 0 {
			if f.length < 0 {
				f.length = size
			} else if f.length > size {
				return &ConfigError{Reason: fmt.Sprintf("image has %d bytes, less than requested length %d", size, f.length)}
			}
		}
	}
	if f.length < 0 {
		if config.Write {
			return &ConfigError{Reason: "length is required when the image size is unknown"}
		}
		return &ConfigError{Reason: "length is required when not writing"}
	}

	f.blockPages = f.info.PagesPerBlock()

	f.maxOff = config.MaxOff
	if f.maxOff < 0 {
		f.maxOff = f.info.Size
	} else if f.maxOff > f.info.Size {
		f.maxOff = f.info.Size
		f.logInfo("max offset truncated to device size", "maxoff", hex(f.maxOff))
	}

	// Check the best case up front: even with zero bad blocks the
	// request has to fit.
	reqPages := (f.length-1)/f.info.WriteSize + 1
	if need := reqPages * f.info.WriteSize; need > f.info.Size-config.Start {
		return &NoSpaceError{Op: "requested range", End: config.Start + need, Limit: f.info.Size}
	}
	if need := reqPages * f.info.WriteSize; need > f.maxOff-config.Start {
		return &NoSpaceError{Op: "requested range", End: config.Start + need, Limit: f.maxOff}
	}

	if config.Write {
		if f.ecc() {
			if err := f.dev.SetRawMode(true); err != nil {
				return fmt.Errorf("entering raw mode: %w", err)
			}
			if f.codec == nil {
				f.codec = nandecc.NewCodec()
			}
		}
		if need := f.info.WriteSize * int64(f.blockPages); int64(len(f.blockBuf)) != need {
			f.blockBuf = make([]byte, need)
		}
	}
	return nil
}

// fillBlockBuf refills the eraseblock buffer from the image. Bytes
// before the start offset (first block only) and past the requested
// length (last block only) are padded with the erased value.
func (f *Flasher) fillBlockBuf() error {
	bufStart := int64(0)
	if f.config.Start > f.blockOff {
		bufStart = f.config.Start - f.blockOff
		fillFF(f.blockBuf[:bufStart])
	}

	bufEnd := int64(len(f.blockBuf))
	if remaining := f.length - f.bytesDone; bufStart+remaining < bufEnd {
		bufEnd = bufStart + remaining
		fillFF(f.blockBuf[bufEnd:])
	}

	f.logDebug("reading image", "bytes", bufEnd-bufStart)
	if _, err := io.ReadFull(f.img, f.blockBuf[bufStart:bufEnd]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("unexpected end of image: %w", err)
		}
		return fmt.Errorf("reading image: %w", err)
	}
	return nil
}

// countTrailingFFPages returns how many whole pages at the end of the
// block buffer consist entirely of 0xFF. NAND reads erased pages as
// 0xFF anyway, and UBI relies on such pages staying unprogrammed.
func (f *Flasher) countTrailingFFPages() int {
	ffs := 0
	for ffs < len(f.blockBuf) && f.blockBuf[len(f.blockBuf)-1-ffs] == 0xFF {
		ffs++
	}
	return ffs / int(f.info.WriteSize)
}

// writePage formats and writes one page of the block buffer. With ECC
// enabled the raw page goes out as two device operations: in-band data
// first, then the OOB bytes.
func (f *Flasher) writePage(pageNum int) error {
	pageOff := f.blockOff + int64(pageNum)*f.info.WriteSize
	src := f.blockBuf[int64(pageNum)*f.info.WriteSize : int64(pageNum+1)*f.info.WriteSize]

	out := src
	if f.ecc() {
		raw, err := f.codec.FormatPage(f.config.Layout, src)
		if err != nil {
			return err
		}
		out = raw
	}

	if err := f.dev.WritePage(pageOff, out[:f.info.WriteSize]); err != nil {
		return err
	}
	if f.ecc() {
		if err := f.dev.WriteOOB(pageOff, out[f.info.WriteSize:]); err != nil {
			return err
		}
	}
	return nil
}

// reportProgress invokes the progress callback, if any.
func (f *Flasher) reportProgress(phase string) {
	if f.config.ProgressCallback == nil {
		return
	}

	percentage := 100.0
	if f.length > 0 {
		percentage = float64(f.bytesDone) / float64(f.length) * 100
		if percentage > 100 {
			percentage = 100
		}
	}

	f.config.ProgressCallback(Progress{
		Phase:       phase,
		BlockOffset: f.blockOff,
		BytesDone:   f.bytesDone,
		TotalBytes:  f.length,
		Percentage:  percentage,
		ElapsedTime: time.Since(f.startTime),
	})
}

// fillFF sets every byte of b to the NAND erased value.
func fillFF(b []byte) {
	for i := range b {
		b[i] = 0xFF
	}
}

// hex formats an offset the way the rest of the tooling prints them.
func hex(off int64) string {
	return fmt.Sprintf("0x%X", off)
}

// logDebug logs at debug level if a logger is set.
func (f *Flasher) logDebug(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs at info level if a logger is set.
func (f *Flasher) logInfo(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs at error level if a logger is set.
func (f *Flasher) logError(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Error(msg, keysAndValues...)
	}
}
