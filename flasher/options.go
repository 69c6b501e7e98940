package flasher

import "github.com/jonpovey/flashtool/nandecc"

// Config holds the configuration of a Flasher.
type Config struct {
	// Start is the byte offset of the first page to touch. It must be
	// page-aligned. Negative means unset; a start offset is required.
	Start int64

	// Length is the number of payload bytes to write, or to account
	// for when only erasing. Negative means default to the image size.
	Length int64

	// MaxOff is the exclusive upper bound of the run: no operation may
	// touch this offset or beyond. Negative means the device size;
	// larger values are clamped to it.
	MaxOff int64

	// FailBad makes the run abort on the first bad block instead of
	// skipping it (strict bad-block mode).
	FailBad bool

	// Layout selects ECC generation and the raw page arrangement. The
	// zero value disables ECC; pages are then written verbatim through
	// the kernel's usual path.
	Layout nandecc.Layout

	// UBI skips the trailing all-0xFF pages of each eraseblock so a
	// UBI image can program them itself later.
	UBI bool

	// Erase erases each block before it is written, or on its own when
	// Write is off.
	Erase bool

	// Write writes image data. At least one of Erase and Write must be
	// enabled.
	Write bool

	// Logger receives operational logging (optional)
	Logger Logger

	// ProgressCallback receives per-block progress updates (optional)
	ProgressCallback ProgressCallback
}

// defaultConfig returns the default configuration. Start is
// deliberately invalid: where a run begins is never guessed.
func defaultConfig() Config {
	return Config{
		Start:  -1,
		Length: -1,
		MaxOff: -1,
	}
}

// Option is a functional option for configuring the Flasher.
type Option func(*Config)

// WithStart sets the page-aligned offset of the first page to touch.
// Required.
//
// Example:
//
//	flasher.WithStart(0x60000)
func WithStart(off int64) Option {
	return func(c *Config) {
		c.Start = off
	}
}

// WithLength sets the payload length in bytes. When writing it defaults
// to the image size; erase-only runs must set it.
//
// Example:
//
//	flasher.WithLength(0x200000)
func WithLength(n int64) Option {
	return func(c *Config) {
		c.Length = n
	}
}

// WithMaxOffset sets the exclusive upper offset bound. Useful to keep a
// run with bad block skipping from spilling into a following partition
// image. Defaults to the device size.
//
// Example:
//
//	flasher.WithMaxOffset(0x400000)
func WithMaxOffset(off int64) Option {
	return func(c *Config) {
		c.MaxOff = off
	}
}

// WithFailBad enables strict bad-block mode: any bad block aborts the
// run instead of being skipped. Boot loader regions are the usual
// reason, since the ROM reads them from fixed offsets.
func WithFailBad(fail bool) Option {
	return func(c *Config) {
		c.FailBad = fail
	}
}

// WithLayout selects software ECC generation with the given raw page
// layout. The zero Layout disables ECC.
//
// Example:
//
//	flasher.WithLayout(nandecc.LayoutDM365RBL)
func WithLayout(layout nandecc.Layout) Option {
	return func(c *Config) {
		c.Layout = layout
	}
}

// WithUBI marks the image as UBI: trailing all-0xFF pages of each
// eraseblock are left unwritten so UBI can program them itself.
func WithUBI(enable bool) Option {
	return func(c *Config) {
		c.UBI = enable
	}
}

// WithErase enables erasing each block before use (or alone, without
// writing).
func WithErase(enable bool) Option {
	return func(c *Config) {
		c.Erase = enable
	}
}

// WithWrite enables writing image data.
func WithWrite(enable bool) Option {
	return func(c *Config) {
		c.Write = enable
	}
}

// WithLogger sets the logger for flasher operations.
//
// Example:
//
//	flasher.WithLogger(myLogger)
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithProgressCallback sets a callback invoked after each committed
// eraseblock and once on completion.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}
