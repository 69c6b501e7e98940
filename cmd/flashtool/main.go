// Command flashtool erases and writes MTD NAND flash partitions,
// skipping and marking bad blocks, with optional software ECC layouts
// for boot ROM compatibility.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/jonpovey/flashtool/flasher"
	"github.com/jonpovey/flashtool/imagefile"
	"github.com/jonpovey/flashtool/mtd"
	"github.com/jonpovey/flashtool/nandecc"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &options{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "flashtool: %v\n", err)
		return flasher.ExitCode(err)
	}
	return flasher.ExitOK
}

// options holds the raw command line flag values. Offsets arrive as
// strings so they can be given in decimal or 0x hex.
type options struct {
	write     bool
	erase     bool
	startStr  string
	lengthStr string
	maxOffStr string
	failBad   bool
	legacy    bool
	dm365RBL  bool
	ubi       bool
	quiet     bool
	verbose   bool

	// filled in by resolve
	start  int64
	length int64
	maxOff int64
	layout nandecc.Layout
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flashtool [flags] mtd-device [image-file]",
		Short: "erase/write MTD NAND flash",
		Long: `flashtool erases and writes MTD NAND flash partitions.

Bad blocks are skipped and data lands in the following good blocks;
blocks that fail to erase or write are marked bad and the write is
retried on the next good block. The legacy and DM365 RBL modes generate
software ECC and program pages raw, matching what the boot ROM expects.

  mtd-device   Target MTD partition in mtdX or /dev/mtdX format
  image-file   Source data if writing; .hex and .zst are unpacked,
               "-" reads from stdin`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return flash(cmd.Context(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.write, "write", "w", false, "write image-file")
	flags.BoolVarP(&opts.erase, "erase", "e", false, "erase blocks; with -w, erase-before-write")
	flags.StringVarP(&opts.startStr, "start", "s", "", "offset from partition start, in bytes")
	flags.StringVarP(&opts.lengthStr, "length", "l", "", "in bytes, else input file length is used")
	flags.StringVar(&opts.maxOffStr, "maxoff", "", "do not go above this absolute offset")
	flags.BoolVar(&opts.failBad, "failbad", false, "fail if any bad block is found")
	flags.BoolVar(&opts.legacy, "legacy", false, "write legacy infix OOB layout")
	flags.BoolVar(&opts.dm365RBL, "dm365-rbl", false, "write DM365 RBL compatible OOB layout")
	flags.BoolVar(&opts.ubi, "ubi", false, "UBI writing: per block, skip trailing all-FF pages")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors, no progress bar")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

// resolve validates the flag combination and parses the numeric
// arguments. It runs before the device is opened, so any error here
// leaves the flash untouched.
func (o *options) resolve(args []string) error {
	if !o.write && !o.erase {
		return errors.New("must set either -w or -e")
	}
	if o.write && len(args) < 2 {
		return errors.New("must supply an image file with -w")
	}
	if !o.write && len(args) > 1 {
		return errors.New("image file given without -w")
	}
	if o.legacy && o.dm365RBL {
		return errors.New("legacy and dm365-rbl modes are mutually exclusive")
	}
	switch {
	case o.legacy:
		o.layout = nandecc.LayoutLegacy
	case o.dm365RBL:
		o.layout = nandecc.LayoutDM365RBL
	}

	if o.startStr == "" {
		return errors.New("must supply a start offset with -s")
	}

	var err error
	if o.start, err = parseOffset(o.startStr); err != nil {
		return fmt.Errorf("bad start offset %q: %w", o.startStr, err)
	}
	o.length = -1
	if o.lengthStr != "" {
		if o.length, err = parseOffset(o.lengthStr); err != nil {
			return fmt.Errorf("bad length %q: %w", o.lengthStr, err)
		}
	}
	o.maxOff = -1
	if o.maxOffStr != "" {
		if o.maxOff, err = parseOffset(o.maxOffStr); err != nil {
			return fmt.Errorf("bad max offset %q: %w", o.maxOffStr, err)
		}
	}
	return nil
}

// parseOffset parses a byte offset in decimal, 0x hex or 0 octal form.
func parseOffset(s string) (int64, error) {
	return strconv.ParseInt(s, 0, 64)
}

func flash(ctx context.Context, opts *options, args []string) error {
	if err := opts.resolve(args); err != nil {
		return err
	}
	logger := newLogger(opts)

	dev, err := mtd.Open(args[0])
	if err != nil {
		return err
	}
	defer dev.Close()

	info := dev.Info()
	logger.Info("opened device",
		"path", mtd.DevicePath(args[0]),
		"size", hex(info.Size),
		"erasesize", hex(info.EraseSize),
		"writesize", hex(info.WriteSize),
		"oobsize", info.OOBSize,
	)

	var img *imagefile.Source
	if opts.write {
		img, err = imagefile.Open(args[1])
		if err != nil {
			return err
		}
		defer img.Close()
		logger.Info("opened image", "name", img.Name(), "size", img.Size())
	}

	fopts := []flasher.Option{
		flasher.WithStart(opts.start),
		flasher.WithErase(opts.erase),
		flasher.WithWrite(opts.write),
		flasher.WithFailBad(opts.failBad),
		flasher.WithUBI(opts.ubi),
		flasher.WithLogger(slogAdapter{logger}),
	}
	if opts.layout != 0 {
		fopts = append(fopts, flasher.WithLayout(opts.layout))
	}
	if opts.length >= 0 {
		fopts = append(fopts, flasher.WithLength(opts.length))
	}
	if opts.maxOff >= 0 {
		fopts = append(fopts, flasher.WithMaxOffset(opts.maxOff))
	}
	if !opts.quiet {
		fopts = append(fopts, flasher.WithProgressCallback(progressBar()))
	}

	fl := flasher.New(dev, fopts...)

	// A nil *Source must not become a non-nil Image interface.
	var payload flasher.Image
	if img != nil {
		payload = img
	}
	if err := fl.Run(ctx, payload); err != nil {
		return err
	}

	stats := fl.Stats()
	logger.Info("finished",
		"bytes", stats.BytesDone,
		"blocks_skipped_bad", stats.BlocksSkippedBad,
		"blocks_marked_bad", stats.BlocksMarkedBad,
		"pages_skipped_ff", stats.PagesSkippedFF,
	)
	if !opts.quiet {
		green := color.New(color.FgGreen)
		if img != nil {
			green.Fprintf(os.Stderr, "OK: %d bytes written, image CRC16 0x%04X\n", stats.BytesDone, img.CRC16())
		} else {
			green.Fprintf(os.Stderr, "OK: %d bytes erased\n", stats.BytesDone)
		}
	}
	return nil
}

// newLogger builds the stderr logger: error-only when quiet, debug when
// verbose, info otherwise.
func newLogger(opts *options) *slog.Logger {
	level := slog.LevelInfo
	if opts.quiet {
		level = slog.LevelError
	}
	if opts.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// slogAdapter exposes a slog.Logger through the flasher.Logger
// interface.
type slogAdapter struct {
	l *slog.Logger
}

func (s slogAdapter) Debug(msg string, keysAndValues ...interface{}) {
	s.l.Debug(msg, keysAndValues...)
}

func (s slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	s.l.Info(msg, keysAndValues...)
}

func (s slogAdapter) Error(msg string, keysAndValues ...interface{}) {
	s.l.Error(msg, keysAndValues...)
}

// progressBar returns a callback driving a terminal progress bar. The
// bar is created on the first report, once the total is known.
func progressBar() flasher.ProgressCallback {
	var bar *pb.ProgressBar
	return func(p flasher.Progress) {
		if bar == nil {
			if p.TotalBytes <= 0 {
				return
			}
			bar = pb.New64(p.TotalBytes)
			bar.SetUnits(pb.U_BYTES)
			bar.Output = os.Stderr
			bar.ManualUpdate = true
			bar.Start()
		}

		// Erase-only runs account whole blocks and can pass the total.
		done := p.BytesDone
		if done > p.TotalBytes {
			done = p.TotalBytes
		}
		bar.Set64(done)
		bar.Update()

		if p.Phase == flasher.PhaseComplete {
			bar.Finish()
		}
	}
}

func hex(v int64) string {
	return fmt.Sprintf("0x%X", v)
}
