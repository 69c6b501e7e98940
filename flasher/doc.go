// Package flasher erases and writes NAND flash partitions, skipping and
// managing bad blocks and optionally generating software Reed-Solomon
// ECC in the layouts the DaVinci boot ROMs expect.
//
// # Basic Usage
//
// Open a device, create a Flasher with options, and run it:
//
//	dev, err := mtd.Open("mtd0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
//	img, err := imagefile.Open("u-boot.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer img.Close()
//
//	fl := flasher.New(dev,
//	    flasher.WithStart(0),
//	    flasher.WithErase(true),
//	    flasher.WithWrite(true),
//	    flasher.WithLayout(nandecc.LayoutLegacy),
//	)
//	if err := fl.Run(context.Background(), img); err != nil {
//	    os.Exit(flasher.ExitCode(err))
//	}
//
// # Bad Block Handling
//
// Blocks already marked bad are skipped; the payload simply lands in
// the following good blocks, which is how Linux MTD consumers expect
// NAND content to be laid out. A block that fails to erase or write is
// marked bad, and the write engine rewinds: the block buffer is not
// refilled, so the same payload bytes are retried in the next good
// block. Failing to mark a block bad aborts the run, because the block
// would otherwise read as good on the next pass.
//
// Strict mode (WithFailBad) turns any bad block into an immediate
// abort. It exists for regions the boot ROM reads from fixed offsets,
// where skipping would produce an unbootable part.
//
// # Range Limits
//
// The run is bounded by WithStart, WithLength and WithMaxOffset. Bounds
// are enforced proactively: the engine checks before each erase and
// each page write that the operation stays below the limit, so nothing
// past it is ever touched, and the overall request is validated against
// it before anything happens at all.
//
// # ECC Layouts
//
// With a layout selected, the device is switched to raw access and
// every page goes out with per-subpage Reed-Solomon ECC computed in
// software; see package nandecc for the layouts. Without one the
// device's own ECC path applies.
//
// # Outcomes
//
// Run returns nil, *BadBlockError, *NoSpaceError, *ConfigError or a
// generic error. ExitCode maps these to the conventional exit statuses
// 0, 2, 3 and 1, so scripted callers can tell "ran out of good blocks"
// from "broken invocation".
package flasher
