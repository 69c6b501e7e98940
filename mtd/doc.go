// Package mtd accesses raw NAND flash partitions through the Linux MTD
// character device interface.
//
// Open returns a Dev backed by ioctls on /dev/mtdX; a bare "mtdX"
// argument is expanded to the device path. The Device interface covers
// the operations a flash writer needs: geometry, raw mode switching,
// block erase, page and OOB writes, and bad block queries and marking.
//
// For tests and examples the package also provides MemDevice, an
// in-memory simulation with NAND-like semantics: erased bytes read
// 0xFF, programming only clears bits, and failures can be injected per
// offset to exercise bad block handling.
package mtd
