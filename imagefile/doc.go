// Package imagefile opens firmware images for writing to flash.
//
// Open dispatches on the path: "-" streams from standard input, .hex
// files are decoded from Intel HEX into a contiguous image, .zst files
// are decompressed, and anything else is read as plain binary. Every
// Source keeps a running CRC-16/XMODEM over the bytes actually read,
// so the checksum reported after a write covers exactly the payload
// that went to the device.
package imagefile
