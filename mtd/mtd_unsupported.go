//go:build !linux

package mtd

import "errors"

var errUnsupported = errors.New("mtd: device access requires linux")

// Dev is an MTD partition opened through its character device. Real
// device access is only implemented on Linux; on other platforms Open
// always fails and Dev exists so callers still compile.
type Dev struct{}

// Open fails on platforms without MTD support.
func Open(path string) (*Dev, error) {
	return nil, errUnsupported
}

func (d *Dev) Info() Info                             { return Info{} }
func (d *Dev) Close() error                           { return nil }
func (d *Dev) SetRawMode(enable bool) error           { return errUnsupported }
func (d *Dev) Erase(off int64) error                  { return errUnsupported }
func (d *Dev) WritePage(off int64, page []byte) error { return errUnsupported }
func (d *Dev) WriteOOB(off int64, oob []byte) error   { return errUnsupported }
func (d *Dev) IsBad(off int64) (bool, error)          { return false, errUnsupported }
func (d *Dev) MarkBad(off int64) error                { return errUnsupported }
