//go:build !linux

package transport

import "os"

const DefaultBaud = 38400

// SetRaw is a no-op off linux, the device is read as configured
func SetRaw(f *os.File, baud int) error { return nil }
