//go:build !linux

package transport

import (
	"errors"
	"fmt"
)

var errNoI2CDev = errors.New("i2c-dev is only available on linux")

// LinuxBus is unavailable off linux, OpenLinuxBus always fails
type LinuxBus struct{}

func OpenLinuxBus(device string) (*LinuxBus, error) {
	return nil, fmt.Errorf("open %s: %w", device, errNoI2CDev)
}

func (b *LinuxBus) Tx(addr uint16, w, r []byte) error { return errNoI2CDev }

func (b *LinuxBus) ReadRegister(addr uint8, reg uint8, buf []byte) error { return errNoI2CDev }

func (b *LinuxBus) WriteRegister(addr uint8, reg uint8, buf []byte) error { return errNoI2CDev }

func (b *LinuxBus) Close() error { return nil }
