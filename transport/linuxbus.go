//go:build linux

package transport

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// I2C_SLAVE from linux/i2c-dev.h
const i2cSlave = 0x0703

// LinuxBus talks to /dev/i2c-N through the i2c-dev interface
type LinuxBus struct {
	MU   sync.Mutex
	File *os.File
	addr uint16
}

func OpenLinuxBus(device string) (*LinuxBus, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	return &LinuxBus{File: f}, nil
}

// Tx writes w then reads len(r) bytes from the device at addr
func (b *LinuxBus) Tx(addr uint16, w, r []byte) error {
	b.MU.Lock()
	defer b.MU.Unlock()

	if err := b.setAddr(addr); err != nil {
		return err
	}
	if len(w) > 0 {
		if _, err := b.File.Write(w); err != nil {
			return fmt.Errorf("i2c write: %w", err)
		}
	}
	if len(r) > 0 {
		if _, err := b.File.Read(r); err != nil {
			return fmt.Errorf("i2c read: %w", err)
		}
	}
	return nil
}

func (b *LinuxBus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{reg}, buf)
}

func (b *LinuxBus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), append([]byte{reg}, buf...), nil)
}

func (b *LinuxBus) Close() error {
	b.MU.Lock()
	defer b.MU.Unlock()
	return b.File.Close()
}

// setAddr must be called with MU held
func (b *LinuxBus) setAddr(addr uint16) error {
	if b.addr == addr {
		return nil
	}
	if err := unix.IoctlSetInt(int(b.File.Fd()), i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("i2c set address 0x%02X: %w", addr, err)
	}
	b.addr = addr
	return nil
}
