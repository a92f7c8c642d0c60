package transport

import (
	"fmt"
	"log/slog"

	"tinygo.org/x/drivers"
)

// MAX30102 is a pulse oximeter on an I2C bus
type MAX30102 struct {
	Bus     drivers.I2C
	Address uint16
	RevID   uint8
	PartID  uint8
}

func NewMAX30102(bus drivers.I2C, addr uint16) *MAX30102 {
	if addr == 0 {
		addr = DefaultAddress
	}
	return &MAX30102{
		Bus:     bus,
		Address: addr,
	}
}

// Init resets the part, configures heart rate mode, and reads back its identity.
// ok is false when the part register does not hold the MAX30102 magic.
func (d *MAX30102) Init() (bool, error) {
	for _, w := range bringUp {
		if err := d.writeReg(w.Reg, w.Val); err != nil {
			return false, fmt.Errorf("write reg 0x%02X: %w", w.Reg, err)
		}
	}

	rev, err := d.readReg(RegRevID)
	if err != nil {
		return false, fmt.Errorf("read revision: %w", err)
	}
	part, err := d.readReg(RegPartID)
	if err != nil {
		return false, fmt.Errorf("read part id: %w", err)
	}
	d.RevID, d.PartID = rev, part

	slog.Info("MAX30102 identity",
		slog.Int("rev", int(rev)),
		slog.Int("part", int(part)),
		slog.Int("addr", int(d.Address)))

	return part == PartID, nil
}

// ReadFIFO pulls one sample from the FIFO and returns the 18-bit
// intensity of the first LED
func (d *MAX30102) ReadFIFO() (uint32, error) {
	buf := make([]byte, fifoSampleBytes)
	if err := d.Bus.Tx(d.Address, []byte{RegFIFOData}, buf); err != nil {
		return 0, fmt.Errorf("read fifo: %w", err)
	}
	return FIFOValue(buf), nil
}

// FIFOValue reconstructs an 18-bit sample from the first three FIFO bytes
func FIFOValue(b []byte) uint32 {
	if len(b) < 3 {
		return 0
	}
	return uint32(b[0]&0x03)<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func (d *MAX30102) readReg(reg uint8) (uint8, error) {
	buf := []byte{0}
	if err := d.Bus.Tx(d.Address, []byte{reg}, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (d *MAX30102) writeReg(reg, val uint8) error {
	return d.Bus.Tx(d.Address, []byte{reg, val}, nil)
}
