package transport

import (
	"errors"
	"testing"
)

// fakeBus is an in-memory register file for one device
type fakeBus struct {
	regs   map[uint8]uint8
	fifo   []byte
	writes []regWrite
	txErr  error
	addrs  map[uint16]int
}

func newFakeBus(part uint8) *fakeBus {
	return &fakeBus{
		regs:  map[uint8]uint8{RegRevID: 0x03, RegPartID: part},
		fifo:  []byte{0xFD, 0x12, 0x34, 0x00, 0x00, 0x00},
		addrs: map[uint16]int{},
	}
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if f.txErr != nil {
		return f.txErr
	}
	f.addrs[addr]++
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	if len(w) == 2 {
		f.writes = append(f.writes, regWrite{reg, w[1]})
		f.regs[reg] = w[1]
	}
	if len(r) > 0 {
		if reg == RegFIFOData {
			copy(r, f.fifo)
		} else {
			r[0] = f.regs[reg]
		}
	}
	return nil
}

func (f *fakeBus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return f.Tx(uint16(addr), []byte{reg}, buf)
}

func (f *fakeBus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return f.Tx(uint16(addr), append([]byte{reg}, buf...), nil)
}

func TestMAX30102_Init(t *testing.T) {
	t.Run("Runs the bring-up sequence in order", func(t *testing.T) {
		bus := newFakeBus(PartID)
		d := NewMAX30102(bus, 0)

		ok, err := d.Init()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Errorf("identity should match")
		}
		if len(bus.writes) != len(bringUp) {
			t.Fatalf("got %d writes, want %d", len(bus.writes), len(bringUp))
		}
		for i, w := range bringUp {
			if bus.writes[i] != w {
				t.Errorf("write %d = %+v, want %+v", i, bus.writes[i], w)
			}
		}

		// first reset, ends in HR mode
		if bus.writes[0].Reg != RegModeConf || bus.writes[0].Val != 0x40 {
			t.Errorf("first write should reset the part, got %+v", bus.writes[0])
		}
		if bus.regs[RegModeConf] != 0x02 {
			t.Errorf("mode = 0x%02X, want HR mode", bus.regs[RegModeConf])
		}
		if bus.regs[RegFIFOConf] != 0x4F || bus.regs[RegSpO2Conf] != 0x27 {
			t.Errorf("fifo/spo2 config not applied")
		}
		if d.RevID != 0x03 || d.PartID != PartID {
			t.Errorf("identity = %d/%d", d.RevID, d.PartID)
		}
		if bus.addrs[DefaultAddress] == 0 {
			t.Errorf("default address not used")
		}
	})

	t.Run("Wrong part is not an error but not ok", func(t *testing.T) {
		d := NewMAX30102(newFakeBus(0x11), DefaultAddress)
		ok, err := d.Init()
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Errorf("MAX30100 part id should not pass")
		}
	})

	t.Run("Bus errors are wrapped", func(t *testing.T) {
		busErr := errors.New("nack")
		bus := newFakeBus(PartID)
		bus.txErr = busErr
		_, err := NewMAX30102(bus, DefaultAddress).Init()
		if !errors.Is(err, busErr) {
			t.Errorf("got %v, want wrapped %v", err, busErr)
		}
	})
}

func TestMAX30102_ReadFIFO(t *testing.T) {
	bus := newFakeBus(PartID)
	d := NewMAX30102(bus, DefaultAddress)

	got, err := d.ReadFIFO()
	if err != nil {
		t.Fatal(err)
	}
	// top six bits of the first byte are masked off
	if got != 0x011234 {
		t.Errorf("ReadFIFO() = 0x%X, want 0x011234", got)
	}

	bus.txErr = errors.New("bus busy")
	if _, err := d.ReadFIFO(); err == nil {
		t.Errorf("expected an error")
	}
}

func TestFIFOValue(t *testing.T) {
	tests := []struct {
		in   []byte
		want uint32
	}{
		{[]byte{0x00, 0x00, 0x00}, 0},
		{[]byte{0x03, 0xFF, 0xFF}, 1<<18 - 1},
		{[]byte{0xFF, 0x00, 0x01}, 0x030001},
		{[]byte{0x01}, 0},
	}
	for _, tt := range tests {
		if got := FIFOValue(tt.in); got != tt.want {
			t.Errorf("FIFOValue(%v) = 0x%X, want 0x%X", tt.in, got, tt.want)
		}
	}
}
