package transport

// MAX30102 register map
const (
	RegIntStatus1  = 0x00
	RegIntStatus2  = 0x01
	RegIntEnable1  = 0x02
	RegIntEnable2  = 0x03
	RegFIFOWrPtr   = 0x04
	RegOverflowCtr = 0x05
	RegFIFORdPtr   = 0x06
	RegFIFOData    = 0x07
	RegFIFOConf    = 0x08
	RegModeConf    = 0x09
	RegSpO2Conf    = 0x0A
	RegLED1PA      = 0x0C
	RegLED2PA      = 0x0D
	RegPilotPA     = 0x10
	RegMultiLED1   = 0x11
	RegMultiLED2   = 0x12
	RegTempInt     = 0x1F
	RegTempFrac    = 0x20
	RegTempConf    = 0x21
	RegProxIntTh   = 0x30
	RegRevID       = 0xFE
	RegPartID      = 0xFF
)

const (
	DefaultAddress = 0x57
	PartID         = 0x15 // MAX30102 part magic

	modeReset = 0x40
	modeHR    = 0x02

	// sample averaging of 4, almost-full at 15 remaining
	fifoConf = 0x4F
	// 4096nA range, 400 sps, 411us pulse width
	spo2Conf = 0x27
	ledPA    = 0x3F
	pilotPA  = 0x7F
	intA     = 0xC0 // A_FULL and PPG_RDY

	fifoSampleBytes = 6 // 3 bytes per LED, two LEDs
)

// regWrite is one step of the bring-up sequence
type regWrite struct {
	Reg, Val uint8
}

// bringUp is the write sequence that puts the part in heart rate mode
var bringUp = []regWrite{
	{RegModeConf, modeReset},
	{RegIntEnable1, intA},
	{RegIntEnable2, 0},
	{RegFIFOWrPtr, 0},
	{RegOverflowCtr, 0},
	{RegFIFORdPtr, 0},
	{RegFIFOConf, fifoConf},
	{RegModeConf, modeHR},
	{RegSpO2Conf, spo2Conf},
	{RegLED1PA, ledPA},
	{RegLED2PA, ledPA},
	{RegPilotPA, pilotPA},
}
