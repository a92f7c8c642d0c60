package pulsemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	Pp "github.com/maroda/pulsemon/plugin"
)

// Config is everything needed to build and run a Monitor
type Config struct {
	Backend    string       `json:"backend"`   // "simulator" or "sensor"
	Transport  string       `json:"transport"` // sensor bus: "i2c" or "synth"
	I2CDevice  string       `json:"i2c_device"`
	I2CAddr    uint16       `json:"i2c_addr"`
	TickMillis int          `json:"tick_ms"`
	WebAddr    string       `json:"web_addr"` // empty disables the web server
	Thresholds Thresholds   `json:"thresholds"`
	Sensor     SensorConfig `json:"sensor"`
	Simulator  SimConfig    `json:"simulator"`
	Outputs    Pp.Settings  `json:"outputs"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend:    "simulator",
		Transport:  "synth",
		I2CDevice:  "/dev/i2c-1",
		I2CAddr:    0x57,
		TickMillis: 1000,
		WebAddr:    ":8090",
		Thresholds: DefaultThresholds(),
		Sensor:     DefaultSensorConfig(),
		Simulator:  DefaultSimConfig(),
		Outputs: Pp.Settings{
			BadgerPath:   "pulsemon.db",
			BadgerBatch:  16,
			NATSURL:      "nats://127.0.0.1:4222",
			NATSSubject:  "pulsemon.readings",
			MQTTBroker:   "127.0.0.1:1883",
			MQTTTopic:    "pulsemon/readings",
			MIDIRoot:     60,
			SerialDevice: "-",
		},
	}
}

// TickPeriod is the monitor cycle as a Duration
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

// Validate rejects configs the monitor cannot run with
func (c *Config) Validate() error {
	if _, ok := Backends[c.Backend]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Backend)
	}
	if c.Backend == "sensor" && c.Transport != "i2c" && c.Transport != "synth" {
		return fmt.Errorf("unknown sensor transport: %s", c.Transport)
	}
	if c.TickMillis <= 0 {
		return fmt.Errorf("tick_ms must be positive, got %d", c.TickMillis)
	}
	if c.Thresholds.Low >= c.Thresholds.High {
		return fmt.Errorf("low threshold %.0f must be below high %.0f",
			c.Thresholds.Low, c.Thresholds.High)
	}
	if c.Sensor.SamplingRate <= 0 {
		return errors.New("sensor sampling_rate must be positive")
	}
	if c.Simulator.MinHB >= c.Simulator.MaxHB {
		return errors.New("simulator min_hb must be below max_hb")
	}
	if c.Simulator.MaxSeconds <= 0 {
		return errors.New("simulator max_seconds must be positive")
	}
	if c.Simulator.MaxHB > math.MaxUint8 {
		return fmt.Errorf("simulator max_hb %.0f does not fit a sample", c.Simulator.MaxHB)
	}
	if c.Sensor.HighBPM > math.MaxUint8 {
		return fmt.Errorf("sensor high_bpm %.0f does not fit a sample", c.Sensor.HighBPM)
	}
	if len(c.Simulator.ATerms) == 0 {
		return errors.New("simulator a_terms is empty")
	}
	for _, a := range c.Simulator.ATerms {
		if a <= 0 {
			return fmt.Errorf("simulator a_terms must be positive, got %g", a)
		}
	}
	for _, name := range c.Outputs.Enabled {
		if _, ok := Pp.Outputs[name]; !ok {
			return fmt.Errorf("unknown output: %s", name)
		}
	}
	return nil
}

// ApplyEnv overrides config values with PULSEMON_* environment variables
func (c *Config) ApplyEnv() {
	if v := FillEnvVar("PULSEMON_BACKEND"); v != "ENOENT" {
		c.Backend = v
	}
	if v := FillEnvVar("PULSEMON_TRANSPORT"); v != "ENOENT" {
		c.Transport = v
	}
	if v := FillEnvVar("PULSEMON_I2C_DEVICE"); v != "ENOENT" {
		c.I2CDevice = v
	}
	if v := FillEnvVar("PULSEMON_WEB_ADDR"); v != "ENOENT" {
		c.WebAddr = v
	}
	if v := FillEnvVar("PULSEMON_BADGER_PATH"); v != "ENOENT" {
		c.Outputs.BadgerPath = v
	}
	if v := FillEnvVar("PULSEMON_NATS_URL"); v != "ENOENT" {
		c.Outputs.NATSURL = v
	}
	if v := FillEnvVar("PULSEMON_MQTT_BROKER"); v != "ENOENT" {
		c.Outputs.MQTTBroker = v
	}
	c.I2CAddr = uint16(FillEnvVarInt("PULSEMON_I2C_ADDR", int(c.I2CAddr)))
	c.TickMillis = FillEnvVarInt("PULSEMON_TICK_MS", c.TickMillis)
	c.Outputs.MIDIPort = FillEnvVarInt("PULSEMON_MIDI_PORT", c.Outputs.MIDIPort)
	c.Thresholds.High = FillEnvVarFloat("PULSEMON_HIGH", c.Thresholds.High)
	c.Thresholds.Low = FillEnvVarFloat("PULSEMON_LOW", c.Thresholds.Low)
	c.Thresholds.RapidRate = FillEnvVarFloat("PULSEMON_RAPID_RATE", c.Thresholds.RapidRate)
	c.Simulator.Seed = uint64(FillEnvVarInt("PULSEMON_SIM_SEED", int(c.Simulator.Seed)))
}

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("error", err))
		return nil, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

// LoadConfig decodes JSON over DefaultConfig, so absent keys keep their defaults
func LoadConfig(file *os.File) (*Config, error) {
	config := DefaultConfig()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		slog.Error("could not decode file")
		return nil, fmt.Errorf("decode %s: %w", file.Name(), err)
	}

	return config, nil
}
