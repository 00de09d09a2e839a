package sensor

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/Thamike9/MQTT-Sensor/internal/configuration"
	"github.com/Thamike9/MQTT-Sensor/internal/logger"
)

// Reading is one sample. Temperature is in degrees Celsius, Humidity in
// percent relative humidity.
type Reading struct {
	Temperature float64
	Humidity    float64
}

// Sensor produces one Reading per call.
type Sensor interface {
	Read() (Reading, error)
}

const (
	cmdSoftReset = 0xBA
	cmdCalibrate = 0xBE
	cmdMeasure   = 0xAC

	statusBusy       = 0x80
	statusCalibrated = 0x08

	busyPollLimit = 10
)

// txer is the I²C transaction surface. *i2c.Dev satisfies it.
type txer interface {
	Tx(w, r []byte) error
}

// AHT20 drives the sensor over I²C.
type AHT20 struct {
	dev    txer
	bus    i2c.BusCloser
	logger logger.Logger
	sleep  func(time.Duration)
}

// Open initializes the periph host, opens the configured I²C bus and brings
// the sensor out of reset, calibrated and ready to measure. An empty bus
// name selects the first available bus.
func Open(cfg configuration.SensorConfiguration, log logger.Logger) (*AHT20, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}

	s := &AHT20{
		dev:    &i2c.Dev{Bus: bus, Addr: cfg.Address},
		bus:    bus,
		logger: log,
		sleep:  time.Sleep,
	}
	if err := s.init(); err != nil {
		bus.Close()
		return nil, err
	}
	return s, nil
}

func (s *AHT20) init() error {
	if err := s.dev.Tx([]byte{cmdSoftReset}, nil); err != nil {
		return fmt.Errorf("reset sensor: %w", err)
	}
	s.sleep(20 * time.Millisecond)

	if err := s.dev.Tx([]byte{cmdCalibrate, 0x08, 0x00}, nil); err != nil {
		return fmt.Errorf("calibrate sensor: %w", err)
	}
	status, err := s.waitIdle()
	if err != nil {
		return err
	}
	if status&statusCalibrated == 0 {
		return fmt.Errorf("sensor did not calibrate, status 0x%02X", status)
	}
	s.logger.Debug("AHT20 ready, status 0x%02X", status)
	return nil
}

// waitIdle polls the status byte until the busy bit clears.
func (s *AHT20) waitIdle() (byte, error) {
	var status [1]byte
	for i := 0; i < busyPollLimit; i++ {
		if err := s.dev.Tx(nil, status[:]); err != nil {
			return 0, fmt.Errorf("read sensor status: %w", err)
		}
		if status[0]&statusBusy == 0 {
			return status[0], nil
		}
		s.sleep(10 * time.Millisecond)
	}
	return status[0], fmt.Errorf("sensor stuck busy, status 0x%02X", status[0])
}

// Read triggers one measurement and converts the raw counts.
func (s *AHT20) Read() (Reading, error) {
	if err := s.dev.Tx([]byte{cmdMeasure, 0x33, 0x00}, nil); err != nil {
		return Reading{}, fmt.Errorf("trigger measurement: %w", err)
	}
	s.sleep(80 * time.Millisecond)
	if _, err := s.waitIdle(); err != nil {
		return Reading{}, err
	}

	var data [6]byte
	if err := s.dev.Tx(nil, data[:]); err != nil {
		return Reading{}, fmt.Errorf("read measurement: %w", err)
	}
	return convert(data), nil
}

func (s *AHT20) Close() error {
	return s.bus.Close()
}

// convert unpacks the 20-bit humidity and temperature counts from a 6-byte
// measurement frame. Byte 0 is the status byte; humidity occupies the next
// 20 bits, temperature the 20 after that.
func convert(data [6]byte) Reading {
	hraw := uint32(data[1])<<12 | uint32(data[2])<<4 | uint32(data[3])>>4
	traw := uint32(data[3]&0x0F)<<16 | uint32(data[4])<<8 | uint32(data[5])
	return Reading{
		Temperature: float64(traw)/1048576.0*200.0 - 50.0,
		Humidity:    float64(hraw) / 1048576.0 * 100.0,
	}
}
