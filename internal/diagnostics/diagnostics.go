package diagnostics

import (
	"fmt"
	"io"
	"os"

	"go.bug.st/serial.v1"

	"github.com/Thamike9/MQTT-Sensor/internal/configuration"
)

// Output is the diagnostic stream the loggers write to. When a serial
// console is configured the stream is teed to it, so a terminal attached to
// the UART sees the same lines as stdout.
type Output struct {
	writer io.Writer
	port   serial.Port
}

// Open builds the diagnostic output. An empty serial port name selects
// stdout only.
func Open(cfg configuration.DiagnosticsConfiguration) (*Output, error) {
	if cfg.SerialPort == "" {
		return &Output{writer: os.Stdout}, nil
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
	}
	port, err := serial.Open(cfg.SerialPort, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial console %v: %w", cfg.SerialPort, err)
	}

	return &Output{
		writer: io.MultiWriter(os.Stdout, port),
		port:   port,
	}, nil
}

func (o *Output) Writer() io.Writer {
	return o.writer
}

func (o *Output) Close() error {
	if o.port == nil {
		return nil
	}
	return o.port.Close()
}
