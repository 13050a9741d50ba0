package alerting

import (
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// SerialSink writes newline-terminated UTF-8 lines to a serial port.
type SerialSink struct {
	port io.WriteCloser
}

// OpenSerial opens portName at baud 8N1.
func OpenSerial(portName string, baud int) (*SerialSink, error) {
	if baud <= 0 {
		baud = 115200
	}
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return NewSerialSink(port), nil
}

// NewSerialSink wraps an already opened port.
func NewSerialSink(port io.WriteCloser) *SerialSink {
	return &SerialSink{port: port}
}

// LogAlert writes message and a trailing newline.
func (s *SerialSink) LogAlert(_ context.Context, message string) error {
	if _, err := io.WriteString(s.port, message+"\n"); err != nil {
		return fmt.Errorf("write serial: %w", err)
	}
	return nil
}

// Close closes the port.
func (s *SerialSink) Close() error {
	return s.port.Close()
}

var _ Sink = (*SerialSink)(nil)
