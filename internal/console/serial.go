package console

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaud is the console line rate.
const DefaultBaud = 115200

// OpenSerial opens a UART for the console, 8N1.
func OpenSerial(path string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("console: open %s: %w", path, err)
	}
	return port, nil
}
