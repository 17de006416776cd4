package meter

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// Named transport error kinds. The acquisition loop treats these as
// fatal; everything else on the read path degrades to a short frame.
var (
	ErrPortNotFound = errors.New("serial port not found")
	ErrPortBusy     = errors.New("serial port busy or permission denied")
)

// mapPortError narrows go.bug.st/serial failures to the named kinds,
// passing anything else through unchanged.
func mapPortError(err error) error {
	var pe *serial.PortError
	if !errors.As(err, &pe) {
		return err
	}
	switch pe.Code() {
	case serial.PortNotFound:
		return fmt.Errorf("%w: %v", ErrPortNotFound, err)
	case serial.PermissionDenied, serial.PortBusy:
		return fmt.Errorf("%w: %v", ErrPortBusy, err)
	default:
		return err
	}
}
