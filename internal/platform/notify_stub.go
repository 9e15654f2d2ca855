//go:build !linux && !darwin && !windows

package platform

import (
	"fmt"
	"runtime"
)

// Notify reports that the host has no supported notification service.
func Notify(title, body string, opts Options) error {
	return fmt.Errorf("%w on %s", ErrUnsupported, runtime.GOOS)
}
