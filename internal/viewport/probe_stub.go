//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package viewport

// Monitors is not implemented on this platform.
func Monitors() ([]Monitor, error) {
	return nil, ErrUnavailable
}
