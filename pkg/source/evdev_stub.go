//go:build !linux

package source

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrUnsupported is returned where the platform has no evdev interface.
var ErrUnsupported = errors.New("keyboard capture requires linux evdev")

// DefaultDeviceDir matches the linux build so configuration stays portable.
const DefaultDeviceDir = "/dev/input"

// Evdev is unavailable off linux; Run fails immediately and the daemon runs
// degraded with the rate pinned at zero.
type Evdev struct {
	Dir    string
	Logger zerolog.Logger
}

// Run reports the platform gap.
func (e *Evdev) Run(ctx context.Context, emit func(KeyEvent)) error {
	return ErrUnsupported
}
