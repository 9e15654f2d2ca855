// Package platform delivers desktop notifications through the host's
// notification service.
package platform

import "errors"

// ErrUnsupported is returned where the host offers no notification service.
var ErrUnsupported = errors.New("desktop notifications are not supported")

// AppName identifies the sender to the notification service.
const AppName = "Panelmark"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file shown with the
	// notification where supported.
	IconPath string
	// Urgency is the freedesktop urgency hint: 0 low, 1 normal, 2 critical.
	Urgency byte
}
