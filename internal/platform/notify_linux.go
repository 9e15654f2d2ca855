//go:build linux

package platform

import (
	"github.com/godbus/dbus/v5"
)

const (
	notifyDest = "org.freedesktop.Notifications"
	notifyPath = "/org/freedesktop/Notifications"
	// expireMillis is how long the notification stays up.
	expireMillis = int32(5000)
)

// Notify sends a desktop notification over the session bus using the
// freedesktop notification interface.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(opts.Urgency),
	}
	if opts.IconPath != "" {
		hints["image-path"] = dbus.MakeVariant(opts.IconPath)
	}
	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyDest+".Notify", 0,
		AppName, uint32(0), opts.IconPath, title, body, []string{}, hints, expireMillis)
	return call.Err
}
