//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify posts to Notification Center through osascript. Icons are not
// supported there.
func Notify(title, body string, _ Options) error {
	script := fmt.Sprintf("display notification %q with title %q subtitle %q", body, title, AppName)
	return exec.Command("osascript", "-e", script).Run()
}
