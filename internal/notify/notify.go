// Package notify raises desktop notifications for editor milestones.
package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/example/panelmark/internal/logging"
	"github.com/example/panelmark/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventExport fires when a generated document has been saved.
	EventExport Event = "export"
	// EventUpload fires when a background image commits to a canvas.
	EventUpload Event = "upload"
	// EventCopy fires when a canvas is copied to the clipboard.
	EventCopy Event = "copy"
)

// Preferences describes notification wording.
type Preferences struct {
	Title  string
	Events map[Event]string
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Panelmark",
		Events: map[Event]string{
			EventExport: "Saved %s",
			EventUpload: "Loaded image on %s",
			EventCopy:   "Copied %s to clipboard",
		},
	}
}

type envPreferences struct {
	Title  string `envconfig:"TITLE"`
	Export string `envconfig:"EXPORT_TEXT"`
	Upload string `envconfig:"UPLOAD_TEXT"`
	Copy   string `envconfig:"COPY_TEXT"`
}

// LoadPreferences applies PANELMARK_NOTIFY_* overrides to the defaults.
func LoadPreferences() (Preferences, error) {
	prefs := DefaultPreferences()
	var env envPreferences
	if err := envconfig.Process("PANELMARK_NOTIFY", &env); err != nil {
		return prefs, fmt.Errorf("notification settings: %w", err)
	}
	if v := strings.TrimSpace(env.Title); v != "" {
		prefs.Title = v
	}
	for event, v := range map[Event]string{EventExport: env.Export, EventUpload: env.Upload, EventCopy: env.Copy} {
		if v = strings.TrimSpace(v); v != "" {
			prefs.Events[event] = v
		}
	}
	return prefs, nil
}

// Sender delivers a rendered notification.
type Sender func(title, body string, opts platform.Options) error

// Notifier sends notifications for the events it has been enabled for.
// A nil Notifier is valid and silent.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    Sender
	log     *logging.Logger
}

// New creates a Notifier using prefs. Every event starts disabled.
func New(prefs Preferences, log *logging.Logger) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]string, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool), send: platform.Notify, log: log}
}

// WithSender replaces the platform sender, mainly for tests.
func (n *Notifier) WithSender(s Sender) *Notifier {
	n.send = s
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Export reports a saved document.
func (n *Notifier) Export(path string) {
	if !n.enabledFor(EventExport) {
		return
	}
	detail := strings.TrimSpace(path)
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
	}
	n.dispatch(EventExport, detail, platform.Options{})
}

// Upload reports a committed background. icon, when set, is shown with the
// notification.
func (n *Notifier) Upload(canvas, icon string) {
	if !n.enabledFor(EventUpload) {
		return
	}
	opts := platform.Options{}
	if icon != "" {
		if _, err := os.Stat(icon); err == nil {
			opts.IconPath = icon
		}
	}
	n.dispatch(EventUpload, canvas, opts)
}

// Copy reports a clipboard copy.
func (n *Notifier) Copy(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "canvas"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	template := strings.TrimSpace(n.prefs.Events[event])
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		n.log.Debug("notification failed", zap.String("event", string(event)), zap.Error(err))
	}
}
