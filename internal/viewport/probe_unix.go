//go:build linux || freebsd || openbsd || netbsd || dragonfly

package viewport

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

// Monitors lists connected outputs through RandR. Without RandR the whole
// root window is reported as a single primary monitor.
func Monitors() ([]Monitor, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, ErrUnavailable
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("%w: connect X server: %v", ErrUnavailable, err)
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	if setup == nil {
		return nil, fmt.Errorf("%w: xproto setup unavailable", ErrUnavailable)
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		return nil, fmt.Errorf("%w: xproto screen unavailable", ErrUnavailable)
	}
	root := Monitor{
		Name:    "root",
		Rect:    image.Rect(0, 0, int(screen.WidthInPixels), int(screen.HeightInPixels)),
		Primary: true,
	}
	if err := randr.Init(conn); err != nil {
		return []Monitor{root}, nil
	}
	monitors, err := outputs(conn, screen.Root)
	if err != nil || len(monitors) == 0 {
		return []Monitor{root}, nil
	}
	return monitors, nil
}

func outputs(conn *xgb.Conn, root xproto.Window) ([]Monitor, error) {
	res, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return nil, fmt.Errorf("randr screen resources: %w", err)
	}
	primary := randr.Output(0)
	if p, err := randr.GetOutputPrimary(conn, root).Reply(); err == nil {
		primary = p.Output
	}
	var monitors []Monitor
	for _, output := range res.Outputs {
		info, err := randr.GetOutputInfo(conn, output, res.ConfigTimestamp).Reply()
		if err != nil || info.Connection != randr.ConnectionConnected || info.Crtc == 0 {
			continue
		}
		crtc, err := randr.GetCrtcInfo(conn, info.Crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		x, y := int(crtc.X), int(crtc.Y)
		monitors = append(monitors, Monitor{
			Index:   len(monitors),
			Name:    strings.TrimSpace(string(info.Name)),
			Rect:    image.Rect(x, y, x+int(crtc.Width), y+int(crtc.Height)),
			Primary: output == primary,
		})
	}
	return monitors, nil
}
