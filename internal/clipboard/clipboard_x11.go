//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Without cgo the clipboard is served directly over the X11 protocol: a
// hidden window owns the CLIPBOARD selection and answers conversion
// requests from other clients.

var (
	initOnce sync.Once
	initErr  error
	owner    *selectionOwner
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = ErrNoDisplay
			return
		}
		o, err := newSelectionOwner()
		if err != nil {
			initErr = err
			return
		}
		owner = o
	})
	return initErr
}

// WritePNG publishes encoded PNG data as the clipboard image.
func WritePNG(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.offer(map[xproto.Atom][]byte{owner.atoms.png: data})
}

// ReadPNG returns the clipboard image as PNG data.
func ReadPNG() ([]byte, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	return owner.request(owner.atoms.png)
}

// WriteText writes text data to the clipboard.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	data := []byte(text)
	return owner.offer(map[xproto.Atom][]byte{
		owner.atoms.utf8:      data,
		xproto.AtomString:     data,
		owner.atoms.textPlain: data,
	})
}

// ReadText returns UTF-8 text data from the clipboard.
func ReadText() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	data, err := owner.request(owner.atoms.utf8)
	if err != nil {
		if data, err = owner.request(xproto.AtomString); err != nil {
			return "", err
		}
	}
	// Some owners terminate STRING replies with NUL.
	if n := len(data); n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	return string(data), nil
}

type atomSet struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	property  xproto.Atom
}

type selectionOwner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atomSet

	mu     sync.RWMutex
	offers map[xproto.Atom][]byte
}

func newSelectionOwner() (*selectionOwner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	const mask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root,
		0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask, []uint32{mask}).Check(); err != nil {
		conn.Close()
		return nil, err
	}
	atoms, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return nil, err
	}
	o := &selectionOwner{conn: conn, window: window, atoms: atoms}
	go o.serve()
	return o, nil
}

func internAtoms(conn *xgb.Conn) (atomSet, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png", "PANELMARK_CLIPBOARD"}
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(conn, false, uint16(len(name)), name)
	}
	atoms := make([]xproto.Atom, len(names))
	for i, c := range cookies {
		reply, err := c.Reply()
		if err != nil {
			return atomSet{}, fmt.Errorf("intern %s: %w", names[i], err)
		}
		atoms[i] = reply.Atom
	}
	return atomSet{
		clipboard: atoms[0],
		targets:   atoms[1],
		utf8:      atoms[2],
		textPlain: atoms[3],
		png:       atoms[4],
		property:  atoms[5],
	}, nil
}

func (o *selectionOwner) offer(formats map[xproto.Atom][]byte) error {
	copied := make(map[xproto.Atom][]byte, len(formats))
	for atom, data := range formats {
		copied[atom] = append([]byte(nil), data...)
	}
	o.mu.Lock()
	o.offers = copied
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (o *selectionOwner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.offers = nil
			o.mu.Unlock()
		}
	}
}

func (o *selectionOwner) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	o.mu.RLock()
	offers := o.offers
	o.mu.RUnlock()

	if e.Target == o.atoms.targets {
		targets := []xproto.Atom{o.atoms.targets}
		for atom := range offers {
			targets = append(targets, atom)
		}
		buf := make([]byte, len(targets)*4)
		for i, atom := range targets {
			xgb.Put32(buf[i*4:], uint32(atom))
		}
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			xproto.AtomAtom, 32, uint32(len(targets)), buf)
	} else if data, ok := offers[e.Target]; ok && len(data) > 0 {
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			e.Target, 8, uint32(len(data)), data)
	} else {
		property = xproto.AtomNone
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

// request converts the CLIPBOARD selection to target on a throwaway
// connection so replies never race the owner's event loop.
func (o *selectionOwner) request(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	if err := xproto.ConvertSelectionChecked(conn, window, o.atoms.clipboard, target,
		o.atoms.property, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, err
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, ErrEmpty
		}
		reply, perr := xproto.GetProperty(conn, true, window, e.Property,
			xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, perr
		}
		if len(reply.Value) == 0 {
			return nil, ErrEmpty
		}
		return append([]byte(nil), reply.Value...), nil
	}
}
