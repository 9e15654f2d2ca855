package tools

import (
	"testing"

	"github.com/example/panelmark/internal/surface"
)

type recordingCanvas struct {
	strokes []surface.Stroke
	epoch   uint64
}

func (r *recordingCanvas) AddStroke(s surface.Stroke) error {
	r.strokes = append(r.strokes, s)
	return nil
}

func (r *recordingCanvas) Epoch() uint64 { return r.epoch }

func selected(key string, c Canvas) Resolver {
	return func() (string, Canvas, bool) { return key, c, true }
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("lasso"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestDrawCommitsFreehandStroke(t *testing.T) {
	rc := &recordingCanvas{}
	c := New(WithResolver(selected("msb", rc)))
	c.Press(1, 1)
	c.Move(2, 2)
	c.Move(2, 2)
	c.Move(3, 4)
	if err := c.Release(5, 5); err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(rc.strokes) != 1 {
		t.Fatalf("strokes = %d, want 1", len(rc.strokes))
	}
	st := rc.strokes[0]
	if st.Kind != surface.Ink || st.Width != DrawWidth || len(st.Points) != 4 {
		t.Fatalf("stroke = %+v", st)
	}
}

func TestLineCommitsSingleSegment(t *testing.T) {
	rc := &recordingCanvas{}
	c := New(WithResolver(selected("mccb", rc)))
	c.SetMode(Line)
	c.Press(10, 10)
	c.Move(20, 15)
	c.Move(30, 40)
	if err := c.Release(50, 60); err != nil {
		t.Fatalf("release: %v", err)
	}
	pts := rc.strokes[0].Points
	if len(pts) != 2 || pts[0] != (surface.Point{X: 10, Y: 10}) || pts[1] != (surface.Point{X: 50, Y: 60}) {
		t.Fatalf("line points = %v", pts)
	}
}

func TestEraseUsesEraserWidth(t *testing.T) {
	rc := &recordingCanvas{}
	c := New(WithResolver(selected("tpsld", rc)))
	c.SetMode(Erase)
	c.Press(0, 0)
	if err := c.Release(10, 0); err != nil {
		t.Fatalf("release: %v", err)
	}
	if st := rc.strokes[0]; st.Kind != surface.Erase || st.Width != EraseWidth {
		t.Fatalf("erase stroke = %+v", st)
	}
}

func TestTextPressRaisesRequest(t *testing.T) {
	rc := &recordingCanvas{epoch: 7}
	var got []TextRequest
	c := New(
		WithResolver(selected("tprouting1", rc)),
		WithTextSink(func(r TextRequest) { got = append(got, r) }),
		WithIDs(func() string { return "req-1" }),
	)
	c.SetMode(Text)
	c.Press(12, 34)
	c.Move(40, 40)
	if err := c.Release(40, 40); err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(rc.strokes) != 0 {
		t.Fatalf("text mode captured a stroke")
	}
	want := TextRequest{ID: "req-1", Canvas: "tprouting1", X: 12, Y: 34, Epoch: 7}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("requests = %+v, want %+v", got, want)
	}
}

func TestNoSelectionIsInert(t *testing.T) {
	c := New(WithResolver(func() (string, Canvas, bool) { return "", nil, false }))
	if c.Press(1, 1) {
		t.Fatalf("press reported a selection")
	}
	c.SetMode(Erase)
	if c.Mode() != Erase {
		t.Fatalf("mode change rejected without selection")
	}
	if err := c.Release(2, 2); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestModeSwitchDropsGesture(t *testing.T) {
	rc := &recordingCanvas{}
	c := New(WithResolver(selected("msb", rc)))
	c.Press(1, 1)
	c.Move(5, 5)
	c.SetMode(Line)
	if err := c.Release(9, 9); err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(rc.strokes) != 0 {
		t.Fatalf("dropped gesture was committed")
	}
	if _, _, ok := c.Preview(); ok {
		t.Fatalf("preview survived mode switch")
	}
}
