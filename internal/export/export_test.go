package export_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/panelmark/internal/editor"
	"github.com/example/panelmark/internal/export"
)

type received struct {
	files  map[string]string
	images map[string][]byte
	fields map[string]string
}

func capture(t *testing.T, r *http.Request) received {
	t.Helper()
	require.NoError(t, r.ParseMultipartForm(32<<20))
	got := received{files: map[string]string{}, images: map[string][]byte{}, fields: map[string]string{}}
	for name, hs := range r.MultipartForm.File {
		require.Len(t, hs, 1, name)
		f, err := hs[0].Open()
		require.NoError(t, err)
		data, err := io.ReadAll(f)
		f.Close()
		require.NoError(t, err)
		got.files[name] = hs[0].Filename
		got.images[name] = data
	}
	for name, vs := range r.MultipartForm.Value {
		require.Len(t, vs, 1, name)
		got.fields[name] = vs[0]
	}
	return got
}

func newWorkspace(t *testing.T) *editor.Workspace {
	t.Helper()
	w, err := editor.New()
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

func TestExportSendsEveryCanvas(t *testing.T) {
	var got received
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		got = capture(t, r)
		rw.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
		rw.Header().Set("Content-Disposition", `attachment; filename="site_survey.pptx"`)
		rw.Write([]byte("PK-document"))
	}))
	defer srv.Close()

	ws := newWorkspace(t)
	dir := t.TempDir()
	ex := &export.Exporter{Client: export.NewClient(srv.URL), Dir: dir}
	md := export.Metadata{BuildingName: "  Tower A ", OTIC: "yes"}
	res, err := ex.Export(context.Background(), ws, md)
	require.NoError(t, err)

	keys := ws.Keys()
	assert.Equal(t, len(keys), res.Images)
	require.Len(t, got.images, len(keys))
	for _, key := range keys {
		assert.Equal(t, key+".png", got.files[key])
		img, err := png.Decode(bytes.NewReader(got.images[key]))
		require.NoError(t, err, key)
		s, _ := ws.Surface(key)
		w, h := s.Size()
		assert.Equal(t, w, img.Bounds().Dx(), key)
		assert.Equal(t, h, img.Bounds().Dy(), key)
	}

	assert.Equal(t, "Tower A", got.fields["building_name"])
	assert.Equal(t, "yes", got.fields["otic"])
	assert.Equal(t, "2", got.fields["noofchargers"])
	for _, name := range export.FieldNames() {
		_, ok := got.fields[name]
		assert.True(t, ok, name)
	}

	assert.Equal(t, filepath.Join(dir, "site_survey.pptx"), res.Path)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "PK-document", string(data))
}

func TestChargersCannotBeOverridden(t *testing.T) {
	var md export.Metadata
	assert.Error(t, md.Set(export.ChargersField, "7"))
	require.NoError(t, md.Set("building_name", "Annex"))
	require.NoError(t, md.Set("contractor", "ACME"))
	md.Extra[export.ChargersField] = "9"

	fields := md.Fields()
	last := fields[len(fields)-1]
	assert.Equal(t, export.Field{Name: "noofchargers", Value: "2"}, last)
	count := 0
	for _, f := range fields {
		if f.Name == export.ChargersField {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "Annex", md.BuildingName)
	assert.Equal(t, "ACME", md.Extra["contractor"])
}

func TestFieldOrder(t *testing.T) {
	md := export.Metadata{Extra: map[string]string{"zeta": "z", "alpha": "a"}}
	var names []string
	for _, f := range md.Fields() {
		names = append(names, f.Name)
	}
	base := export.FieldNames()
	require.Len(t, base, 20)
	assert.Equal(t, base, names[:20])
	assert.Equal(t, []string{"alpha", "zeta", "noofchargers"}, names[20:])
	assert.True(t, sort.StringsAreSorted(names[20:22]))
}

func TestSendKeepsFieldOrder(t *testing.T) {
	var order []string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		require.NoError(t, err)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			if part.FileName() == "" {
				order = append(order, part.FormName())
			}
			part.Close()
		}
		rw.Write([]byte("PK"))
	}))
	defer srv.Close()

	md := export.Metadata{Extra: map[string]string{"zeta": "z", "alpha": "a"}}
	var want []string
	for _, f := range md.Fields() {
		want = append(want, f.Name)
	}
	for i := 0; i < 3; i++ {
		order = nil
		_, err := export.NewClient(srv.URL).Send(context.Background(), &export.Payload{Fields: md.Fields()})
		require.NoError(t, err)
		assert.Equal(t, want, order)
	}
}

func TestSerializeIsRepeatable(t *testing.T) {
	ws := newWorkspace(t)
	ws.Press(10, 10)
	require.NoError(t, ws.Release(40, 40))

	a, err := export.Serialize(ws, export.Metadata{})
	require.NoError(t, err)
	b, err := export.Serialize(ws, export.Metadata{})
	require.NoError(t, err)
	require.Equal(t, len(a.Images), len(b.Images))
	for i := range a.Images {
		assert.Equal(t, a.Images[i].Key, b.Images[i].Key)
		assert.True(t, bytes.Equal(a.Images[i].PNG, b.Images[i].PNG), a.Images[i].Key)
	}
}

func TestServiceFailureWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusInternalServerError)
		rw.Write([]byte(`{"success":false,"message":"template missing"}`))
	}))
	defer srv.Close()

	ws := newWorkspace(t)
	dir := t.TempDir()
	ex := &export.Exporter{Client: export.NewClient(srv.URL), Dir: dir}
	_, err := ex.Export(context.Background(), ws, export.Metadata{})
	require.Error(t, err)
	assert.ErrorIs(t, err, export.ErrTransport)

	var te *export.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.Status)
	assert.Equal(t, "template missing", te.Message)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSuccessStatusWithJSONIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json; charset=utf-8")
		rw.Write([]byte(`{"success":false,"message":"no images"}`))
	}))
	defer srv.Close()

	_, err := export.NewClient(srv.URL).Send(context.Background(), &export.Payload{})
	var te *export.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "no images", te.Message)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := export.NewClient(url, export.WithTimeout(2*time.Second))
	_, err := c.Send(context.Background(), &export.Payload{})
	assert.ErrorIs(t, err, export.ErrTransport)
}

func TestDefaultFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/octet-stream")
		rw.Write([]byte("doc"))
	}))
	defer srv.Close()

	doc, err := export.NewClient(srv.URL).Send(context.Background(), &export.Payload{})
	require.NoError(t, err)
	assert.Equal(t, export.DefaultFilename, doc.Filename)
}

func TestDocumentNameIsSanitised(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd":   "passwd",
		`..\evil.pptx`:       "evil.pptx",
		"":                   export.DefaultFilename,
		"report.pptx":        "report.pptx",
		"/abs/path/out.pptx": "out.pptx",
	}
	for in, want := range cases {
		d := &export.Document{Filename: in}
		assert.Equal(t, want, d.Name(), in)
	}
}

func TestSaveIntoMissingDirFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	d := &export.Document{Filename: "x.pptx", Data: []byte("x")}
	_, err := d.Save(dir)
	assert.Error(t, err)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}
