package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrTransport matches every *TransportError.
var ErrTransport = errors.New("transport failure")

// TransportError reports a failed call to the generation service. The
// request may be retried; no canvas state was changed.
type TransportError struct {
	// Status is the HTTP status, or zero when no response arrived.
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	var sb strings.Builder
	sb.WriteString("export failed")
	if e.Status != 0 {
		fmt.Fprintf(&sb, " (%d)", e.Status)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// failure is the JSON body the service returns on error.
type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DefaultTimeout bounds a whole export request.
const DefaultTimeout = 60 * time.Second

// Client posts payloads to the generation service. One call is one request;
// nothing is retried.
type Client struct {
	resty *resty.Client
	url   string
}

// ClientOption configures a Client.
type ClientOption func(*resty.Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// NewClient returns a client for the service at url.
func NewClient(url string, opts ...ClientOption) *Client {
	rc := resty.New().
		SetTimeout(DefaultTimeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "panelmark/1.0")
	for _, o := range opts {
		o(rc)
	}
	return &Client{resty: rc, url: url}
}

// URL returns the service endpoint.
func (c *Client) URL() string { return c.url }

// Send posts p as one multipart request: a PNG part per canvas, named by its
// key, and a text part per field.
func (c *Client) Send(ctx context.Context, p *Payload) (*Document, error) {
	parts := make([]*resty.MultipartField, 0, len(p.Fields))
	for _, f := range p.Fields {
		parts = append(parts, &resty.MultipartField{Param: f.Name, Reader: strings.NewReader(f.Value)})
	}
	req := c.resty.R().
		SetContext(ctx).
		SetError(&failure{}).
		SetMultipartFields(parts...)
	for _, img := range p.Images {
		req.SetMultipartField(img.Key, img.Filename, "image/png", bytes.NewReader(img.PNG))
	}

	resp, err := req.Post(c.url)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.IsError() {
		te := &TransportError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
		if f, ok := resp.Error().(*failure); ok && f.Message != "" {
			te.Message = f.Message
		}
		return nil, te
	}

	contentType := resp.Header().Get("Content-Type")
	if mt, _, _ := mime.ParseMediaType(contentType); mt == "application/json" {
		var f failure
		if err := json.Unmarshal(resp.Body(), &f); err != nil {
			return nil, &TransportError{Status: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
		}
		msg := f.Message
		if msg == "" {
			msg = "service returned no document"
		}
		return nil, &TransportError{Status: resp.StatusCode(), Message: msg}
	}
	if len(resp.Body()) == 0 {
		return nil, &TransportError{Status: resp.StatusCode(), Message: "empty document"}
	}

	return &Document{
		Filename:    attachmentName(resp.Header().Get("Content-Disposition")),
		ContentType: contentType,
		Data:        resp.Body(),
	}, nil
}

func attachmentName(header string) string {
	if header == "" {
		return DefaultFilename
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil || params["filename"] == "" {
		return DefaultFilename
	}
	return params["filename"]
}
