// Package fetch performs the supporting HTTP calls of the page controllers
// against the origin of the current page. Under js/wasm net/http is backed
// by the browser's fetch API.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/platform/timeouts"
	"github.com/campusdesk/backoffice/internal/ui/dom"
)

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

// Response is a completed call.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// JSON returns the body as a gjson result.
func (r Response) JSON() gjson.Result { return gjson.ParseBytes(r.Body) }

// Client issues same-origin requests.
type Client struct {
	HTTP    *http.Client
	Window  dom.Window
	Timeout time.Duration
	// Token supplies a bearer token for the Authorization header.
	Token func() (string, bool)
}

// New returns a Client using http.DefaultClient and the default fetch timeout.
func New(win dom.Window) *Client {
	return &Client{HTTP: http.DefaultClient, Window: win, Timeout: timeouts.FetchRequest}
}

// Resolve turns a path into an absolute URL on the page's origin.
func (c *Client) Resolve(path string) (string, error) {
	base, err := url.Parse(c.Window.Location())
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeURLMalformed, "parse page location", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeURLMalformed, "parse request path", err)
	}
	resolved := base.ResolveReference(ref)
	if resolved.Host != base.Host || resolved.Scheme != base.Scheme {
		return "", apperrors.WithMetadata(apperrors.CodeURLForeign, "request leaves page origin", map[string]string{"URL": resolved.String()})
	}
	return resolved.String(), nil
}

// Do sends one request and reads the response. Transport failures return
// FETCH_FAILED; the status is not checked.
func (c *Client) Do(ctx context.Context, method, path string, header http.Header, body io.Reader) (Response, error) {
	target, err := c.Resolve(path)
	if err != nil {
		return Response{}, err
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeFetchFailed, "build request", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if c.Token != nil && req.Header.Get("Authorization") == "" {
		if token, ok := c.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeFetchFailed, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeFetchFailed, "read response body", err)
	}
	return Response{Status: resp.StatusCode, Body: data}, nil
}

// GetJSON fetches path and requires a 2xx JSON document.
func (c *Client) GetJSON(ctx context.Context, path string) (gjson.Result, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, http.Header{"Accept": {"application/json"}}, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	if !resp.OK() {
		return gjson.Result{}, StatusError(resp.Status)
	}
	if !gjson.ValidBytes(resp.Body) {
		return gjson.Result{}, apperrors.New(apperrors.CodeDecodeFailed, "response is not JSON")
	}
	return resp.JSON(), nil
}

// StatusError reports an unexpected HTTP status.
func StatusError(status int) error {
	return apperrors.WithMetadata(apperrors.CodeUnexpectedStatus, "unexpected status "+strconv.Itoa(status),
		map[string]string{"Status": strconv.Itoa(status)})
}
