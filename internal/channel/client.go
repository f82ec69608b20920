package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/logging"
	"github.com/five82/sticky/internal/state"
)

// Ensure Client implements Endpoint at compile time.
var _ Endpoint = (*Client)(nil)

const (
	// socketBaseURL is the placeholder host for requests over the socket.
	socketBaseURL    = "http://unix"
	defaultUserAgent = "sticky/0.1"
	requestTimeout   = 10 * time.Second
)

// StatusError is a non-2xx response from the host.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("host %s returned status %d", e.Path, e.Code)
	}
	return fmt.Sprintf("host %s returned status %d: %s", e.Path, e.Code, e.Message)
}

// Client talks to a host Server over its Unix socket.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	dialer    *websocket.Dialer
	userAgent string
	logger    *logrus.Entry
}

// NewClient returns a client for the host listening on socketPath.
func NewClient(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", socketPath)
	}
	transport := &http.Transport{
		DialContext:     dial,
		MaxIdleConns:    4,
		IdleConnTimeout: 90 * time.Second,
	}
	base, _ := url.Parse(socketBaseURL)
	return newClient(base,
		&http.Client{Transport: transport, Timeout: requestTimeout},
		&websocket.Dialer{NetDialContext: dial, HandshakeTimeout: requestTimeout},
	)
}

func newClient(base *url.URL, httpClient *http.Client, dialer *websocket.Dialer) *Client {
	return &Client{
		baseURL:   base,
		http:      httpClient,
		dialer:    dialer,
		userAgent: defaultUserAgent,
		logger:    logging.NewLogger("channel"),
	}
}

// Ping checks that the host answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) LoadState(ctx context.Context) (state.Snapshot, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/state", nil, &raw); err != nil {
		return state.Snapshot{}, err
	}
	snap, err := state.Decode(raw)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("decode state: %w", err)
	}
	return snap, nil
}

func (c *Client) SaveState(ctx context.Context, snap state.Snapshot) error {
	body, err := state.Encode(snap)
	if err != nil {
		return err
	}
	return c.doRaw(ctx, http.MethodPut, "/api/state", body, nil)
}

func (c *Client) SetAlwaysOnTop(ctx context.Context, on bool) (bool, error) {
	return c.flag(ctx, http.MethodPut, "/api/window/always-on-top", &flagPayload{Value: on})
}

// ToggleAlwaysOnTop flips the flag from the host side, as the tray menu does.
func (c *Client) ToggleAlwaysOnTop(ctx context.Context) (bool, error) {
	return c.flag(ctx, http.MethodPost, "/api/window/always-on-top/toggle", nil)
}

func (c *Client) MinimizeToTray(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/window/minimize", nil, nil)
}

func (c *Client) SetLaunchOnStartup(ctx context.Context, enabled bool) (bool, error) {
	return c.flag(ctx, http.MethodPut, "/api/startup", &flagPayload{Value: enabled})
}

func (c *Client) Blur(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/window/blur", nil, nil)
}

func (c *Client) Resize(ctx context.Context, b host.Bounds) error {
	return c.do(ctx, http.MethodPut, "/api/window/bounds", b, nil)
}

func (c *Client) RequestClose(ctx context.Context) (bool, error) {
	var resp closePayload
	if err := c.do(ctx, http.MethodPost, "/api/window/close", nil, &resp); err != nil {
		return false, err
	}
	return resp.Closed, nil
}

func (c *Client) Activate(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/window/show", nil, nil)
}

func (c *Client) Quit(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/quit", nil, nil)
}

// Subscribe opens the notification WebSocket. The stream closes when ctx is
// done or the host goes away.
func (c *Client) Subscribe(ctx context.Context) (<-chan host.Notification, error) {
	wsURL := *c.baseURL
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/api/events"

	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	conn, resp, err := c.dialer.DialContext(ctx, wsURL.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	out := make(chan host.Notification, 16)
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		for {
			var n host.Notification
			if err := conn.ReadJSON(&n); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.logger.WithError(err).Warn("event stream ended")
				}
				return
			}
			select {
			case out <- n:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) flag(ctx context.Context, method, path string, payload *flagPayload) (bool, error) {
	var body any
	if payload != nil {
		body = payload
	}
	var resp flagPayload
	if err := c.do(ctx, method, path, body, &resp); err != nil {
		return false, err
	}
	return resp.Value, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	return c.doRaw(ctx, method, path, body, dest)
}

func (c *Client) doRaw(ctx context.Context, method, path string, body []byte, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return statusError(path, resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrHostUnavailable, err)
}

func statusError(path string, resp *http.Response) error {
	var payload errorPayload
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload)
	serr := &StatusError{Path: path, Code: resp.StatusCode, Message: payload.Error}
	if resp.StatusCode == http.StatusConflict {
		return errors.Join(host.ErrNoWindow, serr)
	}
	return serr
}
