// Package webdav syncs the root document with a WebDAV server: the whole
// snapshot is written with PUT and read back with GET at one remote path.
package webdav

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/storage"
)

// DefaultRemotePath is where the root document lives on the server.
const DefaultRemotePath = "/OneOkTodo/data/root-data.json"

var (
	// ErrRemoteNotFound is returned by Download when nothing has been
	// uploaded yet.
	ErrRemoteNotFound = errors.New("remote document not found")

	// ErrUnauthorized is returned when the server rejects the credentials.
	ErrUnauthorized = errors.New("webdav credentials rejected")

	// ErrNotConfigured is returned when no server URL is set.
	ErrNotConfigured = errors.New("webdav url not configured")
)

// StatusError is a non-success response from the server.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webdav %s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

// Config holds the server settings.
type Config struct {
	URL        string
	Username   string
	Password   string
	RemotePath string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to one WebDAV server.
type Client struct {
	cfg     Config
	base    *url.URL
	http    *http.Client
	logger  *slog.Logger
	backoff func() backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBackOff sets the retry schedule used between attempts.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *Client) { c.backoff = fn }
}

// NewClient validates cfg and returns a client for it.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse webdav url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("webdav url must be http or https, got %q", cfg.URL)
	}
	if cfg.RemotePath == "" {
		cfg.RemotePath = DefaultRemotePath
	}
	if !strings.HasPrefix(cfg.RemotePath, "/") {
		cfg.RemotePath = "/" + cfg.RemotePath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	c := &Client{
		cfg:    cfg,
		base:   base,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: slog.New(slog.DiscardHandler),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// RemotePath returns the document path on the server.
func (c *Client) RemotePath() string {
	return c.cfg.RemotePath
}

func (c *Client) urlFor(p string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p
	return u.String()
}

// do sends one request, retrying transport errors and 5xx responses. ok
// lists the status codes treated as success besides 2xx. The response body
// is read and closed before returning.
func (c *Client) do(ctx context.Context, method, p string, body []byte, ok ...int) (int, []byte, error) {
	var code int
	var data []byte
	op := func() error {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.urlFor(p), rd)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		if c.cfg.Username != "" || c.cfg.Password != "" {
			req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Warn("webdav request failed", "method", method, "path", p, "error", err)
			return err
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		code = resp.StatusCode

		switch {
		case code >= 200 && code < 300, contains(ok, code):
			return nil
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: %w", ErrUnauthorized, &StatusError{method, p, code}))
		case code >= 500:
			c.logger.Warn("webdav server error", "method", method, "path", p, "status", code)
			return &StatusError{method, p, code}
		default:
			return backoff.Permanent(&StatusError{method, p, code})
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return code, nil, err
	}
	return code, data, nil
}

func contains(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// ensureCollections creates the parent collections of the remote path.
// Servers answer 405 for a collection that already exists.
func (c *Client) ensureCollections(ctx context.Context) error {
	dir := path.Dir(c.cfg.RemotePath)
	if dir == "/" || dir == "." {
		return nil
	}
	var cur string
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		cur += "/" + part
		if _, _, err := c.do(ctx, "MKCOL", cur+"/", nil, http.StatusMethodNotAllowed); err != nil {
			return fmt.Errorf("create collection %s: %w", cur, err)
		}
	}
	return nil
}

// Upload writes snap to the remote path as indented JSON.
func (c *Client) Upload(ctx context.Context, snap *model.Snapshot) error {
	data, err := storage.Encode(snap, storage.FormatJSON)
	if err != nil {
		return err
	}
	if err := c.ensureCollections(ctx); err != nil {
		return err
	}
	if _, _, err := c.do(ctx, http.MethodPut, c.cfg.RemotePath, data); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	c.logger.Info("snapshot uploaded", "path", c.cfg.RemotePath, "bytes", len(data))
	return nil
}

// Download fetches and validates the remote snapshot.
func (c *Client) Download(ctx context.Context) (*model.Snapshot, error) {
	code, data, err := c.do(ctx, http.MethodGet, c.cfg.RemotePath, nil, http.StatusNotFound)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if code == http.StatusNotFound {
		return nil, ErrRemoteNotFound
	}
	snap, err := storage.Decode(data, storage.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	c.logger.Info("snapshot downloaded", "path", c.cfg.RemotePath, "bytes", len(data))
	return snap, nil
}
