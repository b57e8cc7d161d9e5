package docstore

import (
	"context"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a path holds no document.
var ErrNotFound = errors.New("docstore: document not found")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to the remote path-addressed document database. Documents
// are plain JSON values under hierarchical paths ("orders/abc123"). The
// store offers independent per-path reads and writes only: a put is
// last-write-wins and there is no multi-path commit.
type Client struct {
	base    string
	auth    string
	timeout time.Duration
}

func NewClient(baseURL, auth string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		auth:    auth,
		timeout: timeout,
	}
}

func (c *Client) url(path string) string {
	return c.base + "/" + strings.Trim(path, "/") + ".json"
}

func (c *Client) query() gout.H {
	if c.auth == "" {
		return gout.H{}
	}
	return gout.H{"auth": c.auth}
}

// Get reads the document at path into out. Missing documents (the store
// answers them with a literal null) yield ErrNotFound.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body []byte
	var code int
	err := gout.GET(c.url(path)).
		WithContext(ctx).
		SetQuery(c.query()).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrapf(err, "docstore: get %s", path)
	}
	if code != 200 {
		return errors.Errorf("docstore: get %s: status %d", path, code)
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "docstore: decode %s", path)
	}
	return nil
}

// Put replaces the document at path. Last write wins.
func (c *Client) Put(ctx context.Context, path string, val interface{}) error {
	return c.write(ctx, "PUT", path, val)
}

// Patch merges fields into the document at path without touching siblings.
// Keys may contain slashes to address nested children, which is how a
// multi-product stock update lands in one call.
func (c *Client) Patch(ctx context.Context, path string, fields map[string]interface{}) error {
	return c.write(ctx, "PATCH", path, fields)
}

// Post appends a new child under path and returns the generated key.
func (c *Client) Post(ctx context.Context, path string, val interface{}) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(val)
	if err != nil {
		return "", errors.Wrapf(err, "docstore: encode %s", path)
	}
	var body []byte
	var code int
	err = gout.POST(c.url(path)).
		WithContext(ctx).
		SetQuery(c.query()).
		SetBody(payload).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		return "", errors.Wrapf(err, "docstore: post %s", path)
	}
	if code != 200 {
		return "", errors.Errorf("docstore: post %s: status %d", path, code)
	}
	var resp struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrapf(err, "docstore: decode post response %s", path)
	}
	return resp.Name, nil
}

// Delete removes the document at path. Deleting a missing path is not an
// error on the store side.
func (c *Client) Delete(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var code int
	err := gout.DELETE(c.url(path)).
		WithContext(ctx).
		SetQuery(c.query()).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrapf(err, "docstore: delete %s", path)
	}
	if code != 200 {
		return errors.Errorf("docstore: delete %s: status %d", path, code)
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, path string, val interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "docstore: encode %s", path)
	}
	var code int
	df := gout.PUT(c.url(path))
	if method == "PATCH" {
		df = gout.PATCH(c.url(path))
	}
	err = df.
		WithContext(ctx).
		SetQuery(c.query()).
		SetBody(payload).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrapf(err, "docstore: %s %s", strings.ToLower(method), path)
	}
	if code != 200 {
		return errors.Errorf("docstore: %s %s: status %d", strings.ToLower(method), path, code)
	}
	return nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
