// Package relay implements the HTTP client for the external file-hosting
// relay used as an alternative cache backend. The relay exposes a folder of
// files: PUT uploads, HEAD probes existence, GET on the folder lists entries.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/iconidentify/nanovideo/internal/config"
)

// RemoteFile is one entry in a relay folder listing.
type RemoteFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Client talks to the file-hosting relay over HTTP, attaching basic-auth
// credentials when configured.
type Client struct {
	baseURL  string
	folder   string
	username string
	password string
	http     *http.Client
}

// NewClient creates a relay client from configuration.
func NewClient(cfg config.RelayConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		folder:   strings.Trim(cfg.Folder, "/"),
		username: cfg.Username,
		password: cfg.Password,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FileURL returns the public URL of a named file on the relay.
func (c *Client) FileURL(name string) string {
	return c.baseURL + "/" + c.folder + "/" + url.PathEscape(name)
}

func (c *Client) folderURL() string {
	return c.baseURL + "/" + c.folder + "/"
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

// Upload stores a file on the relay and returns its public URL.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPut, c.FileURL(name), r)
	if err != nil {
		return "", err
	}
	if size > 0 {
		req.ContentLength = size
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("upload %s: relay returned status %d", name, resp.StatusCode)
	}

	return c.FileURL(name), nil
}

// Exists probes the relay for a named file. Any non-success response counts
// as absent: a false negative only costs a redundant download and upload,
// never a lost artifact. The size is reported when the relay includes a
// Content-Length header.
func (c *Client) Exists(ctx context.Context, name string) (bool, int64, error) {
	req, err := c.newRequest(ctx, http.MethodHead, c.FileURL(name), nil)
	if err != nil {
		return false, 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, 0, fmt.Errorf("probe %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, 0, nil
	}
	return true, resp.ContentLength, nil
}

// Fetch streams a named file back from the relay. The caller must close the
// returned reader.
func (c *Client) Fetch(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.FileURL(name), nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s: %w", name, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("fetch %s: not found", name)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("fetch %s: relay returned status %d", name, resp.StatusCode)
	}

	return resp.Body, resp.ContentLength, nil
}

// List queries the relay folder for its current contents. Each call
// re-queries the relay; nothing is cached client-side.
func (c *Client) List(ctx context.Context) ([]RemoteFile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.folderURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list folder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list folder: relay returned status %d", resp.StatusCode)
	}

	var listing struct {
		Files []RemoteFile `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode folder listing: %w", err)
	}

	return listing.Files, nil
}

// Ping checks the relay is reachable and the folder is accessible.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodHead, c.folderURL(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("relay returned status %d", resp.StatusCode)
	}
	return nil
}
