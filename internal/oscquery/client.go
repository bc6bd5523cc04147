// Package oscquery implements a minimal client for the OSCQuery discovery
// protocol: one HTTP GET against the server root returns the full parameter
// namespace as a JSON tree.
//
// The client is read-only and cache-free. The RNBO runner rebuilds its tree
// between startup stages, so every lookup fetches a fresh copy.
package oscquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Domain errors for the oscquery package.
var (
	// ErrUnreachable is returned when the OSCQuery server cannot be
	// reached or answers with a non-200 status. Always a soft failure.
	ErrUnreachable = errors.New("oscquery: server unreachable")

	// ErrBadTree is returned when the server's response is not a valid
	// JSON tree.
	ErrBadTree = errors.New("oscquery: malformed namespace tree")
)

// defaultTimeout bounds each HTTP request when no timeout is configured.
const defaultTimeout = 2 * time.Second

// Client queries an OSCQuery server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the OSCQuery server at host:port.
//
// Parameters:
//   - host: Server host or IP
//   - port: OSCQuery HTTP port
//   - timeout: Per-request timeout; zero selects the 2s default
func New(host string, port int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: "http://" + net.JoinHostPort(host, strconv.Itoa(port)),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server root URL the client queries.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping verifies the OSCQuery server is answering.
//
// Success is strictly HTTP 200; any transport error or other status is a
// soft failure wrapped in ErrUnreachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

// FetchTree retrieves the full parameter namespace.
//
// Returns:
//   - *Node: Root of the namespace tree
//   - error: ErrUnreachable or ErrBadTree
func (c *Client) FetchTree(ctx context.Context) (*Node, error) {
	resp, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	var root Node
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadTree, err)
	}
	return &root, nil
}

// FindParameter fetches a fresh tree and checks the candidate paths in
// order, returning the first one present (with a value) in the namespace.
//
// Parameters:
//   - candidates: Parameter paths in priority order
//
// Returns:
//   - string: The first candidate found in the tree
//   - bool: false when the fetch failed or no candidate matched
func (c *Client) FindParameter(ctx context.Context, candidates []string) (string, bool) {
	tree, err := c.FetchTree(ctx)
	if err != nil {
		return "", false
	}

	for _, path := range candidates {
		if _, ok := tree.Find(path); ok {
			return path, true
		}
	}
	return "", false
}

func (c *Client) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return resp, nil
}
