// Package rnbo manages the connection to an RNBO runner: OSCQuery-based
// discovery of the runner and its fade-trigger parameter, and the OSC/UDP
// client used to drive it.
package rnbo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/scgolang/osc"

	"github.com/mkransborg/presence-bridge/internal/oscquery"
)

// ErrNotDiscovered is returned by operations that need a successful
// Discover first.
var ErrNotDiscovered = errors.New("rnbo: runner not discovered yet")

// Logger is the logging interface the connection needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config holds the ports and timeout for reaching the runner.
type Config struct {
	// OSCPort is the runner's OSC UDP port.
	OSCPort int

	// QueryPort is the runner's OSCQuery HTTP port.
	QueryPort int

	// QueryTimeout bounds each OSCQuery request.
	QueryTimeout time.Duration
}

// Connection holds the discovered runner address, the OSCQuery client, and
// the OSC conn once bound.
//
// A Connection is owned by a single goroutine (the bridge): Discover and
// SendPresence are never called concurrently, so no locking is used.
type Connection struct {
	cfg Config
	log Logger

	host  string
	query *oscquery.Client
	conn  osc.Conn

	// resolveHost is swappable for tests.
	resolveHost func() string
}

// NewConnection creates an unbound Connection. Call Discover before
// sending; SendPresence is a no-op until then.
func NewConnection(cfg Config, log Logger) *Connection {
	return &Connection{
		cfg:         cfg,
		log:         log,
		resolveHost: resolveLocalHost(log),
	}
}

// Discover locates the RNBO runner and binds the OSC client.
//
// The runner is expected on this machine: the local hostname's ".local"
// name is resolved, falling back to loopback when resolution fails. The
// OSCQuery server is then pinged; HTTP 200 proves the runner is up, after
// which a UDP OSC conn is dialled to the same host.
//
// Any failure is soft — the caller retries.
func (c *Connection) Discover(ctx context.Context) error {
	host := c.resolveHost()
	c.query = oscquery.New(host, c.cfg.QueryPort, c.cfg.QueryTimeout)

	if err := c.query.Ping(ctx); err != nil {
		return fmt.Errorf("pinging OSCQuery at %s: %w", c.query.BaseURL(), err)
	}
	c.log.Info("OSCQuery server found", "url", c.query.BaseURL())

	local, err := net.ResolveUDPAddr("udp", "0.0.0.0:0")
	if err != nil {
		return fmt.Errorf("resolving local UDP address: %w", err)
	}
	remote, err := net.ResolveUDPAddr("udp", net.JoinHostPort(host, strconv.Itoa(c.cfg.OSCPort)))
	if err != nil {
		return fmt.Errorf("resolving runner UDP address: %w", err)
	}

	conn, err := osc.DialUDPContext(ctx, "udp", local, remote)
	if err != nil {
		return fmt.Errorf("dialling OSC conn: %w", err)
	}

	// Replace any conn left over from an earlier attempt.
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.host = host

	return nil
}

// FindParameterPath checks the candidate parameter paths against a freshly
// fetched OSCQuery tree, in order.
//
// Best-effort: a fetch failure or an empty result just means the caller
// keeps its statically configured path.
//
// Returns:
//   - string: The first candidate present in the runner's namespace
//   - bool: false when none was found
func (c *Connection) FindParameterPath(ctx context.Context, candidates []string) (string, bool) {
	if c.query == nil {
		return "", false
	}

	path, ok := c.query.FindParameter(ctx, candidates)
	if ok {
		c.log.Info("found parameter path", "path", path)
	}
	return path, ok
}

// SendPresence sends the fade-trigger value to the runner.
//
// The transport is fire-and-forget UDP: no acknowledgment exists or is
// checked. The bridge resends the current state every poll cycle, so a
// dropped datagram is corrected within one interval.
//
// Parameters:
//   - value: 0 (absent) or 1 (present)
//   - path: OSC address of the fade-trigger parameter
//
// Returns:
//   - error: Send failure; nil (silent no-op) when not yet discovered
func (c *Connection) SendPresence(value int, path string) error {
	if c.conn == nil {
		return nil
	}

	return c.conn.Send(osc.Message{
		Address: path,
		Arguments: osc.Arguments{
			osc.Int(int32(value)),
		},
	})
}

// Host returns the discovered runner host, or "" before discovery.
func (c *Connection) Host() string {
	return c.host
}

// Close releases the OSC conn. Safe to call before discovery and more than
// once.
func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// resolveLocalHost returns a resolver for this machine's mDNS name, with a
// loopback fallback. The runner advertises on <hostname>.local, but a Pi
// without Avahi answering for itself still works via 127.0.0.1.
func resolveLocalHost(log Logger) func() string {
	return func() string {
		hostname, err := os.Hostname()
		if err == nil {
			name := hostname + ".local"
			if addrs, lookupErr := net.LookupHost(name); lookupErr == nil && len(addrs) > 0 {
				log.Info("resolved local hostname", "hostname", name, "address", addrs[0])
				return addrs[0]
			}
		}
		log.Warn("could not resolve local hostname, using loopback")
		return "127.0.0.1"
	}
}
