package rnbo

import (
	"context"
	"encoding/binary"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

// nopLogger satisfies Logger for tests.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

const testTree = `{
	"FULL_PATH": "/",
	"CONTENTS": {
		"rnbo": {
			"FULL_PATH": "/rnbo",
			"CONTENTS": {
				"fadeTrig": {
					"FULL_PATH": "/rnbo/inst/0/params/fadeTrig",
					"VALUE": [0]
				}
			}
		}
	}
}`

// newRunnerFixture stands up a fake runner: an OSCQuery HTTP server and a
// UDP socket standing in for the OSC listener. Returns a Connection wired
// to both.
func newRunnerFixture(t *testing.T) (*Connection, net.PacketConn) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(testTree))
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	queryPort, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parsing test server port: %v", err)
	}

	udp, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("opening UDP listener: %v", err)
	}
	t.Cleanup(func() { udp.Close() })
	oscPort := udp.LocalAddr().(*net.UDPAddr).Port

	conn := NewConnection(Config{
		OSCPort:      oscPort,
		QueryPort:    queryPort,
		QueryTimeout: time.Second,
	}, nopLogger{})
	conn.resolveHost = func() string { return "127.0.0.1" }
	t.Cleanup(func() { conn.Close() })

	return conn, udp
}

func TestSendPresence_NoOpBeforeDiscovery(t *testing.T) {
	conn := NewConnection(Config{OSCPort: 1234, QueryPort: 5678}, nopLogger{})

	if err := conn.SendPresence(1, "/rnbo/inst/0/params/fadeTrig"); err != nil {
		t.Errorf("SendPresence() before discovery: unexpected error: %v", err)
	}
}

func TestDiscover(t *testing.T) {
	conn, _ := newRunnerFixture(t)

	if err := conn.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() unexpected error: %v", err)
	}
	if conn.Host() != "127.0.0.1" {
		t.Errorf("Host() = %q, want 127.0.0.1", conn.Host())
	}
}

func TestDiscover_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	u, _ := url.Parse(srv.URL)
	queryPort, _ := strconv.Atoi(u.Port())
	srv.Close()

	conn := NewConnection(Config{
		OSCPort:      1234,
		QueryPort:    queryPort,
		QueryTimeout: 200 * time.Millisecond,
	}, nopLogger{})
	conn.resolveHost = func() string { return "127.0.0.1" }

	if err := conn.Discover(context.Background()); err == nil {
		t.Fatal("Discover() expected error when OSCQuery is down")
	}
	// Still unbound: sends stay silent no-ops.
	if err := conn.SendPresence(0, "/x"); err != nil {
		t.Errorf("SendPresence() after failed discovery: unexpected error: %v", err)
	}
}

func TestSendPresence_Datagram(t *testing.T) {
	conn, udp := newRunnerFixture(t)

	if err := conn.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() unexpected error: %v", err)
	}

	const path = "/rnbo/inst/0/params/fadeTrig"
	if err := conn.SendPresence(1, path); err != nil {
		t.Fatalf("SendPresence() unexpected error: %v", err)
	}

	udp.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 512)
	n, _, err := udp.ReadFrom(buf)
	if err != nil {
		t.Fatalf("reading OSC datagram: %v", err)
	}
	got := buf[:n]

	// OSC layout: padded address, padded ",i" typetag, big-endian int32.
	if !strings.HasPrefix(string(got), path) {
		t.Errorf("datagram does not start with address path: %X", got)
	}
	if !strings.Contains(string(got), ",i") {
		t.Errorf("datagram missing int typetag: %X", got)
	}
	if n < 4 {
		t.Fatalf("datagram too short: %d bytes", n)
	}
	if v := binary.BigEndian.Uint32(got[n-4:]); v != 1 {
		t.Errorf("int argument = %d, want 1", v)
	}
}

func TestFindParameterPath(t *testing.T) {
	conn, _ := newRunnerFixture(t)
	ctx := context.Background()

	if err := conn.Discover(ctx); err != nil {
		t.Fatalf("Discover() unexpected error: %v", err)
	}

	t.Run("candidate present", func(t *testing.T) {
		path, ok := conn.FindParameterPath(ctx, []string{
			"/rnbo/inst/9/params/fadeTrig",
			"/rnbo/inst/0/params/fadeTrig",
		})
		if !ok || path != "/rnbo/inst/0/params/fadeTrig" {
			t.Errorf("FindParameterPath() = (%q, %v)", path, ok)
		}
	})

	t.Run("no candidate present", func(t *testing.T) {
		if _, ok := conn.FindParameterPath(ctx, []string{"/missing"}); ok {
			t.Error("FindParameterPath() ok = true for missing path")
		}
	})
}

func TestFindParameterPath_BeforeDiscovery(t *testing.T) {
	conn := NewConnection(Config{OSCPort: 1234, QueryPort: 5678}, nopLogger{})
	if _, ok := conn.FindParameterPath(context.Background(), []string{"/x"}); ok {
		t.Error("FindParameterPath() ok = true before discovery")
	}
}

func TestClose_Idempotent(t *testing.T) {
	conn, _ := newRunnerFixture(t)
	if err := conn.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() unexpected error: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close() unexpected error: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() unexpected error: %v", err)
	}
}
