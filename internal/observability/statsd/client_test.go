package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestClientLine(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "portal", tags: formatTags(map[string]string{"env": "dev"})}

	got := c.line("login.attempt", "1|c", map[string]string{"result": " success "})
	want := "portal.login.attempt:1|c|#env:dev,result:success"
	if got != want {
		t.Fatalf("line mismatch\n got: %q\nwant: %q", got, want)
	}

	if got := c.line("  ", "1|c", nil); got != "" {
		t.Fatalf("blank metric names must be dropped, got %q", got)
	}
}

func TestFormatTagsSortedAndTrimmed(t *testing.T) {
	t.Parallel()

	got := formatTags(map[string]string{"role": "student", " outcome ": " allow ", "": "ignored"})
	if got != "outcome:allow,role:student" {
		t.Fatalf("formatTags = %q", got)
	}
	if formatTags(nil) != "" {
		t.Fatalf("expected empty tags")
	}
}

func TestDisabledClientDropsMetrics(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.Count("x", 1, nil)
	c.Timing("y", time.Second, nil)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestClientWritesUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp listen unavailable: %v", err)
	}
	defer pc.Close()

	c, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: ".portal."})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.Count("resolve.cache_hit", 1, nil)

	buf := make([]byte, 256)
	if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(buf[:n]); !strings.HasPrefix(got, "portal.resolve.cache_hit:1|c") {
		t.Fatalf("unexpected payload %q", got)
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Count("login", 1, map[string]string{"result": "ok"})
	r.Count("login", 2, map[string]string{"result": "ok"})
	r.Timing("login.duration", time.Millisecond, nil)

	if got := r.Counter("login", map[string]string{"result": "ok"}); got != 3 {
		t.Fatalf("Counter = %d, want 3", got)
	}
	if got := r.Timings("login.duration", nil); got != 1 {
		t.Fatalf("Timings = %d, want 1", got)
	}
	if OrNoop(nil) == nil {
		t.Fatalf("OrNoop must not return nil")
	}
}
