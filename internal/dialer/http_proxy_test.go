package dialer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mrbash/artax/internal/testutil"
	"github.com/mrbash/artax/internal/tunnel"
)

// serveConnectOnce handles a single CONNECT request on c: it verifies the
// Proxy-Authorization header against wantAuth (empty means none expected),
// dials the requested target, answers 200, and relays bytes.
func serveConnectOnce(t *testing.T, c net.Conn, wantAuth string) {
	t.Helper()

	br := bufio.NewReader(c)
	reqLine, err := br.ReadString('\n')
	if err != nil {
		return
	}
	parts := strings.Fields(strings.TrimSpace(reqLine))
	if len(parts) != 3 || parts[0] != "CONNECT" {
		_, _ = io.WriteString(c, "HTTP/1.1 400 Bad Request\r\n\r\n")
		return
	}
	target := parts[1]

	var gotAuth string
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if v, ok := strings.CutPrefix(line, "Proxy-Authorization: "); ok {
			gotAuth = v
		}
	}

	if gotAuth != wantAuth {
		_, _ = io.WriteString(c, "HTTP/1.1 407 Proxy Authentication Required\r\nProxy-Authenticate: Basic\r\n\r\n")
		return
	}

	dst, err := net.Dial("tcp", target)
	if err != nil {
		_, _ = io.WriteString(c, "HTTP/1.1 502 Bad Gateway\r\n\r\n")
		return
	}
	defer dst.Close()

	_, _ = io.WriteString(c, "HTTP/1.1 200 Connection Established\r\n\r\n")

	go func() {
		_, _ = io.Copy(dst, br)
		_ = dst.Close()
	}()
	_, _ = io.Copy(c, dst)
}

func newTestProxyDialer(t *testing.T, proxyAddr, userinfo string) Dialer {
	t.Helper()

	raw := "http://" + proxyAddr
	if userinfo != "" {
		raw = "http://" + userinfo + "@" + proxyAddr
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}

	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	d, err := NewHTTPProxyDialer(Config{DialTimeout: 2 * time.Second, NegotiationTimeout: 2 * time.Second}, u, user, pass)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestHTTPProxyDialerDialSuccess(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	echoLn := testutil.StartEchoTCPServer(t, ctx)
	defer echoLn.Close()

	proxyLn, wait := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		serveConnectOnce(t, c, "")
	})
	defer wait()

	d := newTestProxyDialer(t, proxyLn.Addr().String(), "")

	c, err := d.DialContext(ctx, "tcp", echoLn.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if !tunnel.IsTunneled(c) {
		t.Fatal("dialed connection not tagged as tunneled")
	}
	resp, ok := tunnel.TunnelResponse(c)
	if !ok || resp.StatusCode != 200 {
		t.Fatalf("tunnel response = %+v ok=%v", resp, ok)
	}

	testutil.AssertEcho(t, c, c, []byte("hello"))
}

func TestHTTPProxyDialerDialWithAuth(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	echoLn := testutil.StartEchoTCPServer(t, ctx)
	defer echoLn.Close()

	// base64("user:pass") == "dXNlcjpwYXNz"
	proxyLn, wait := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		serveConnectOnce(t, c, "Basic dXNlcjpwYXNz")
	})
	defer wait()

	d := newTestProxyDialer(t, proxyLn.Addr().String(), "user:pass")

	c, err := d.DialContext(ctx, "tcp", echoLn.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	testutil.AssertEcho(t, c, c, []byte("authed"))
}

func TestHTTPProxyDialerDialRejected(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Proxy expects credentials; dialer sends none.
	proxyLn, wait := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		serveConnectOnce(t, c, "Basic dXNlcjpwYXNz")
	})
	defer wait()

	d := newTestProxyDialer(t, proxyLn.Addr().String(), "")

	_, err := d.DialContext(ctx, "tcp", "127.0.0.1:1")
	var pe *tunnel.ProxyError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *tunnel.ProxyError", err)
	}
	if pe.StatusCode != 407 {
		t.Fatalf("status = %d, want 407", pe.StatusCode)
	}
}

func TestHTTPProxyDialerMalformedProxy(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proxyLn, wait := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		br := bufio.NewReader(c)
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		_, _ = io.WriteString(c, "GARBAGE\r\n\r\n")
	})
	defer wait()

	d := newTestProxyDialer(t, proxyLn.Addr().String(), "")

	_, err := d.DialContext(ctx, "tcp", "127.0.0.1:1")
	if !errors.Is(err, tunnel.ErrMalformedResponse) {
		t.Fatalf("err = %v, want tunnel.ErrMalformedResponse", err)
	}
}

func TestHTTPProxyDialerProxyHangsUp(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proxyLn, wait := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		br := bufio.NewReader(c)
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		_, _ = io.WriteString(c, "HTTP/1.1 200 Conn")
		// close without completing the status line
	})
	defer wait()

	d := newTestProxyDialer(t, proxyLn.Addr().String(), "")

	_, err := d.DialContext(ctx, "tcp", "127.0.0.1:1")
	var te *tunnel.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *tunnel.TransportError", err)
	}
}

func TestHTTPProxyDialerUnsupportedNetwork(t *testing.T) {
	t.Parallel()

	d := newTestProxyDialer(t, "127.0.0.1:1", "")

	if _, err := d.DialContext(context.Background(), "udp", "127.0.0.1:53"); err == nil {
		t.Fatal("expected error for udp network")
	}
}
