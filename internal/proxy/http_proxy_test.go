package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/mrbash/artax/internal/dialer"
	"github.com/mrbash/artax/internal/testutil"
	"github.com/mrbash/artax/internal/tunnel"
)

func startHTTPProxy(t *testing.T, ctx context.Context) net.Listener {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	cfg := Config{
		NegotiationTimeout: 2 * time.Second,
		Dialer:             dialer.NewDirectDialer(dialer.Config{DialTimeout: 2 * time.Second}),
	}
	srv := NewHTTPProxyServer(ctx, cfg)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Close()
		_ = ln.Close()
	})

	return ln
}

// The server side of the tunnel is exercised with our own CONNECT client, so
// a handshake bug on either side fails this test.
func TestHTTPProxyServerConnect(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	echoLn := testutil.StartEchoTCPServer(t, ctx)
	defer echoLn.Close()

	proxyLn := startHTTPProxy(t, ctx)

	u := &url.URL{Scheme: "http", Host: proxyLn.Addr().String()}
	d, err := dialer.NewHTTPProxyDialer(dialer.Config{DialTimeout: 2 * time.Second, NegotiationTimeout: 2 * time.Second}, u, "", "")
	if err != nil {
		t.Fatal(err)
	}

	c, err := d.DialContext(ctx, "tcp", echoLn.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if !tunnel.IsTunneled(c) {
		t.Fatal("connection not tagged as tunneled")
	}

	testutil.AssertEcho(t, c, c, []byte("through the proxy"))
}

func TestHTTPProxyServerConnectDialFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	proxyLn := startHTTPProxy(t, ctx)

	u := &url.URL{Scheme: "http", Host: proxyLn.Addr().String()}
	d, err := dialer.NewHTTPProxyDialer(dialer.Config{DialTimeout: time.Second, NegotiationTimeout: 2 * time.Second}, u, "", "")
	if err != nil {
		t.Fatal(err)
	}

	// Port 1 on loopback should refuse quickly; the proxy answers 502.
	_, err = d.DialContext(ctx, "tcp", "127.0.0.1:1")
	if err == nil {
		t.Fatal("expected error for unreachable target")
	}
	var pe *tunnel.ProxyError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *tunnel.ProxyError", err)
	}
	if pe.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", pe.StatusCode)
	}
}

func TestHTTPProxyServerPlainHTTP(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	origin := http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "origin says hi")
	})}
	originLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = origin.Serve(originLn) }()
	defer origin.Close()

	proxyLn := startHTTPProxy(t, ctx)

	proxyURL := &url.URL{Scheme: "http", Host: proxyLn.Addr().String()}
	client := &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		Timeout:   2 * time.Second,
	}

	resp, err := client.Get("http://" + originLn.Addr().String() + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "origin says hi" {
		t.Fatalf("body = %q", body)
	}
}
