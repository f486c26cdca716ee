package conn

import (
	"net"
	"testing"
)

func TestListenTCPAccept(t *testing.T) {
	t.Parallel()

	ln, err := ListenTCP("tcp", "127.0.0.1:0", net.KeepAliveConfig{Enable: true})
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c, err := net.Dial("tcp", ln.Addr().String())
		if err != nil {
			return
		}
		_ = c.Close()
	}()

	c, err := ln.Accept()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, ok := c.(*net.TCPConn); !ok {
		t.Fatalf("accepted conn is %T, want *net.TCPConn", c)
	}
	<-done
}

func TestListenTCPBadAddress(t *testing.T) {
	t.Parallel()

	if _, err := ListenTCP("tcp", "256.0.0.1:bogus", net.KeepAliveConfig{}); err == nil {
		t.Fatal("expected listen error")
	}
}
