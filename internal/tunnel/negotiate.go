package tunnel

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

// aLongTimeAgo is a non-zero time far in the past, used to interrupt blocked
// reads and writes when the negotiation context is canceled.
var aLongTimeAgo = time.Unix(1, 0)

// Negotiate establishes a CONNECT tunnel to authority over conn, which must
// already be connected to the proxy. If username is non-empty, a single
// Proxy-Authorization header with HTTP Basic credentials is sent.
//
// On success the returned *Conn wraps conn, is marked as tunneled, and
// replays any bytes received past the response header terminator ahead of
// later reads. On failure the error is one of three kinds: *TransportError
// (I/O failed or the proxy hung up mid-handshake), *ProxyError (well-formed
// non-200 response), or a wrapped ErrMalformedResponse.
//
// Negotiate never closes conn; after an error the caller decides whether the
// connection is still usable. A ctx deadline is mapped onto the connection
// deadline for the duration of the handshake; cancellation interrupts any
// blocked read or write, after which conn is in an undefined state and
// should be closed.
func Negotiate(ctx context.Context, conn net.Conn, authority, username, password string) (*Conn, error) {
	if authority == "" {
		return nil, errors.New("tunnel: empty authority")
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(aLongTimeAgo)
	})
	defer stop()

	if _, err := conn.Write(appendConnectRequest(nil, authority, username, password)); err != nil {
		return nil, &TransportError{Op: "connect write", Err: err}
	}

	p := NewParser()
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			done, perr := p.Feed(buf[:n])
			if perr != nil {
				return nil, perr
			}
			if done {
				break
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Proxy hung up mid-handshake.
				err = io.ErrUnexpectedEOF
			}
			return nil, &TransportError{Op: "connect read", Err: err}
		}
	}

	resp := p.Response()
	if resp.StatusCode != http.StatusOK {
		return nil, &ProxyError{StatusCode: resp.StatusCode, Status: resp.Status, Header: resp.Header}
	}

	_ = conn.SetDeadline(time.Time{})
	return newConn(conn, resp), nil
}

// appendConnectRequest serializes the CONNECT request. No Host header is
// sent: the request target is the authority itself, and the proxy does not
// interpret the tunneled bytes.
func appendConnectRequest(b []byte, authority, username, password string) []byte {
	b = append(b, "CONNECT "...)
	b = append(b, authority...)
	b = append(b, " HTTP/1.1\r\n"...)
	if username != "" {
		b = append(b, "Proxy-Authorization: Basic "...)
		b = base64.StdEncoding.AppendEncode(b, []byte(username+":"+password))
		b = append(b, "\r\n"...)
	}
	return append(b, "\r\n"...)
}
